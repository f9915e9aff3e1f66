package memory

import (
	"context"
	"testing"
	"time"

	"line-intake-bot/pkg/survey"

	"github.com/stretchr/testify/assert"
)

func TestSessionRoundTrip(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	_, found, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	assert.False(t, found)

	s := survey.NewSession("U1", time.Now())
	s.SetAnswer("name", "Taro")
	assert.NoError(t, repo.Save(ctx, s))

	got, found, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Taro", got.AnswerMap()["name"])

	list, err := repo.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	assert.NoError(t, repo.Delete(ctx, "U1"))
	_, found, _ = repo.Get(ctx, "U1")
	assert.False(t, found)
}

func TestIdleSessionIsEvicted(t *testing.T) {
	repo := NewSessionRepository(20 * time.Millisecond)
	ctx := context.Background()

	assert.NoError(t, repo.Save(ctx, survey.NewSession("U1", time.Now())))
	time.Sleep(50 * time.Millisecond)

	_, found, err := repo.Get(ctx, "U1")
	assert.NoError(t, err)
	assert.False(t, found, "idle session should expire")
}
