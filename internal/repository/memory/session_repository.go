package memory

import (
	"context"
	"time"

	"line-intake-bot/pkg/survey"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps survey sessions in process memory. Idle
// sessions are evicted after the TTL so abandoned surveys do not
// accumulate forever; an evicted user simply starts over on their next
// message.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Get(_ context.Context, userID string) (*survey.Session, bool, error) {
	if x, found := r.cache.Get(userID); found {
		return x.(*survey.Session), true, nil
	}
	return nil, false, nil
}

func (r *SessionRepository) Save(_ context.Context, session *survey.Session) error {
	// Saving refreshes the idle TTL.
	r.cache.Set(session.UserID, session, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, userID string) error {
	r.cache.Delete(userID)
	return nil
}

func (r *SessionRepository) List(_ context.Context) ([]*survey.Session, error) {
	items := r.cache.Items()
	out := make([]*survey.Session, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*survey.Session))
	}
	return out, nil
}
