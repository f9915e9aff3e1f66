package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"line-intake-bot/internal/dto"
	"line-intake-bot/internal/repository/memory"
	"line-intake-bot/pkg/line"
	"line-intake-bot/pkg/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	sent    [][]line.Message
	content []byte
	sendErr error
}

func (m *fakeMessenger) Reply(_ context.Context, _ string, messages []line.Message) error {
	m.sent = append(m.sent, messages)
	return m.sendErr
}

func (m *fakeMessenger) Push(_ context.Context, _ string, messages []line.Message) error {
	m.sent = append(m.sent, messages)
	return m.sendErr
}

func (m *fakeMessenger) Send(_ context.Context, _ string, _ string, messages []line.Message) error {
	m.sent = append(m.sent, messages)
	return m.sendErr
}

func (m *fakeMessenger) GetMessageContent(_ context.Context, _ string) ([]byte, error) {
	if m.content == nil {
		return nil, errors.New("no content")
	}
	return m.content, nil
}

func (m *fakeMessenger) last(t *testing.T) line.Message {
	t.Helper()
	require.NotEmpty(t, m.sent)
	batch := m.sent[len(m.sent)-1]
	require.NotEmpty(t, batch)
	return batch[0]
}

type fakeSink struct {
	delivered []*dto.SubmissionMessage
	err       error
}

func (s *fakeSink) Deliver(_ context.Context, msg *dto.SubmissionMessage) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.delivered = append(s.delivered, msg)
	return true, nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

func newTestIntake(t *testing.T, sink SubmissionSink) (IIntakeService, *fakeMessenger) {
	t.Helper()
	messenger := &fakeMessenger{content: []byte("jpeg-bytes")}
	sessions := memory.NewSessionRepository(time.Minute)
	engine := survey.NewEngine(
		survey.DefaultIntakeCatalog(),
		sessions,
		NewLineMediaStore(messenger),
	)
	renderer := survey.NewRenderer(survey.DefaultPickers(), time.Now)
	svc := NewIntakeService(engine, renderer, messenger, sink, nil, nil, nil, "", noopLogger{})
	return svc, messenger
}

func textEvent(userID, text string) *dto.WebhookRequest {
	return &dto.WebhookRequest{Events: []dto.WebhookEvent{{
		Type:       "message",
		ReplyToken: "token",
		Source:     dto.EventSource{Type: "user", UserID: userID},
		Message:    &dto.WebhookMessage{ID: "m1", Type: "text", Text: text},
	}}}
}

func imageEvent(userID, messageID string) *dto.WebhookRequest {
	return &dto.WebhookRequest{Events: []dto.WebhookEvent{{
		Type:       "message",
		ReplyToken: "token",
		Source:     dto.EventSource{Type: "user", UserID: userID},
		Message:    &dto.WebhookMessage{ID: messageID, Type: "image"},
	}}}
}

func TestFirstContactPromptsName(t *testing.T) {
	svc, messenger := newTestIntake(t, &fakeSink{})

	err := svc.HandleWebhook(context.Background(), textEvent("U1", "こんにちは"))
	require.NoError(t, err)

	msg := messenger.last(t)
	assert.Equal(t, "本名を教えてください。", msg.Text)
}

func TestFullRunDeliversSubmission(t *testing.T) {
	sink := &fakeSink{}
	svc, messenger := newTestIntake(t, sink)
	ctx := context.Background()
	userID := "U2"

	pickers := survey.DefaultPickers()
	dateLabel := pickers.DateOptions(time.Now())[0]
	timeLabel := pickers.TimeOptions()[0]

	for _, text := range []string{"はじめまして", "山田太郎", dateLabel, timeLabel, "なし", "なし"} {
		require.NoError(t, svc.HandleWebhook(ctx, textEvent(userID, text)))
	}
	require.NoError(t, svc.HandleWebhook(ctx, imageEvent(userID, "img-1")))

	require.Len(t, sink.delivered, 1)
	msg := sink.delivered[0]
	assert.Equal(t, userID, msg.UserID)
	assert.Equal(t, "山田太郎", msg.Fields["name"])
	assert.Equal(t, dateLabel, msg.Fields["interview_date"])
	// Experience was なし, so the previous venue question never ran.
	assert.NotContains(t, msg.Fields, "previous_venue")

	ack := messenger.last(t)
	assert.True(t, strings.HasPrefix(ack.Text, "ご回答ありがとうございました！"))
	assert.Contains(t, ack.Text, "【本名を教えてください。】\n山田太郎")
	assert.Contains(t, ack.Text, "（画像）")
	assert.Nil(t, ack.QuickReply)
}

func TestRejectedAnswerRepromptsWithoutDelivery(t *testing.T) {
	sink := &fakeSink{}
	svc, messenger := newTestIntake(t, sink)
	ctx := context.Background()
	userID := "U3"

	pickers := survey.DefaultPickers()
	for _, text := range []string{"hi", "山田太郎", pickers.DateOptions(time.Now())[0], pickers.TimeOptions()[0]} {
		require.NoError(t, svc.HandleWebhook(ctx, textEvent(userID, text)))
	}

	// The experience question only accepts its quick-reply choices.
	require.NoError(t, svc.HandleWebhook(ctx, textEvent(userID, "たぶん")))

	msg := messenger.last(t)
	assert.Contains(t, msg.Text, "経験はありますか？")
	assert.NotNil(t, msg.QuickReply)
	assert.Empty(t, sink.delivered)
}

func TestDeliveryFailureStillAcknowledges(t *testing.T) {
	sink := &fakeSink{err: errors.New("sheet endpoint down")}
	svc, messenger := newTestIntake(t, sink)
	ctx := context.Background()
	userID := "U4"

	pickers := survey.DefaultPickers()
	for _, text := range []string{"hi", "山田太郎", pickers.DateOptions(time.Now())[0], pickers.TimeOptions()[0], "なし", "なし"} {
		require.NoError(t, svc.HandleWebhook(ctx, textEvent(userID, text)))
	}
	require.NoError(t, svc.HandleWebhook(ctx, imageEvent(userID, "img-2")))

	ack := messenger.last(t)
	assert.True(t, strings.HasPrefix(ack.Text, "ご回答ありがとうございました！"))
}

func TestNonMessageEventsAreIgnored(t *testing.T) {
	sink := &fakeSink{}
	svc, messenger := newTestIntake(t, sink)

	req := &dto.WebhookRequest{Events: []dto.WebhookEvent{
		{Type: "follow", Source: dto.EventSource{UserID: "U5"}},
		{Type: "message", Source: dto.EventSource{UserID: "U5"},
			Message: &dto.WebhookMessage{ID: "m9", Type: "sticker"}},
	}}
	require.NoError(t, svc.HandleWebhook(context.Background(), req))
	assert.Empty(t, messenger.sent)
}
