package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"line-intake-bot/pkg/line"
	"line-intake-bot/pkg/survey"
)

// lineMediaStore resolves image answers by pulling the binary from the
// LINE content API and inlining it as a data URL, the way the original
// bot stored photos. A real CDN can replace this behind the same
// interface.
type lineMediaStore struct {
	messenger line.Messenger
}

func NewLineMediaStore(messenger line.Messenger) survey.MediaFetcher {
	return &lineMediaStore{messenger: messenger}
}

func (m *lineMediaStore) Fetch(ctx context.Context, messageID string) (string, error) {
	data, err := m.messenger.GetMessageContent(ctx, messageID)
	if err != nil {
		return "", fmt.Errorf("fetch message content %s: %w", messageID, err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
