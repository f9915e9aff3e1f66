package dto

// WebhookRequest is the LINE webhook delivery body. One delivery may
// batch events from several users.
type WebhookRequest struct {
	Destination string         `json:"destination"`
	Events      []WebhookEvent `json:"events"`
}

type WebhookEvent struct {
	Type       string         `json:"type"`
	Timestamp  int64          `json:"timestamp"`
	ReplyToken string         `json:"replyToken"`
	Source     EventSource    `json:"source"`
	Message    *WebhookMessage `json:"message,omitempty"`
}

type EventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type WebhookMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"` // "text", "image", "sticker", ...
	Text string `json:"text,omitempty"`
}
