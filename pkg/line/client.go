package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultAPIBase  = "https://api.line.me"
	defaultDataBase = "https://api-data.line.me"
)

// Messenger is the outbound capability the services depend on.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, messages []Message) error
	Push(ctx context.Context, userID string, messages []Message) error
	Send(ctx context.Context, replyToken, userID string, messages []Message) error
	GetMessageContent(ctx context.Context, messageID string) ([]byte, error)
}

// Client talks to the LINE Messaging API.
type Client struct {
	accessToken string
	apiBase     string
	dataBase    string
	httpClient  *http.Client
}

type ClientOption func(*Client)

// WithEndpoints overrides the API hosts, for tests.
func WithEndpoints(apiBase, dataBase string) ClientOption {
	return func(c *Client) {
		c.apiBase = apiBase
		c.dataBase = dataBase
	}
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(channelAccessToken string, opts ...ClientOption) *Client {
	c := &Client{
		accessToken: channelAccessToken,
		apiBase:     defaultAPIBase,
		dataBase:    defaultDataBase,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

// Reply sends messages on the single-use reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages []Message) error {
	return c.post(ctx, "/v2/bot/message/reply", replyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
}

// Push sends messages addressed by persistent user id.
func (c *Client) Push(ctx context.Context, userID string, messages []Message) error {
	return c.post(ctx, "/v2/bot/message/push", pushRequest{
		To:       userID,
		Messages: messages,
	})
}

// Send replies when a token is available, falling back to push when the
// token is missing or already spent. Reply tokens are single-use and
// time-limited, so a failed reply is retried as a push rather than
// surfaced.
func (c *Client) Send(ctx context.Context, replyToken, userID string, messages []Message) error {
	if replyToken != "" {
		if err := c.Reply(ctx, replyToken, messages); err == nil {
			return nil
		}
	}
	return c.Push(ctx, userID, messages)
}

// GetMessageContent fetches the binary payload of a media message.
func (c *Client) GetMessageContent(ctx context.Context, messageID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/v2/bot/message/%s/content", c.dataBase, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("line content api returned %d: %s", res.StatusCode, string(body))
	}
	return io.ReadAll(res.Body)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		resBody, _ := io.ReadAll(res.Body)
		return fmt.Errorf("line api %s returned %d: %s", path, res.StatusCode, string(resBody))
	}
	return nil
}
