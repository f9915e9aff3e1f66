// Package sheets posts finalized intake records to the spreadsheet
// endpoint (a Google Apps Script web app). One best-effort attempt per
// call; retry policy belongs to the caller.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Submitter is the storage collaborator capability.
type Submitter interface {
	Submit(ctx context.Context, userID string, fields map[string]string) error
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends the flat record as JSON: {"userId": ..., field: value...}.
func (c *Client) Submit(ctx context.Context, userID string, fields map[string]string) error {
	payload := make(map[string]string, len(fields)+1)
	payload["userId"] = userID
	for k, v := range fields {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit to sheet endpoint: %w", err)
	}
	defer res.Body.Close()

	// GAS web apps answer 200 or a 302 redirect on success.
	if res.StatusCode >= http.StatusBadRequest {
		resBody, _ := io.ReadAll(res.Body)
		return fmt.Errorf("sheet endpoint returned %d: %s", res.StatusCode, string(resBody))
	}
	return nil
}
