// Package telegram implements the chat transport: a thin Telegram Bot API
// client plus the long-polling bot loop that routes commands and free text.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Client is a minimal Telegram Bot API client.
type Client struct {
	botToken string
	baseURL  string
	client   *http.Client
}

// NewClient creates a client for the production Bot API endpoint.
func NewClient(botToken string) *Client {
	return NewClientWithBaseURL(botToken, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom endpoint. Used by
// tests to point at a local server.
func NewClientWithBaseURL(botToken, baseURL string) *Client {
	return &Client{
		botToken: botToken,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      *Chat  `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// User is a Telegram user.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat is a Telegram chat.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	Limit          int      `json:"limit"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// Send delivers a plain-text message to a user. Plain text avoids formatting
// errors on arbitrary reminder bodies. Send satisfies the scheduler's
// Notifier interface.
func (c *Client) Send(ctx context.Context, userID int64, text string) error {
	_, err := c.call(ctx, c.client, "sendMessage", sendMessageRequest{
		ChatID: userID,
		Text:   text,
	})
	return err
}

// GetUpdates long-polls for new message updates after offset. timeout is the
// server-side hold in seconds (Telegram caps it at 50).
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout, limit int) ([]Update, error) {
	req := getUpdatesRequest{
		Timeout:        timeout,
		Limit:          limit,
		AllowedUpdates: []string{"message"},
	}
	if offset > 0 {
		req.Offset = offset
	}

	// The request client needs headroom beyond the server-side hold.
	client := &http.Client{Timeout: time.Duration(timeout+10) * time.Second}

	result, err := c.call(ctx, client, "getUpdates", req)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("failed to parse updates: %w", err)
	}
	return updates, nil
}

func (c *Client) call(ctx context.Context, client *http.Client, method string, payload interface{}) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", method, err)
	}

	if !apiResp.OK {
		return nil, fmt.Errorf("telegram API error on %s: %s", method, apiResp.Description)
	}

	return apiResp.Result, nil
}
