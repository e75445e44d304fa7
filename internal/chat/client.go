// Package chat sends messages to a Twitch chat room via the Send Chat Message API:
// https://dev.twitch.tv/docs/api/reference/#send-chat-message
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"
)

const TwitchMessagesURL = "https://api.twitch.tv/helix/chat/messages"

// SendError is returned when Twitch responds to a chat message request with a non-2xx
// status
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("got response %d from send chat message request: %s", e.StatusCode, e.Body)
}

// Forbidden indicates that the sender may not post in the broadcaster's chat room
func (e *SendError) Forbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// TooLong indicates that the message exceeded Twitch's length limit
func (e *SendError) TooLong() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

type Sender interface {
	Send(ctx context.Context, logger *slog.Logger, accessToken string, msg Message) error
}

// Message is the JSON payload of a send chat message request
type Message struct {
	BroadcasterId string `json:"broadcaster_id"`
	SenderId      string `json:"sender_id"`
	Message       string `json:"message"`
}

type Client struct {
	url        string
	clientId   string
	httpClient *http.Client
}

func NewClient(clientId string) *Client {
	return &Client{
		url:        TwitchMessagesURL,
		clientId:   clientId,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts msg to Twitch, authorized with the given access token. A nil error means
// Twitch accepted the message; a rejected message yields a *SendError.
func (c *Client) Send(ctx context.Context, logger *slog.Logger, accessToken string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	logger.Info("Sending chat message", "payload", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("authorization", "Bearer "+accessToken)
	req.Header.Set("client-id", c.clientId)
	req.Header.Set("content-type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send chat message request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read send chat message response: %w", err)
	}
	logger.Info("Got send chat message response",
		"senderId", msg.SenderId,
		"status", res.StatusCode,
		"body", string(body),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &SendError{StatusCode: res.StatusCode, Body: string(body)}
	}
	return nil
}
