package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Client dispatches lifecycle events to the notification collaborator.
// Delivery is fire-and-forget: failures are logged and never propagated,
// so a flaky dispatcher cannot block a booking transition.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type notification struct {
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func (c *Client) Notify(ctx context.Context, userID, eventType string, payload map[string]any) {
	body, err := json.Marshal(notification{UserID: userID, EventType: eventType, Payload: payload})
	if err != nil {
		log.Printf("notify %s %s: marshal failed: %v", userID, eventType, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/notifications", bytes.NewReader(body))
	if err != nil {
		log.Printf("notify %s %s: create request failed: %v", userID, eventType, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("notify %s %s: dispatch failed: %v", userID, eventType, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("notify %s %s: dispatcher returned status %d", userID, eventType, resp.StatusCode)
	}
}
