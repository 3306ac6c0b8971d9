package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/pkg/apperror"
)

var (
	// ErrDeclined means the gateway refused the charge; the booking cannot
	// proceed and its hold must be rolled back.
	ErrDeclined = errors.New("payment gateway declined the capture")
	// ErrUnavailable means the gateway could not be reached; the operation
	// may be retried.
	ErrUnavailable = apperror.New(http.StatusBadGateway, "payment gateway unavailable")
)

// Client talks to the payment gateway over its HTTP/JSON contract.
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

type captureRequest struct {
	BookingID   string `json:"booking_id"`
	AmountCents int64  `json:"amount_cents"`
}

type captureResponse struct {
	CaptureID string `json:"capture_id"`
}

type refundRequest struct {
	CaptureID   string `json:"capture_id"`
	AmountCents int64  `json:"amount_cents"`
}

type payoutRequest struct {
	BookingID   string `json:"booking_id"`
	AmountCents int64  `json:"amount_cents"`
}

// Capture charges the client for a booking and returns the gateway capture id.
func (c *Client) Capture(ctx context.Context, bookingID string, amountCents int64) (string, error) {
	var out captureResponse
	err := c.post(ctx, "/v1/captures", captureRequest{BookingID: bookingID, AmountCents: amountCents}, &out)
	if err != nil {
		return "", err
	}
	if out.CaptureID == "" {
		return "", fmt.Errorf("%w: gateway returned empty capture id", ErrUnavailable)
	}
	return out.CaptureID, nil
}

// Refund returns part or all of a captured amount to the client.
func (c *Client) Refund(ctx context.Context, captureID string, amountCents int64) error {
	return c.post(ctx, "/v1/refunds", refundRequest{CaptureID: captureID, AmountCents: amountCents}, nil)
}

// Payout releases a completed booking's funds to the stylist.
func (c *Client) Payout(ctx context.Context, bookingID string, amountCents int64) error {
	return c.post(ctx, "/v1/payouts", payoutRequest{BookingID: bookingID, AmountCents: amountCents}, nil)
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Continue below.
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		return ErrDeclined
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status %d: %s", ErrUnavailable, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
