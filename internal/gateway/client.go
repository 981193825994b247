// Package gateway is the HTTP client for the external payment provider.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/mealcart/checkout/internal/domain/payment"
)

// Config holds the provider endpoint and credentials.
type Config struct {
	// BaseURL is the provider API root, e.g. https://api.razorpay.com.
	BaseURL string
	// KeyID and KeySecret authenticate API calls via HTTP basic auth.
	KeyID     string
	KeySecret string
	// Currency is the ISO code sent with every intent (single-currency
	// deployment).
	Currency string
	// Timeout bounds each call to the provider. The provider call is the
	// only blocking I/O in the checkout path and must never run inside a
	// database transaction.
	Timeout time.Duration
}

// Client creates payment intents with the provider over HTTPS.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ payment.Gateway = (*Client)(nil)

// NewClient creates a provider client with an explicit request timeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type createIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createIntentResponse struct {
	ID string `json:"id"`
}

// CreateIntent opens a payment intent for the given minor-unit amount and
// returns the provider's order reference. Connectivity problems and
// provider errors are reported as retryable payment.GatewayError values.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, receipt string) (string, error) {
	body, err := json.Marshal(createIntentRequest{
		Amount:   amountMinor,
		Currency: c.cfg.Currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", errors.Wrap(err, "encode intent request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build intent request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &payment.GatewayError{Op: "create intent", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Read a bounded slice of the body for the error message.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &payment.GatewayError{
			Op:  "create intent",
			Err: errors.Errorf("provider returned %d: %s", resp.StatusCode, msg),
		}
	}

	var out createIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &payment.GatewayError{Op: "create intent", Err: errors.Wrap(err, "decode response")}
	}
	if out.ID == "" {
		return "", &payment.GatewayError{Op: "create intent", Err: errors.New("provider returned empty order id")}
	}

	return out.ID, nil
}
