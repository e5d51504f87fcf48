// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package billing implements subscription checkout and payment
// reconciliation against the Stripe Checkout API.
package billing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/logging"
	"github.com/streamx/streamx/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 64 * 1024

// CheckoutSession is the subset of the Stripe Checkout Session object
// the reconciler needs.
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
}

// Paid reports whether the session's payment has completed.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

// StripeClient talks to the Stripe Checkout API. All calls go through a
// circuit breaker so a Stripe outage fails fast instead of tying up
// request handlers.
type StripeClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*CheckoutSession]
}

// NewStripeClient creates a Stripe API client. cfg.BaseURL is
// overridable for tests; production uses the Stripe default.
func NewStripeClient(cfg *config.StripeConfig) *StripeClient {
	const cbName = "stripe-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*CheckoutSession](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &StripeClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
	}
}

// CreateSessionParams describes a checkout session to open.
type CreateSessionParams struct {
	PriceCents  int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CreateCheckoutSession opens a Stripe Checkout session and returns its
// ID and redirect URL.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", params.PriceCents))
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	for k, v := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	return c.execute(ctx, "create_session", http.MethodPost, "/v1/checkout/sessions", form)
}

// GetCheckoutSession retrieves a checkout session by ID.
func (c *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	return c.execute(ctx, "get_session", http.MethodGet, path, nil)
}

func (c *StripeClient) execute(ctx context.Context, operation, method, path string, form url.Values) (*CheckoutSession, error) {
	start := time.Now()
	session, err := c.cb.Execute(func() (*CheckoutSession, error) {
		return c.doRequest(ctx, method, path, form)
	})
	metrics.RecordUpstreamCall("stripe", operation, time.Since(start), err)
	return session, err
}

func (c *StripeClient) doRequest(ctx context.Context, method, path string, form url.Values) (*CheckoutSession, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, string(errBody))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode stripe response: %w", err)
	}
	return &session, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
