// Package chapa is a client for the Chapa payment gateway's transaction API.
package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/pkg/circuitbreaker"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

const (
	CurrencyETB   = "ETB"
	StatusSuccess = "success"

	maxResponseBytes = 1 << 20
)

var (
	ErrRejected      = errors.New("chapa: request rejected")
	ErrMissingAmount = errors.New("chapa: verification carried no amount")
)

type Config struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	ReturnURL   string
	Timeout     time.Duration
}

type Customization struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// InitializeRequest is the body of POST initialize.
type InitializeRequest struct {
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	TxRef         string        `json:"tx_ref"`
	CallbackURL   string        `json:"callback_url"`
	ReturnURL     string        `json:"return_url"`
	Customization Customization `json:"customization"`
}

type initializeResponse struct {
	Status  string      `json:"status"`
	Message interface{} `json:"message"`
	Data    *struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

// Verification is the outcome of GET verify/{tx_ref}.
type Verification struct {
	Status string `json:"status"`
	Data   struct {
		Status string      `json:"status"`
		Amount json.Number `json:"amount"`
		TxRef  string      `json:"tx_ref"`
	} `json:"data"`
}

// Successful reports whether both the envelope and the transaction succeeded.
func (v *Verification) Successful() bool {
	return v.Status == StatusSuccess && v.Data.Status == StatusSuccess
}

// PaidAmount parses the verified amount.
func (v *Verification) PaidAmount() (float64, error) {
	if v.Data.Amount == "" {
		return 0, ErrMissingAmount
	}
	amount, err := v.Data.Amount.Float64()
	if err != nil {
		return 0, fmt.Errorf("chapa: invalid amount %q: %w", v.Data.Amount, err)
	}
	return amount, nil
}

// Gateway is the part of the client the billing service depends on.
type Gateway interface {
	Initialize(ctx context.Context, req *InitializeRequest) (string, error)
	Verify(ctx context.Context, txRef string) (*Verification, error)
	CallbackURL() string
	ReturnURL() string
}

type Client struct {
	cfg     Config
	http    *http.Client
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	logger := log.With().Str("component", "chapa").Logger()
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		metrics: m,
		logger:  logger,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:             "chapa",
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				logger.Warn().Str("breaker", name).Str("from", string(from)).Str("to", string(to)).Msg("circuit breaker state changed")
			},
		}),
	}
}

func (c *Client) CallbackURL() string { return c.cfg.CallbackURL }
func (c *Client) ReturnURL() string   { return c.cfg.ReturnURL }

// Initialize creates a hosted checkout and returns its URL.
func (c *Client) Initialize(ctx context.Context, req *InitializeRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode initialize request: %w", err)
	}

	var out initializeResponse
	status, err := c.do(ctx, "initialize", http.MethodPost, c.cfg.BaseURL+"initialize", body, &out)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || out.Data == nil || out.Data.CheckoutURL == "" {
		c.logger.Warn().Int("status", status).Interface("message", out.Message).Str("tx_ref", req.TxRef).Msg("initialize rejected")
		return "", ErrRejected
	}
	return out.Data.CheckoutURL, nil
}

// Verify looks a transaction up by reference.
func (c *Client) Verify(ctx context.Context, txRef string) (*Verification, error) {
	var out Verification
	endpoint := c.cfg.BaseURL + "verify/" + url.PathEscape(txRef)
	if _, err := c.do(ctx, "verify", http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends the request through the breaker. Non-2xx responses are decoded
// but do not count as breaker failures unless they are 5xx.
func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, out interface{}) (int, error) {
	var status int
	err := c.cb.Execute(func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("chapa %s: %w", op, err)
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("chapa %s: failed to read response: %w", op, err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				if status >= http.StatusInternalServerError {
					return fmt.Errorf("chapa %s: status %d", op, status)
				}
				return fmt.Errorf("chapa %s: failed to decode response: %w", op, err)
			}
		}
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("chapa %s: status %d", op, status)
		}
		return nil
	})

	c.observe(op, status, err)
	return status, err
}

func (c *Client) observe(op string, status int, err error) {
	if c.metrics == nil {
		return
	}
	label := "ok"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		label = "breaker_open"
	case err != nil:
		label = "error"
	case status >= http.StatusBadRequest:
		label = "rejected"
	}
	c.metrics.GatewayRequests.WithLabelValues(op, label).Inc()
}
