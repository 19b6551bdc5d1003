package relay

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
)

// Logger defines the logging contract for relay operations.
type Logger func(ctx context.Context, event string, fields map[string]any)

// ErrRelayRejected is returned when the relay accepts the request but reports failure.
var ErrRelayRejected = errors.New("relay: submission rejected")

// ErrRelayUnavailable is returned when the relay cannot be reached or responds with an error status.
var ErrRelayUnavailable = errors.New("relay: unavailable")

const maxResponseBytes = 1 << 20

// Submission is the payload forwarded to the relay endpoint.
type Submission struct {
	Subject string
	Name    string
	Phone   string
	Notes   string
	Message string
}

// ClientConfig configures the relay Client.
type ClientConfig struct {
	BaseURL    string
	Email      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     Logger
	Clock      func() time.Time
}

// Client submits orders to a form relay endpoint over HTTPS.
type Client struct {
	endpoint string
	http     *http.Client
	logger   Logger
	clock    func() time.Time
}

// NewClient validates the configuration and constructs a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("relay: base url is required")
	}
	email := strings.TrimSpace(cfg.Email)
	if email == "" {
		return nil, errors.New("relay: email is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Client{
		endpoint: base + "/ajax/" + url.PathEscape(email),
		http:     httpClient,
		logger:   logger,
		clock:    clock,
	}, nil
}

type submissionBody struct {
	Subject string `json:"_subject"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
	Message string `json:"message"`
	Captcha string `json:"_captcha"`
}

type relayResponse struct {
	Success any    `json:"success"`
	Message string `json:"message"`
}

// Submit sends the order to the relay. A nil error means the relay accepted the order.
func (c *Client) Submit(ctx context.Context, sub Submission) error {
	body, err := json.Marshal(submissionBody{
		Subject: sub.Subject,
		Name:    sub.Name,
		Phone:   sub.Phone,
		Notes:   sub.Notes,
		Message: sub.Message,
		Captcha: "false",
	})
	if err != nil {
		return fmt.Errorf("relay: encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := c.clock()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger(ctx, "relay.submit.error", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRelayUnavailable, err)
	}
	latency := c.clock().Sub(started)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger(ctx, "relay.submit.rejected", map[string]any{
			"status":     resp.StatusCode,
			"latency_ms": latency.Milliseconds(),
		})
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", ErrRelayUnavailable, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrRelayRejected, resp.StatusCode)
	}

	if !successReported(raw) {
		c.logger(ctx, "relay.submit.rejected", map[string]any{
			"status":     resp.StatusCode,
			"latency_ms": latency.Milliseconds(),
		})
		return ErrRelayRejected
	}

	c.logger(ctx, "relay.submit.accepted", map[string]any{
		"status":     resp.StatusCode,
		"latency_ms": latency.Milliseconds(),
	})
	return nil
}

// successReported inspects the relay body. An empty or unparseable body on a
// 2xx status counts as success; an explicit success field must not be falsy.
func successReported(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	var parsed relayResponse
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return true
	}
	switch v := parsed.Success.(type) {
	case nil:
		return true
	case bool:
		return v
	case string:
		return !strings.EqualFold(v, "false")
	default:
		return true
	}
}
