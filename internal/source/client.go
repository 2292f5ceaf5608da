package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound marks a resource-not-found response. It is never retried
// and callers translate it into an empty result for the tick.
var ErrNotFound = errors.New("resource not found")

// APIError represents a non-2xx response from a provider.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RetryPolicy describes exponential backoff around a call: up to
// MaxAttempts total tries, sleeping InitialDelay before the second and
// multiplying by Multiplier up to MaxDelay between subsequent ones.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy matches the provider clients' historical behavior:
// five attempts, 1s initial delay, doubling, capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     10 * time.Second,
	}
}

// Do invokes fn under the policy. Retries stop on success, on a
// non-retryable error, on context cancellation, or when attempts are
// exhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	delay := p.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * p.Multiplier)
			if delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable treats transport failures as transient, including
// per-request timeouts, which surface as a url.Error wrapping
// context.DeadlineExceeded. Caller cancellation still stops the loop:
// Do checks the context before every retry. HTTP errors defer to
// APIError.IsRetryable.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	// Connection refused, reset, timeout.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Client is a JSON-over-GET HTTP client shared by the provider adapters.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	retry      RetryPolicy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a provider HTTP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
		retry:  DefaultRetryPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetryPolicy sets the retry configuration.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// GetJSON performs a GET with retries and decodes the body into result.
// A 404 returns ErrNotFound without retrying.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, result any) error {
	var body []byte

	err := c.retry.Do(ctx, func() error {
		var err error
		body, err = c.doRequest(ctx, rawURL, query)
		if err != nil {
			c.logger.Debug("request attempt failed", "url", rawURL, "error", err)
		}
		return err
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	fullURL := rawURL
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", fullURL, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}
