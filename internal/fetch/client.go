package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperrors "equitylens/internal/errors"
)

// ClientConfig tunes the outbound HTTP boundary.
type ClientConfig struct {
	// RequestsPerSecond caps the steady-state call rate against providers.
	RequestsPerSecond float64
	Burst             int
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries int
	// InitialBackoff doubles on every retry.
	InitialBackoff time.Duration
	Timeout        time.Duration
	UserAgent      string
}

// DefaultClientConfig matches free-tier provider limits.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestsPerSecond: 2,
		Burst:             4,
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		Timeout:           15 * time.Second,
		UserAgent:         "equitylens/1.0",
	}
}

// Client is a rate-limited HTTP client with retry and exponential backoff.
// Every failure surfaces as a DataUnavailable error; timeouts apply here at
// the fetch boundary only, never inside the computation core.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cfg     ClientConfig
	logger  *slog.Logger
}

// NewClient creates a client from config, filling zero fields from defaults.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	def := DefaultClientConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cfg:     cfg,
		logger:  logger,
	}
}

// Get fetches url, honoring the rate limit and retrying transient failures.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := c.cfg.InitialBackoff

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WarnContext(ctx, "retrying fetch",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.Any("error", lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, apperrors.NewDataUnavailableError("fetch canceled", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperrors.NewDataUnavailableError("rate limiter wait", err)
		}

		body, retryable, err := c.doOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, apperrors.NewDataUnavailableError(
		fmt.Sprintf("fetch %s failed after %d attempts", url, c.cfg.MaxRetries+1), lastErr)
}

// GetJSON fetches url and unmarshals the response body into dest.
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return apperrors.NewDataUnavailableError("decode provider response", err).
			WithContext("url", url)
	}
	return nil
}

// doOnce performs a single attempt. Server-side and transport errors are
// retryable; client-side status codes are not.
func (c *Client) doOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("provider returned status %d", resp.StatusCode)
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
