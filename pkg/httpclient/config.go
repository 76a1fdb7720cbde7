package httpclient

import (
	"fmt"
	"log/slog"
	"time"
)

// Config configures the HTTP transport stack.
type Config struct {
	// Timeout is the total request timeout (includes retries).
	// Default: 30s. Must be > 0.
	Timeout time.Duration

	// RetryAttempts is the maximum number of transport-level retries (0 = no retries).
	// Default: 0. Must be >= 0.
	RetryAttempts int

	// RetryBackoff is the initial backoff delay before the first retry.
	// Default: 100ms. Must be > 0 if RetryAttempts > 0.
	RetryBackoff time.Duration

	// MaxBackoff caps the backoff delay.
	// Default: 10s. Must be >= RetryBackoff.
	MaxBackoff time.Duration

	// RateLimit is the sustained request rate in requests per second (0 = unlimited).
	RateLimit float64

	// RateBurst is the token bucket size. Default: 1 when RateLimit is set.
	RateBurst int

	// UserAgent is the User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string

	// Logger receives one entry per round trip. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		RetryBackoff: 100 * time.Millisecond,
		MaxBackoff:   10 * time.Second,
		UserAgent:    "folio/1.0",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must be >= 0, got %d", c.RetryAttempts)
	}

	if c.RetryAttempts > 0 {
		if c.RetryBackoff <= 0 {
			return fmt.Errorf("retry_backoff must be > 0 when retry_attempts > 0, got %v", c.RetryBackoff)
		}
		if c.MaxBackoff < c.RetryBackoff {
			return fmt.Errorf("max_backoff (%v) must be >= retry_backoff (%v)", c.MaxBackoff, c.RetryBackoff)
		}
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be >= 0, got %v", c.RateLimit)
	}
	if c.RateBurst < 0 {
		return fmt.Errorf("rate_burst must be >= 0, got %d", c.RateBurst)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required and must be non-empty")
	}

	return nil
}
