// Package retry re-runs upstream calls with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Config is a backoff policy.
type Config struct {
	// MaxAttempts is the total number of calls, including the first one.
	// Values below 1 are treated as 1.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFraction adds up to this fraction of the delay at random (0.0 to 1.0).
	JitterFraction float64
}

// DefaultConfig tries three times, starting one second apart.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// NewsAPIConfig performs a single attempt. A failed top-headlines call is
// reported to the caller and picked up again by the next scheduled run.
func NewsAPIConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 1
	return cfg
}

// FeedFetchConfig is NewsAPIConfig with a shorter ceiling, for RSS
// documents. Raising MaxAttempts enables the backoff.
func FeedFetchConfig() Config {
	cfg := NewsAPIConfig()
	cfg.MaxDelay = 10 * time.Second
	return cfg
}

func (c Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// delay is the wait before retry number n (1-based), without jitter.
func (c Config) delay(n int) time.Duration {
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(c.InitialDelay) * math.Pow(mult, float64(n-1)))
	if c.MaxDelay > 0 && (d > c.MaxDelay || d < 0) {
		d = c.MaxDelay
	}
	return d
}

// WithBackoff calls fn until it succeeds, returns a non-retryable error or
// the attempts run out. With more than one attempt the final error is
// wrapped; with exactly one it is returned unchanged.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	maxAttempts := cfg.attempts()

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if maxAttempts == 1 {
			return err
		}
		if !IsRetryable(err) {
			slog.Warn("non-retryable error, aborting", slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		if attempt == maxAttempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", maxAttempts, err)
		}

		wait := addJitter(cfg.delay(attempt), cfg.JitterFraction)
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.RetryAfter > wait {
			wait = httpErr.RetryAfter
		}
		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
}

// IsRetryable reports whether err is a timeout, a refused or reset
// connection, or an HTTPError that HTTPError.Retryable accepts. Context
// cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.ENETUNREACH} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Message    string
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable is true for 5xx, 408 and 429.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600 ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	fraction = math.Min(fraction, 1)
	// #nosec G404 -- jitter does not need cryptographic randomness.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
