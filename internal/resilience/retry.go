// Package resilience provides fault tolerance patterns
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	apperrors "github.com/probewise/interview/internal/errors"
)

// Retry configuration constants
const (
	DefaultMaxRetries   = 3
	DefaultBaseDelay    = 500 * time.Millisecond
	DefaultMaxDelay     = 10 * time.Second
	DefaultJitterFactor = 0.2 // 20% jitter
)

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
	Fixed        bool // constant delay instead of exponential backoff
	IsRetryable  func(error) bool
}

// DefaultRetryConfig returns standard exponential-backoff settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   DefaultMaxRetries,
		BaseDelay:    DefaultBaseDelay,
		MaxDelay:     DefaultMaxDelay,
		JitterFactor: DefaultJitterFactor,
		IsRetryable:  IsRetryableTransport,
	}
}

// FixedRetryConfig returns a fixed-delay profile: attempts total calls with
// delay between them. Used by the decision client, which bounds its retries
// tightly so a participant is never left waiting on a stalled turn.
func FixedRetryConfig(attempts int, delay time.Duration) RetryConfig {
	if attempts < 1 {
		attempts = 1
	}
	return RetryConfig{
		MaxRetries:  attempts - 1,
		BaseDelay:   delay,
		MaxDelay:    delay,
		Fixed:       true,
		IsRetryable: IsRetryableTransport,
	}
}

// IsRetryableTransport classifies transport-level failures worth retrying.
func IsRetryableTransport(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsRetryable(err) {
		return true
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		// Typed but non-transient: do not retry.
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Retry executes fn until success, a non-retryable error, or exhaustion.
// Returns the last error if all attempts fail.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if !cfg.IsRetryable(lastErr) || attempt == cfg.MaxRetries {
			return lastErr
		}

		delay := cfg.delayFor(attempt)
		slog.Debug("retrying after error", "attempt", attempt+1, "max", cfg.MaxRetries, "delay", delay, "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// delayFor calculates the wait before the next attempt.
func (c RetryConfig) delayFor(attempt int) time.Duration {
	if c.Fixed {
		return c.BaseDelay
	}
	delay := c.BaseDelay << min(attempt, 6) // cap shift to prevent overflow
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	jitter := float64(delay) * c.JitterFactor * (rand.Float64() - 0.5)
	return time.Duration(float64(delay) + jitter)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.JitterFactor <= 0 && !c.Fixed {
		c.JitterFactor = DefaultJitterFactor
	}
	if c.IsRetryable == nil {
		c.IsRetryable = IsRetryableTransport
	}
	return c
}
