package tool

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior for a tool.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialBackoff is the starting backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each attempt.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64

	// Retryable optionally restricts which errors are retried.
	// Nil retries every error except context cancellation and Permanent errors.
	Retryable func(error) bool
}

// DefaultRetry is the standard retry configuration for flaky tools.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry disables retries.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so WithRetry returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryError is returned when every attempt failed.
type RetryError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *RetryError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *RetryError) Unwrap() error {
	return e.Err
}

// WithRetry wraps fn so failed calls are retried with exponential backoff.
// Backoff sleeps respect ctx; a cancelled context ends retrying with ctx.Err().
func WithRetry(cfg RetryConfig, fn Func) Func {
	if cfg.MaxAttempts <= 1 {
		return fn
	}
	return func(ctx context.Context, args map[string]any) (string, error) {
		backoff := cfg.InitialBackoff
		var lastErr error

		for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			result, err := fn(ctx, args)
			if err == nil {
				return result, nil
			}
			lastErr = err

			if !cfg.shouldRetry(err) {
				return "", err
			}

			// No sleep after the last attempt
			if attempt < cfg.MaxAttempts-1 {
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(calculateBackoff(backoff, cfg.Jitter)):
				}

				backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
				if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
					backoff = cfg.MaxBackoff
				}
			}
		}

		return "", &RetryError{Attempts: cfg.MaxAttempts, Err: lastErr}
	}
}

func (cfg RetryConfig) shouldRetry(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if cfg.Retryable != nil {
		return cfg.Retryable(err)
	}
	return true
}

// calculateBackoff adds jitter to the backoff duration.
func calculateBackoff(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	// Add random jitter: base * (1 +/- jitter)
	jitterAmount := float64(base) * jitter * (2*rand.Float64() - 1)
	return time.Duration(float64(base) + jitterAmount)
}
