package retry

import (
	"context"
	"fmt"
	"time"
)

// BackoffFunc returns the delay to wait before the given attempt (1-based,
// called after attempt N fails and before attempt N+1 starts).
type BackoffFunc func(attempt int) time.Duration

// Policy describes how an operation is retried: how many attempts are made,
// how long to wait between them, and which errors are worth retrying at all.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Retryable   func(error) bool // nil means every error is retryable
}

// Fixed returns a backoff that waits the same delay between every attempt.
func Fixed(delay time.Duration) BackoffFunc {
	return func(int) time.Duration {
		return delay
	}
}

// Exponential returns a backoff that doubles the base delay per attempt,
// capped at ceiling.
func Exponential(base, ceiling time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		delay := base << (attempt - 1)
		if delay > ceiling || delay <= 0 {
			return ceiling
		}
		return delay
	}
}

// Do runs fn until it succeeds, the policy is exhausted, a non-retryable
// error occurs, or the context is cancelled. The last error is returned
// wrapped with the attempt count.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		if attempt < p.MaxAttempts && p.Backoff != nil {
			select {
			case <-time.After(p.Backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = fn(ctx)
		return innerErr
	})
	return result, err
}

// WithFallback runs primary under the policy and, if it still fails,
// substitutes the fallback's result. The fallback is expected to be
// deterministic and infallible; its result is returned as-is.
func WithFallback[T any](ctx context.Context, p Policy, primary func(ctx context.Context) (T, error), fallback func() T) T {
	result, err := DoValue(ctx, p, primary)
	if err != nil {
		return fallback()
	}
	return result
}
