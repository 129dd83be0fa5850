package ai

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy is an explicit, testable retry configuration applied at call
// sites. It lives in the function signature rather than hiding behind a
// decorator or global state.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the backoff wait.
	MaxDelay time.Duration
	// AttemptTimeout bounds each individual attempt. Zero means no bound.
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy returns the policy used for embedding-provider calls:
// 3 attempts, exponential backoff from one second capped at ten, and a hard
// 30s timeout per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		MaxDelay:       10 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

// Do runs op under the policy. Non-retryable errors (see IsRetryable) are
// surfaced immediately; retryable ones are retried with capped exponential
// backoff until attempts are exhausted, then the last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = p.runAttempt(ctx, op)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		slog.Debug("retryable failure, backing off",
			"attempt", attempt, "maxAttempts", attempts, "delay", delay, "err", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return lastErr
}

func (p RetryPolicy) runAttempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return op(attemptCtx)
}
