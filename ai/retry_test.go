package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRetryPolicyDo(t *testing.T) {
	ctx := context.Background()

	t.Run("success on first attempt", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries retryable errors", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(ctx, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return ErrRateLimited
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts and returns last error", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(ctx, func(ctx context.Context) error {
			calls++
			return fmt.Errorf("embed: %w", ErrTimeout)
		})
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, 3, calls)
	})

	t.Run("auth errors are not retried", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(ctx, func(ctx context.Context) error {
			calls++
			return fmt.Errorf("embed: %w", ErrAuth)
		})
		assert.ErrorIs(t, err, ErrAuth)
		assert.Equal(t, 1, calls)
	})

	t.Run("non-retryable errors are surfaced immediately", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := fastPolicy().Do(ctx, func(ctx context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := fastPolicy().Do(cancelled, func(ctx context.Context) error {
			t.Fatal("operation should not run")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("attempt timeout bounds each attempt", func(t *testing.T) {
		policy := RetryPolicy{
			MaxAttempts:    2,
			BaseDelay:      time.Millisecond,
			AttemptTimeout: 10 * time.Millisecond,
		}
		calls := 0
		err := policy.Do(ctx, func(attemptCtx context.Context) error {
			calls++
			<-attemptCtx.Done()
			return attemptCtx.Err()
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		policy := RetryPolicy{}
		calls := 0
		err := policy.Do(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrAuth))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("unknown")))
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrRateLimited)))
}
