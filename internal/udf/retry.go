package udf

import (
	"context"
	"time"

	"github.com/hpn/hpn-chatgpt-udf/internal/adapter"
)

// RetryPolicy is a fixed-delay retry policy: no backoff, no jitter.
type RetryPolicy struct {
	// Attempts is the maximum number of calls per row, including the first.
	Attempts int

	// Delay is the pause between consecutive attempts.
	Delay time.Duration
}

// DefaultRetryPolicy returns six attempts twenty seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 6, Delay: 20 * time.Second}
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext is the production SleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryCall runs fn until it succeeds, returns a non-retryable error, or the
// policy is exhausted. It reports the number of calls made. When ctx ends, the
// context error is returned in place of the last call error.
func retryCall[T any](
	ctx context.Context,
	policy RetryPolicy,
	sleep SleepFunc,
	onRetry func(attempt int, err error),
	fn func(context.Context) (T, error),
) (T, int, error) {
	var zero T

	maxAttempts := policy.Attempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, attempt, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, attempt, ctxErr
		}
		if attempt >= maxAttempts || !adapter.IsRetryableError(err) {
			return zero, attempt, err
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}
		if err := sleep(ctx, policy.Delay); err != nil {
			return zero, attempt, err
		}
	}
}
