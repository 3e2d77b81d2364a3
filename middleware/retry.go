package middleware

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-db-middleware/dbx"
)

// RetryConfig controls the retry layer. The zero value means no retries and
// no delay; DefaultRetryConfig returns the usual starting point.
type RetryConfig struct {
	// Retries is the number of additional attempts after the first.
	// An operation wrapped with Retries = N is invoked at most N+1 times.
	Retries int

	// Delay is the fixed wait between attempts. There is no backoff growth,
	// and no wait after the final attempt.
	Delay time.Duration

	// OnRetry, when set, runs before each delay with the 1-based number of
	// the attempt that just failed, its error, and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns 3 retries with a 1 second delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Retries: 3, Delay: time.Second}
}

// Validate checks whether the configuration values are valid.
func (c RetryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Retries, validation.Min(0)),
		validation.Field(&c.Delay, validation.Min(time.Duration(0))),
	)
}

// Retry re-invokes the wrapped operation after a delay on failure, up to
// cfg.Retries+1 total attempts. Every failure is considered retryable: the
// policy deliberately does not distinguish transient from permanent errors.
// When all attempts fail the last error surfaces wrapped in
// dbx.RetryExhaustedError with the attempt count preserved.
//
// The attempt counter is local to one invocation; concurrent calls through
// the same middleware value never share retry state. The delay suspends only
// the calling goroutine and honors context cancellation.
func Retry[T any](cfg RetryConfig) dbx.Middleware[T] {
	attempts := cfg.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	return func(next dbx.Operation[T]) dbx.Operation[T] {
		return func(ctx context.Context, conn dbx.Connection, args ...any) (T, error) {
			var zero T
			var lastErr error

			for attempt := 1; attempt <= attempts; attempt++ {
				result, err := next(ctx, conn, args...)
				if err == nil {
					return result, nil
				}
				lastErr = err

				if attempt == attempts {
					break
				}
				if cfg.OnRetry != nil {
					cfg.OnRetry(attempt, err, cfg.Delay)
				}
				if err := sleep(ctx, cfg.Delay); err != nil {
					return zero, dbx.WrapOperation(err)
				}
			}

			return zero, &dbx.RetryExhaustedError{Attempts: attempts, Err: lastErr}
		}
	}
}

// sleep blocks the calling goroutine for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
