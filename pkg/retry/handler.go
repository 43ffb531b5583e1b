package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/pinned-repos/pkg/failure"
	"github.com/rohmanhakim/pinned-repos/pkg/timeutil"
)

// Retry executes fn up to MaxAttempts times, applying exponential backoff
// with jitter between attempts. Only retryable errors trigger another attempt.
// A done context stops the loop between attempts.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func() (T, failure.ClassifiedError),
) Result[T] {
	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: true,
			},
		}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	var lastErr failure.ClassifiedError
	attempt := 0
	for attempt < retryParam.MaxAttempts {
		attempt++

		value, err := fn()
		if err == nil {
			return Result[T]{value: value, attempts: attempt}
		}
		lastErr = err

		if !failure.IsRetryable(err) {
			return Result[T]{err: err, attempts: attempt}
		}
		if attempt == retryParam.MaxAttempts {
			break
		}

		delay := timeutil.MaxDuration([]time.Duration{
			retryParam.BaseDelay,
			timeutil.ExponentialBackoffDelay(attempt, retryParam.Jitter, rng, retryParam.BackoffParam),
		})
		if sleepErr := timeutil.SleepContext(ctx, delay); sleepErr != nil {
			return Result[T]{
				err: &RetryError{
					Message:   fmt.Sprintf("stopped after %d attempts: %v", attempt, sleepErr),
					Cause:     ErrContextDone,
					Retryable: false,
					Last:      lastErr,
				},
				attempts: attempt,
			}
		}
	}

	// a single configured attempt is not a retry; surface the original error
	if retryParam.MaxAttempts == 1 {
		return Result[T]{err: lastErr, attempts: attempt}
	}

	return Result[T]{
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: true,
			Last:      lastErr,
		},
		attempts: attempt,
	}
}
