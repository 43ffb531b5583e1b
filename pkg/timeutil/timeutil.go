package timeutil

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// MaxDuration returns the largest value of durations, or zero when empty.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// ComputeJitter returns a pseudo-random duration in [0, max).
// rng is not safe for concurrent use; callers serialize access.
func ComputeJitter(max time.Duration, rng *rand.Rand) time.Duration {
	if max <= 0 || rng == nil {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes initial * multiplier^(count-1), capped at
// the configured maximum, plus jitter.
// count <= 0 yields no delay.
func ExponentialBackoffDelay(
	backoffCount int,
	jitter time.Duration,
	rng *rand.Rand,
	backoffParam BackoffParam,
) time.Duration {
	if backoffCount <= 0 {
		return 0
	}

	exponent := float64(backoffCount - 1)
	delay := float64(backoffParam.InitialDuration()) * math.Pow(backoffParam.Multiplier(), exponent)
	if maxDelay := float64(backoffParam.MaxDuration()); maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}

	return time.Duration(delay) + ComputeJitter(jitter, rng)
}

// SleepContext blocks for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
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
