package limiter

import "time"

// timing-related data used to track when an upstream host may be fetched again
type hostTiming struct {
	lastFetchAt  time.Time
	backoffDelay time.Duration
	backoffCount int
}
