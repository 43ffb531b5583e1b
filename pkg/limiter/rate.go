package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/pinned-repos/pkg/timeutil"
)

// RateLimiter
// Keeps upstream fetches polite when the platform starts answering 429.
// Responsibilities:
// - Bookkeep each hostname's last fetch timestamp
// - Grow a per-host backoff on throttling, reset it on success
// - Compute how long a caller has to wait before hitting the host again
type RateLimiter interface {
	Backoff(host string, atLeast time.Duration)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	ResolveDelay(host string) time.Duration
	Wait(ctx context.Context, host string) error
}

type ConcurrentRateLimiter struct {
	mu           sync.RWMutex
	rngMu        sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	hostTimings  map[string]hostTiming
	rng          *rand.Rand
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		hostTimings:  make(map[string]hostTiming),
		backoffParam: timeutil.NewBackoffParam(time.Second, 2.0, 30*time.Second),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetBackoffParam(param timeutil.BackoffParam) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backoffParam = param
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// Backoff grows the backoff for host. atLeast carries a server-provided
// Retry-After; the resulting delay never goes below it, up to the backoff
// max duration.
func (r *ConcurrentRateLimiter) Backoff(host string, atLeast time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if maxDelay := r.backoffParam.MaxDuration(); maxDelay > 0 && atLeast > maxDelay {
		atLeast = maxDelay
	}

	timing := r.hostTimings[host]
	timing.backoffCount++
	timing.backoffDelay = timeutil.MaxDuration([]time.Duration{
		timeutil.ExponentialBackoffDelay(timing.backoffCount, 0, nil, r.backoffParam) + r.computeJitter(r.jitter),
		atLeast,
	})
	if timing.lastFetchAt.IsZero() {
		timing.lastFetchAt = time.Now()
	}
	r.hostTimings[host] = timing
}

// ResetBackoff resets the backoff counter for the given host.
// Called after a successful request to clear backoff state.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timing, exists := r.hostTimings[host]; exists {
		timing.backoffCount = 0
		timing.backoffDelay = 0
		r.hostTimings[host] = timing
	}
}

// Mark the given host lastFetch to time.Now()
func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.lastFetchAt = time.Now()
	r.hostTimings[host] = timing
}

// computeJitter guards the shared rng; it is safe to call with r.mu held.
func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	return timeutil.ComputeJitter(max, r.rng)
}

// ResolveDelay returns how long to wait before host may be fetched again.
// FinalDelay = max(BaseDelay, BackoffDelay) + Jitter, minus time already elapsed.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	r.mu.RLock()
	timing, exists := r.hostTimings[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	// return no delay if the host not registered yet
	if !exists {
		return 0
	}

	finalDelay := timeutil.MaxDuration([]time.Duration{base, timing.backoffDelay})
	if finalDelay == 0 {
		return 0
	}
	finalDelay += r.computeJitter(jitter)

	elapsed := time.Since(timing.lastFetchAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// Wait blocks until host may be fetched or ctx is done.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, host string) error {
	return timeutil.SleepContext(ctx, r.ResolveDelay(host))
}
