package resolver

import (
	"time"

	"github.com/rohmanhakim/pinned-repos/internal/project"
)

// Status tells how a Result was produced. It is reported to clients as
// the X-Cache header.
type Status string

const (
	StatusHit     Status = "hit"
	StatusStale   Status = "stale"
	StatusMiss    Status = "miss"
	StatusRefresh Status = "refresh"
)

type Result struct {
	Records []project.Record
	Status  Status
	// Age of the served entry; zero for freshly loaded records.
	Age time.Duration
}

// Policy controls cache freshness and background refresh.
type Policy struct {
	// TTL is how long an entry is served without contacting upstream.
	TTL time.Duration
	// MaxStale bounds how old an entry may be and still be served while
	// it is refreshed. Zero means no bound.
	MaxStale time.Duration
	// StaleWhileRevalidate serves expired entries and refreshes them in
	// the background. When false, an expired entry is a miss.
	StaleWhileRevalidate bool
	// RefreshConcurrency caps concurrent background refreshes.
	RefreshConcurrency int
	// RefreshTimeout bounds one background refresh.
	RefreshTimeout time.Duration
}
