package cache

import (
	"time"

	"github.com/rohmanhakim/pinned-repos/internal/project"
)

// Entry is the cached outcome of one successful extraction.
type Entry struct {
	// Records in document order. An empty slice is a valid cached value.
	Records  []project.Record
	StoredAt time.Time
}

func NewEntry(records []project.Record, storedAt time.Time) Entry {
	return Entry{
		Records:  project.CloneAll(records),
		StoredAt: storedAt,
	}
}

// Age is how long ago the entry was stored, as seen at now.
func (e Entry) Age(now time.Time) time.Duration {
	age := now.Sub(e.StoredAt)
	if age < 0 {
		return 0
	}
	return age
}

func (e Entry) clone() Entry {
	return Entry{
		Records:  project.CloneAll(e.Records),
		StoredAt: e.StoredAt,
	}
}
