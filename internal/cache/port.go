package cache

// Store is the port for the per-identifier record cache.
// Implementations must be safe for concurrent use and must never hand out
// records that a caller could mutate in place.
type Store interface {
	// Get returns the entry for key and true, or false when it is absent
	// or has aged out of the store.
	Get(key string) (Entry, bool)

	// Put stores entry under key, replacing any previous entry.
	Put(key string, entry Entry)

	// Len reports how many entries are held.
	Len() int
}
