package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUStore is a bounded Store. Once capacity is reached the least recently
// used entry is evicted. With a positive maxAge, entries older than maxAge
// are dropped as well.
type LRUStore struct {
	lru *expirable.LRU[string, Entry]
}

// NewLRUStore creates a store holding at most capacity entries. A zero
// maxAge keeps entries until they are evicted.
func NewLRUStore(capacity int, maxAge time.Duration) *LRUStore {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUStore{
		lru: expirable.NewLRU[string, Entry](capacity, nil, maxAge),
	}
}

func (s *LRUStore) Get(key string) (Entry, bool) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return Entry{}, false
	}
	return entry.clone(), true
}

func (s *LRUStore) Put(key string, entry Entry) {
	s.lru.Add(key, entry.clone())
}

func (s *LRUStore) Len() int {
	return s.lru.Len()
}

