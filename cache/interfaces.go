// Package cache provides an in-memory TTL cache for API results with a fixed
// entry bound. Expired entries stay readable as stale values until they are
// evicted or deleted.
package cache

import "time"

// Entry represents a cached value with its expiry.
type Entry struct {
	Value  any
	Expiry time.Time
}

// Valid reports whether the entry has not yet expired at now.
func (e Entry) Valid(now time.Time) bool {
	return now.Before(e.Expiry)
}

// Reader defines the interface for reading cache entries
type Reader interface {
	// Read returns the entry for key and whether it is still valid.
	// An expired entry is returned with false; a missing one as nil, false.
	Read(key string) (*Entry, bool)
}

// Writer defines the interface for writing cache entries
type Writer interface {
	Write(key string, value any)
}

// Invalidator removes entries after mutations.
type Invalidator interface {
	Delete(key string)
	DeletePrefix(prefix string) int
}

// Cache is the main interface that combines all cache operations
type Cache interface {
	Reader
	Writer
	Invalidator
	Len() int
}
