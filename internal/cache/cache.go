// Package cache implements a process-local key-value store with per-entry
// time-to-live and load-on-miss reads. Expiration is lazy: an entry is only
// checked, and dropped if stale, when something reads it.
package cache

import (
	"context"
	"errors"
	"fmt"
)

// DefaultTTLSeconds is the lifetime AddDefault gives an entry unless the
// store was built with WithDefaultTTL.
const DefaultTTLSeconds = 3600

var (
	// ErrNotFound is returned when a key was never set or its entry expired.
	ErrNotFound = errors.New("cache: key not present or expired")

	// ErrTypeMismatch is returned by the typed helpers when the resident
	// value is not of the requested type.
	ErrTypeMismatch = errors.New("cache: value has unexpected type")
)

// Cache is the method set of Store. Consumers that only need to read through
// a store should depend on this instead of *Store.
type Cache interface {
	// Add stores value under key for ttlSeconds, replacing any previous entry.
	Add(key string, value any, ttlSeconds int)

	// Get returns the value for key, or ErrNotFound.
	Get(key string) (any, error)

	// Pop returns the value for key and removes it, or ErrNotFound.
	Pop(key string) (any, error)

	// Exists reports whether key holds an unexpired entry.
	Exists(key string) bool

	// Clear drops every entry.
	Clear()

	// GetOrLoad returns the cached value for key, running producer and
	// caching its result on a miss.
	GetOrLoad(key string, ttlSeconds int, producer func() (any, error)) (any, error)

	// GetOrLoadContext is GetOrLoad with a context handed to the producer.
	GetOrLoadContext(ctx context.Context, key string, ttlSeconds int, producer func(context.Context) (any, error)) (any, error)

	// Len returns the number of resident entries, expired ones included.
	Len() int
}

var _ Cache = (*Store)(nil)

func notFound(key string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, key)
}
