package cache

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/oriys/memo/internal/observability"
	"golang.org/x/sync/singleflight"
)

// Store is a concurrency-safe TTL cache. The zero value is not usable; build
// one with New or obtain the process-wide instance with Shared.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	clock      Clock
	defaultTTL int
	observer   Observer

	coalesce bool
	group    singleflight.Group

	sweepEvery time.Duration
	stop       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// entry is never mutated after it is stored; Add swaps in a new one.
type entry struct {
	value     any
	expiresAt time.Time
}

func (e *entry) alive(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// New returns an empty, independent store. Nothing else holds a reference
// to it.
func New(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]*entry),
		clock:      systemClock{},
		defaultTTL: DefaultTTLSeconds,
		observer:   NoopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sweepEvery > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.sweepLoop()
	}
	return s
}

// Add stores value under key until ttlSeconds from now. Any previous entry
// for key is discarded whether or not it had expired. A ttlSeconds of zero
// or less stores an entry that is already expired.
func (s *Store) Add(key string, value any, ttlSeconds int) {
	e := &entry{
		value:     value,
		expiresAt: s.clock.Now().Add(ttlDuration(ttlSeconds)),
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// maxTTLSeconds is the largest TTL a time.Duration can hold.
const maxTTLSeconds = int64(math.MaxInt64 / int64(time.Second))

// ttlDuration converts seconds to a Duration, saturating instead of
// overflowing.
func ttlDuration(ttlSeconds int) time.Duration {
	if int64(ttlSeconds) > maxTTLSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ttlSeconds) * time.Second
}

// AddDefault is Add with the store's default TTL.
func (s *Store) AddDefault(key string, value any) {
	s.Add(key, value, s.defaultTTL)
}

// DefaultTTL returns the TTL in seconds used by AddDefault.
func (s *Store) DefaultTTL() int {
	return s.defaultTTL
}

// Exists reports whether key holds an unexpired entry. An expired entry is
// removed before Exists returns false.
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	e, expired := s.liveLocked(key)
	s.mu.Unlock()

	if expired {
		s.observer.Expire(key)
	}
	return e != nil
}

// Get returns the value stored under key. It fails with ErrNotFound when the
// key was never set or has expired.
func (s *Store) Get(key string) (any, error) {
	s.mu.Lock()
	e, expired := s.liveLocked(key)
	s.mu.Unlock()

	return s.observeRead(key, e, expired)
}

// Pop returns the value stored under key and removes the entry. It fails
// with ErrNotFound under the same conditions as Get.
func (s *Store) Pop(key string) (any, error) {
	s.mu.Lock()
	e, expired := s.liveLocked(key)
	if e != nil {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	return s.observeRead(key, e, expired)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
}

// Len returns the number of resident entries. Expired entries that nobody
// has read yet are still counted.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns the resident keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// GetOrLoad returns the value cached under key. On a miss it calls producer
// once, caches the result for ttlSeconds and returns it. A producer error is
// returned as is and nothing is cached.
//
// Concurrent misses on the same key each run their producer and the last
// Add wins, unless the store was built with WithLoadCoalescing.
func (s *Store) GetOrLoad(key string, ttlSeconds int, producer func() (any, error)) (any, error) {
	return s.GetOrLoadContext(context.Background(), key, ttlSeconds, func(context.Context) (any, error) {
		return producer()
	})
}

// GetOrLoadContext is GetOrLoad with ctx passed through to producer. The
// lookup is recorded as a span when tracing is enabled.
func (s *Store) GetOrLoadContext(ctx context.Context, key string, ttlSeconds int, producer func(context.Context) (any, error)) (any, error) {
	ctx, span := observability.StartSpan(ctx, "cache.GetOrLoad", observability.AttrCacheKey.String(key))
	defer span.End()

	if v, err := s.Get(key); err == nil {
		span.SetAttributes(observability.AttrCacheHit.Bool(true))
		return v, nil
	}
	span.SetAttributes(observability.AttrCacheHit.Bool(false))

	v, err := s.load(ctx, key, ttlSeconds, producer)
	if err != nil {
		observability.SetSpanError(span, err)
		return nil, err
	}
	return v, nil
}

func (s *Store) load(ctx context.Context, key string, ttlSeconds int, producer func(context.Context) (any, error)) (any, error) {
	if !s.coalesce {
		return s.produce(ctx, key, ttlSeconds, producer)
	}

	// The leader's ctx is the one the producer sees.
	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		e, _ := s.liveLocked(key)
		s.mu.Unlock()
		if e != nil {
			return e.value, nil
		}
		return s.produce(ctx, key, ttlSeconds, producer)
	})
	return v, err
}

func (s *Store) produce(ctx context.Context, key string, ttlSeconds int, producer func(context.Context) (any, error)) (any, error) {
	start := time.Now()
	v, err := producer(ctx)
	s.observer.Load(key, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	s.Add(key, v, ttlSeconds)
	return v, nil
}

// liveLocked returns the entry for key if it has not expired. An expired
// entry is deleted and reported through expired. s.mu must be held.
func (s *Store) liveLocked(key string) (e *entry, expired bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.alive(s.clock.Now()) {
		return e, false
	}
	delete(s.entries, key)
	return nil, true
}

func (s *Store) observeRead(key string, e *entry, expired bool) (any, error) {
	if expired {
		s.observer.Expire(key)
	}
	if e == nil {
		s.observer.Miss(key)
		return nil, notFound(key)
	}
	s.observer.Hit(key)
	return e.value, nil
}
