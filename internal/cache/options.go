package cache

import "time"

// Option configures a Store built by New.
type Option func(*Store)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDefaultTTL sets the TTL used by AddDefault. Values <= 0 are ignored.
func WithDefaultTTL(seconds int) Option {
	return func(s *Store) {
		if seconds > 0 {
			s.defaultTTL = seconds
		}
	}
}

// WithObserver installs o as the event observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLoadCoalescing makes concurrent GetOrLoad misses on one key share a
// single producer call.
func WithLoadCoalescing() Option {
	return func(s *Store) {
		s.coalesce = true
	}
}

// WithSweepInterval starts a goroutine that drops expired entries every d.
// The store must then be closed with Close.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweepEvery = d
	}
}
