package cache

import (
	"context"
	"sync"
)

var (
	sharedOnce  sync.Once
	sharedStore *Store
)

// Shared returns the process-wide store. The first call creates it; every
// later call returns the same instance. It lives until the process exits.
//
// Prefer New and pass the store explicitly; Shared is for code that really
// needs one cache per process.
func Shared() *Store {
	sharedOnce.Do(func() {
		sharedStore = New()
	})
	return sharedStore
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the store attached by NewContext, or Shared when
// there is none.
func FromContext(ctx context.Context) *Store {
	if s, ok := ctx.Value(ctxKey{}).(*Store); ok && s != nil {
		return s
	}
	return Shared()
}
