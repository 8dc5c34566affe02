package cache

import (
	"context"
	"fmt"
)

// GetAs is Get with the value asserted to T.
func GetAs[T any](s *Store, key string) (T, error) {
	var zero T
	v, err := s.Get(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T, want %T", ErrTypeMismatch, key, v, zero)
	}
	return t, nil
}

// Load is GetOrLoadContext for a producer of T.
func Load[T any](ctx context.Context, s *Store, key string, ttlSeconds int, producer func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := s.GetOrLoadContext(ctx, key, ttlSeconds, func(ctx context.Context) (any, error) {
		return producer(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T, want %T", ErrTypeMismatch, key, v, zero)
	}
	return t, nil
}
