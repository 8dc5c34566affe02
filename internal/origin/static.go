package origin

import (
	"context"
	"sync"
)

// Static serves values from an in-memory map. It backs demos and tests.
type Static struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStatic copies values into a new Static origin.
func NewStatic(values map[string]string) *Static {
	s := &Static{values: make(map[string][]byte, len(values))}
	for k, v := range values {
		s.values[k] = []byte(v)
	}
	return s
}

func (s *Static) Name() string { return "static" }

func (s *Static) Fetch(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, notFound(key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put sets a value at the origin.
func (s *Static) Put(key string, value []byte) {
	s.mu.Lock()
	s.values[key] = append([]byte(nil), value...)
	s.mu.Unlock()
}

func (s *Static) Ping(context.Context) error { return nil }
func (s *Static) Close() error               { return nil }
