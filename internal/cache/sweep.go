package cache

import "time"

// Sweep removes every expired entry and returns how many it dropped.
func (s *Store) Sweep() int {
	now := s.clock.Now()

	var expired []string
	s.mu.Lock()
	for key, e := range s.entries {
		if !e.alive(now) {
			delete(s.entries, key)
			expired = append(expired, key)
		}
	}
	s.mu.Unlock()

	for _, key := range expired {
		s.observer.Expire(key)
	}
	return len(expired)
}

// Close stops the sweep goroutine, if any. Entries stay readable. Close is
// safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
	})
	return nil
}

func (s *Store) sweepLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
