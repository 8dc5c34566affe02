package cache

import (
	"testing"
	"time"
)

func TestSweep_RemovesExpired(t *testing.T) {
	obs := &countingObserver{}
	s, clock := newTestStore(WithObserver(obs))

	s.Add("short", 1, 1)
	s.Add("long", 2, 60)
	clock.Advance(2 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Fatalf("expected 1 entry swept, got %d", n)
	}
	if s.Len() != 1 || !s.Exists("long") {
		t.Fatalf("expected only long to remain, keys=%v", s.Keys())
	}
	if len(obs.expired) != 1 || obs.expired[0] != "short" {
		t.Fatalf("expected short reported expired, got %v", obs.expired)
	}
}

func TestSweep_BackgroundLoop(t *testing.T) {
	s, clock := newTestStore(WithSweepInterval(5 * time.Millisecond))
	defer s.Close()

	s.Add("ttl", "v", 1)
	clock.Advance(time.Minute)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if s.Len() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected sweeper to remove expired entry without a read, len=%d", s.Len())
}

func TestClose_Idempotent(t *testing.T) {
	s := New(WithSweepInterval(time.Millisecond))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close again: %v", err)
	}

	// Closing only stops the sweeper.
	s.Add("k", "v", 60)
	if !s.Exists("k") {
		t.Fatal("expected store to stay usable after Close")
	}

	plain := New()
	if err := plain.Close(); err != nil {
		t.Fatalf("close without sweeper: %v", err)
	}
}
