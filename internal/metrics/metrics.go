// Package metrics records cache activity, both as Prometheus collectors and
// as plain counters served as JSON.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Stats collects cache counters in memory. It satisfies cache.Observer.
type Stats struct {
	Hits        atomic.Int64
	Misses      atomic.Int64
	Expirations atomic.Int64
	Loads       atomic.Int64
	LoadErrors  atomic.Int64

	// Producer latency (in microseconds)
	TotalLoadUs atomic.Int64
	MaxLoadUs   atomic.Int64

	startTime time.Time
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Entries       int     `json:"entries" yaml:"entries"`
	Hits          int64   `json:"hits" yaml:"hits"`
	Misses        int64   `json:"misses" yaml:"misses"`
	HitRatio      float64 `json:"hit_ratio" yaml:"hit_ratio"`
	Expirations   int64   `json:"expirations" yaml:"expirations"`
	Loads         int64   `json:"loads" yaml:"loads"`
	LoadErrors    int64   `json:"load_errors" yaml:"load_errors"`
	AvgLoadMs     float64 `json:"avg_load_ms" yaml:"avg_load_ms"`
	MaxLoadMs     float64 `json:"max_load_ms" yaml:"max_load_ms"`
	UptimeSeconds int64   `json:"uptime_seconds" yaml:"uptime_seconds"`
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) Hit(string)    { s.Hits.Add(1) }
func (s *Stats) Miss(string)   { s.Misses.Add(1) }
func (s *Stats) Expire(string) { s.Expirations.Add(1) }

func (s *Stats) Load(_ string, d time.Duration, err error) {
	s.Loads.Add(1)
	if err != nil {
		s.LoadErrors.Add(1)
	}
	us := d.Microseconds()
	s.TotalLoadUs.Add(us)
	updateMax(&s.MaxLoadUs, us)
}

// Snapshot copies the counters. entries is reported as is.
func (s *Stats) Snapshot(entries int) Snapshot {
	hits := s.Hits.Load()
	misses := s.Misses.Load()
	loads := s.Loads.Load()

	snap := Snapshot{
		Entries:       entries,
		Hits:          hits,
		Misses:        misses,
		Expirations:   s.Expirations.Load(),
		Loads:         loads,
		LoadErrors:    s.LoadErrors.Load(),
		MaxLoadMs:     float64(s.MaxLoadUs.Load()) / 1000,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	if total := hits + misses; total > 0 {
		snap.HitRatio = float64(hits) / float64(total)
	}
	if loads > 0 {
		snap.AvgLoadMs = float64(s.TotalLoadUs.Load()) / float64(loads) / 1000
	}
	return snap
}

// JSONHandler serves Snapshot(entries()) as JSON.
func (s *Stats) JSONHandler(entries func() int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.Snapshot(entries()))
	})
}

func updateMax(target *atomic.Int64, value int64) {
	for {
		current := target.Load()
		if value <= current {
			return
		}
		if target.CompareAndSwap(current, value) {
			return
		}
	}
}
