package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oriys/memo/internal/cache"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ cache.Observer = (*Stats)(nil)
	_ cache.Observer = (*PrometheusMetrics)(nil)
)

func TestStats_Snapshot(t *testing.T) {
	s := NewStats()

	s.Hit("a")
	s.Hit("a")
	s.Hit("b")
	s.Miss("c")
	s.Expire("d")
	s.Load("c", 2*time.Millisecond, nil)
	s.Load("e", 4*time.Millisecond, errors.New("boom"))

	snap := s.Snapshot(7)
	if snap.Entries != 7 {
		t.Fatalf("expected entries 7, got %d", snap.Entries)
	}
	if snap.Hits != 3 || snap.Misses != 1 || snap.Expirations != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if snap.HitRatio != 0.75 {
		t.Fatalf("expected hit ratio 0.75, got %v", snap.HitRatio)
	}
	if snap.Loads != 2 || snap.LoadErrors != 1 {
		t.Fatalf("expected 2 loads with 1 error, got %d/%d", snap.Loads, snap.LoadErrors)
	}
	if snap.AvgLoadMs != 3 || snap.MaxLoadMs != 4 {
		t.Fatalf("expected avg 3ms max 4ms, got %v/%v", snap.AvgLoadMs, snap.MaxLoadMs)
	}
}

func TestStats_EmptySnapshot(t *testing.T) {
	snap := NewStats().Snapshot(0)
	if snap.HitRatio != 0 || snap.AvgLoadMs != 0 {
		t.Fatalf("expected zero ratios on empty stats, got %+v", snap)
	}
}

func TestStats_WiredToStore(t *testing.T) {
	stats := NewStats()
	s := cache.New(cache.WithObserver(stats))

	s.GetOrLoad("k", 60, func() (any, error) { return 1, nil })
	s.GetOrLoad("k", 60, func() (any, error) { return 2, nil })

	snap := stats.Snapshot(s.Len())
	if snap.Hits != 1 || snap.Misses != 1 || snap.Loads != 1 || snap.Entries != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestStats_JSONHandler(t *testing.T) {
	s := NewStats()
	s.Hit("k")

	rec := httptest.NewRecorder()
	s.JSONHandler(func() int { return 3 }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var snap Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Entries != 3 || snap.Hits != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestPrometheus_Observer(t *testing.T) {
	pm := NewPrometheus("memo", nil)

	pm.Hit("a")
	pm.Miss("b")
	pm.Miss("c")
	pm.Expire("d")
	pm.Load("b", time.Millisecond, nil)
	pm.Load("c", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(pm.hitsTotal); got != 1 {
		t.Fatalf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(pm.missesTotal); got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(pm.expirationsTotal); got != 1 {
		t.Fatalf("expected 1 expiration, got %v", got)
	}
	if got := testutil.ToFloat64(pm.loadsTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected 1 failed load, got %v", got)
	}
	if got := testutil.ToFloat64(pm.loadsTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 successful load, got %v", got)
	}
}

func TestPrometheus_Handler(t *testing.T) {
	pm := NewPrometheus("memo", nil)
	s := cache.New(cache.WithObserver(pm))
	pm.TrackEntries(s.Len)

	s.Add("k", "v", 60)
	s.Get("k")
	pm.RecordHTTPRequest("/v1/values/{key}", http.StatusOK)

	rec := httptest.NewRecorder()
	pm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"memo_cache_hits_total 1",
		"memo_cache_entries 1",
		`memo_http_requests_total{code="200",route="/v1/values/{key}"} 1`,
		"memo_uptime_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected exposition to contain %q", want)
		}
	}
}
