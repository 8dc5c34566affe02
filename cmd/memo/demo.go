package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/oriys/memo/internal/cache"
	"github.com/oriys/memo/internal/ident"
	"github.com/oriys/memo/internal/output"
	"github.com/spf13/cobra"
)

const (
	reportCacheKey = "someCacheKey"
	reportCacheTTL = 180
)

// report is a component that publishes into whatever store it is handed.
type report struct {
	id    ident.ID
	cache cache.Cache
}

func newReport(id ident.ID, c cache.Cache) *report {
	return &report{id: id, cache: c}
}

// Publish caches the report body for reportCacheTTL seconds.
func (r *report) Publish() {
	r.cache.Add(reportCacheKey, fmt.Sprintf("data of cache (report %s)", r.id), reportCacheTTL)
}

func demoCmd() *cobra.Command {
	var reportID string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through cache behaviour on a simulated clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ident.Parse(reportID)
			if err != nil {
				return err
			}
			p := output.NewPrinter(output.ParseFormat(outputFormat))
			p.SetWriter(cmd.OutOrStdout())
			return p.PrintSteps(runDemo(id))
		},
	}

	cmd.Flags().StringVar(&reportID, "report-id", "1", "Positive id of the demo report")
	return cmd
}

type demoRecorder struct {
	clock *cache.ManualClock
	start time.Time
	rows  []output.StepRow
}

func (d *demoRecorder) record(op, key, result string, ok bool) {
	d.rows = append(d.rows, output.StepRow{
		Step:      len(d.rows) + 1,
		Operation: op,
		Key:       key,
		Result:    result,
		OK:        ok,
		ClockS:    int64(d.clock.Now().Sub(d.start) / time.Second),
	})
}

func (d *demoRecorder) get(s *cache.Store, key string) {
	v, err := s.Get(key)
	switch {
	case errors.Is(err, cache.ErrNotFound):
		d.record("get", key, "not found", false)
	case err != nil:
		d.record("get", key, err.Error(), false)
	default:
		d.record("get", key, fmt.Sprint(v), true)
	}
}

func (d *demoRecorder) exists(s *cache.Store, key string) {
	ok := s.Exists(key)
	d.record("exists", key, fmt.Sprint(ok), ok)
}

func (d *demoRecorder) getOrLoad(s *cache.Store, key string, v any) {
	got, err := s.GetOrLoad(key, 60, func() (any, error) { return v, nil })
	if err != nil {
		d.record("get-or-load", key, err.Error(), false)
		return
	}
	d.record("get-or-load", key, fmt.Sprintf("%v (producer offered %v)", got, v), true)
}

// runDemo replays the documented cache scenarios against a manual clock.
func runDemo(id ident.ID) []output.StepRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := &demoRecorder{clock: cache.NewManualClock(start), start: start}
	s := cache.New(cache.WithClock(d.clock))

	newReport(id, s).Publish()
	d.record("publish", reportCacheKey, fmt.Sprintf("ttl %ds", reportCacheTTL), true)
	d.exists(s, reportCacheKey)
	d.clock.Advance(reportCacheTTL * time.Second)
	d.exists(s, reportCacheKey)

	s.Add("x", 42, 1)
	d.record("add", "x", "ttl 1s", true)
	d.get(s, "x")
	d.clock.Advance(time.Second)
	d.get(s, "x")

	d.getOrLoad(s, "y", 7)
	d.exists(s, "y")
	d.getOrLoad(s, "y", 99)

	d.record("shared", "", sameness(cache.Shared() == cache.Shared(), "same store", "different stores"), cache.Shared() == cache.Shared())
	a, b := cache.New(), cache.New()
	a.Add("k", "v", 60)
	independent := a != b && !b.Exists("k")
	d.record("new", "", sameness(independent, "independent stores", "shared state"), independent)

	return d.rows
}

func sameness(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
