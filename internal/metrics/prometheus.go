package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets for producer duration (in milliseconds)
var defaultBuckets = []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// PrometheusMetrics wraps prometheus collectors for a memo process. It
// satisfies cache.Observer.
type PrometheusMetrics struct {
	registry  *prometheus.Registry
	namespace string

	// Counters
	hitsTotal        prometheus.Counter
	missesTotal      prometheus.Counter
	expirationsTotal prometheus.Counter
	loadsTotal       *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec

	// Histograms
	loadDuration prometheus.Histogram

	// Gauges
	uptime prometheus.GaugeFunc
}

// NewPrometheus builds the collectors on a private registry together with
// the Go and process collectors.
func NewPrometheus(namespace string, buckets []float64) *PrometheusMetrics {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	started := time.Now()

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	pm := &PrometheusMetrics{
		registry:  registry,
		namespace: namespace,

		hitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Reads that found a live entry",
			},
		),

		missesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Reads that found no live entry",
			},
		),

		expirationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "expirations_total",
				Help:      "Expired entries removed from the store",
			},
		),

		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "loads_total",
				Help:      "Producer calls made on a miss",
			},
			[]string{"status"},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests served",
			},
			[]string{"route", "code"},
		),

		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "load_duration_milliseconds",
				Help:      "Producer duration in milliseconds",
				Buckets:   buckets,
			},
		),
	}

	pm.uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since the metrics were created",
		},
		func() float64 {
			return time.Since(started).Seconds()
		},
	)

	registry.MustRegister(
		pm.hitsTotal,
		pm.missesTotal,
		pm.expirationsTotal,
		pm.loadsTotal,
		pm.httpRequests,
		pm.loadDuration,
		pm.uptime,
	)
	return pm
}

// TrackEntries exports fn as the resident entry gauge. Call it once per
// store.
func (pm *PrometheusMetrics) TrackEntries(fn func() int) {
	pm.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: pm.namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Resident entries, expired but unread ones included",
		},
		func() float64 { return float64(fn()) },
	))
}

func (pm *PrometheusMetrics) Hit(string)    { pm.hitsTotal.Inc() }
func (pm *PrometheusMetrics) Miss(string)   { pm.missesTotal.Inc() }
func (pm *PrometheusMetrics) Expire(string) { pm.expirationsTotal.Inc() }

func (pm *PrometheusMetrics) Load(_ string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	pm.loadsTotal.WithLabelValues(status).Inc()
	pm.loadDuration.Observe(float64(d.Microseconds()) / 1000)
}

// RecordHTTPRequest counts one served request.
func (pm *PrometheusMetrics) RecordHTTPRequest(route string, code int) {
	pm.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry exposes the underlying registry.
func (pm *PrometheusMetrics) Registry() *prometheus.Registry {
	return pm.registry
}

// Handler returns the Prometheus exposition handler for the registry.
func (pm *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{})
}
