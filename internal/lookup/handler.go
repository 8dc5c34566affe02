// Package lookup serves cached origin values over HTTP.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/oriys/memo/internal/cache"
	"github.com/oriys/memo/internal/logging"
	"github.com/oriys/memo/internal/metrics"
	"github.com/oriys/memo/internal/observability"
	"github.com/oriys/memo/internal/origin"
	"go.opentelemetry.io/otel/trace"
)

// Handler handles lookup, health and stats requests.
type Handler struct {
	Cache      *cache.Store
	Origin     origin.Origin
	TTLSeconds int
	Stats      *metrics.Stats
	Prometheus *metrics.PrometheusMetrics // Optional
	Access     *logging.AccessLog         // Optional

	started time.Time
	ready   atomic.Bool
}

// RegisterRoutes registers all lookup routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	h.started = time.Now()
	h.ready.Store(true)

	mux.HandleFunc("GET /v1/values/{key}", h.GetValue)
	mux.HandleFunc("DELETE /v1/values/{key}", h.DeleteValue)

	// Health probes
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /health/live", h.HealthLive)
	mux.HandleFunc("GET /health/ready", h.HealthReady)

	// Observability
	if h.Stats != nil {
		mux.Handle("GET /stats", h.Stats.JSONHandler(h.Cache.Len))
	}
	if h.Prometheus != nil {
		mux.Handle("GET /metrics", h.Prometheus.Handler())
	}
}

// SetReady flips the readiness probe. The serve loop calls it with the
// result of the periodic origin probe.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// GetValue handles GET /v1/values/{key}
func (h *Handler) GetValue(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	reqID := RequestIDFrom(r.Context())
	start := time.Now()
	trace.SpanFromContext(r.Context()).SetAttributes(observability.AttrRequestID.String(reqID))

	value, hit, err := h.Fetch(r.Context(), key)

	h.Access.Log(&logging.AccessEntry{
		RequestID:  reqID,
		TraceID:    observability.TraceID(r.Context()),
		Key:        key,
		Origin:     h.Origin.Name(),
		DurationMs: time.Since(start).Milliseconds(),
		Cached:     hit,
		Success:    err == nil,
		Error:      errString(err),
		Size:       len(value),
	})

	if err != nil {
		switch {
		case errors.Is(err, origin.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			writeJSONError(w, http.StatusGatewayTimeout, err.Error())
		default:
			logging.Op().Warn("origin fetch failed", "key", key, "origin", h.Origin.Name(), "error", err)
			writeJSONError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(value)))
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

// DeleteValue handles DELETE /v1/values/{key}. It drops the cached copy so
// the next read goes to the origin.
func (h *Handler) DeleteValue(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if _, err := h.Cache.Pop(key); err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Fetch returns the value for key, loading it from the origin on a miss.
// hit reports whether this call was served without running the origin.
func (h *Handler) Fetch(ctx context.Context, key string) (value []byte, hit bool, err error) {
	hit = true
	value, err = cache.Load(ctx, h.Cache, key, h.TTLSeconds, func(ctx context.Context) ([]byte, error) {
		hit = false
		ctx, span := observability.StartSpan(ctx, "origin.Fetch", observability.AttrOrigin.String(h.Origin.Name()))
		defer span.End()
		v, err := h.Origin.Fetch(ctx, key)
		if err != nil {
			observability.SetSpanError(span, err)
		}
		return v, err
	})
	return value, hit, err
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	originOK := h.Origin.Ping(ctx) == nil
	status := "ok"
	if !originOK {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"components": map[string]any{
			"origin": map[string]any{
				"kind": h.Origin.Name(),
				"ok":   originOK,
			},
			"cache": map[string]any{
				"entries": h.Cache.Len(),
			},
		},
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// HealthLive handles GET /health/live - Kubernetes liveness probe
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /health/ready - Kubernetes readiness probe
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  "origin probe failing",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Origin.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  h.Origin.Name() + " unavailable: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
