package lookup

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/oriys/memo/internal/logging"
	"github.com/oriys/memo/internal/metrics"
	"github.com/oriys/memo/internal/observability"
)

type requestIDKey struct{}

// RequestIDFrom returns the request id assigned by RequestIDMiddleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware keeps an incoming X-Request-ID or assigns a new one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// MetricsMiddleware counts requests by route pattern and status code.
func MetricsMiddleware(pm *metrics.PrometheusMetrics, next http.Handler) http.Handler {
	if pm == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := observability.NewStatusRecorder(w)
		next.ServeHTTP(rw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		pm.RecordHTTPRequest(route, rw.Status())
	})
}

// NewHandler builds the routed handler chain for h.
func NewHandler(h *Handler) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = MetricsMiddleware(h.Prometheus, handler)
	handler = observability.HTTPMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	return handler
}

// StartHTTPServer creates and starts the HTTP server.
func StartHTTPServer(addr string, h *Handler) *http.Server {
	server := &http.Server{
		Addr:    addr,
		Handler: NewHandler(h),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Op().Error("HTTP server error", "error", err)
		}
	}()

	return server
}
