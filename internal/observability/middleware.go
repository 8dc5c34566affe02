package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// HTTPMiddleware wraps an http.Handler with OpenTelemetry tracing.
// It extracts trace context from incoming requests and creates server spans.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := Tracer().Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
				attribute.String("http.host", r.Host),
				attribute.String("user_agent.original", r.UserAgent()),
			),
		)
		defer span.End()

		rw := NewStatusRecorder(w)
		next.ServeHTTP(rw, r.WithContext(ctx))

		span.SetAttributes(
			attribute.Int("http.response.status_code", rw.Status()),
			attribute.Int64("http.response.body.size", rw.BytesWritten()),
		)
		if rw.Status() >= 400 {
			span.SetStatus(codes.Error, http.StatusText(rw.Status()))
		}
	})
}

// StatusRecorder wraps http.ResponseWriter to capture status code and bytes written
type StatusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

// NewStatusRecorder returns a recorder that reports 200 until WriteHeader
// says otherwise.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *StatusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *StatusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// Status returns the recorded status code.
func (rw *StatusRecorder) Status() int { return rw.statusCode }

// BytesWritten returns the number of body bytes written so far.
func (rw *StatusRecorder) BytesWritten() int64 { return rw.bytesWritten }
