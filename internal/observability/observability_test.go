package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDisabledTracerIsUsable(t *testing.T) {
	if err := Init(context.Background(), Config{Enabled: false}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if Enabled() {
		t.Fatal("expected tracing to be disabled")
	}

	ctx, span := StartSpan(context.Background(), "test", AttrCacheKey.String("k"))
	SetSpanError(span, errors.New("boom"))
	span.End()

	if TraceID(ctx) != "" {
		t.Fatal("expected no trace id from the no-op tracer")
	}
}

func TestInitUnknownExporter(t *testing.T) {
	err := Init(context.Background(), Config{Enabled: true, Exporter: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected an error for an unknown exporter")
	}
	if Enabled() {
		t.Fatal("expected failed Init to leave tracing disabled")
	}
}

func TestInitNoopExporter(t *testing.T) {
	ctx := context.Background()
	if err := Init(ctx, Config{Enabled: true, Exporter: "noop", ServiceName: "memo-test", SampleRate: 1}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Shutdown(ctx)

	if !Enabled() {
		t.Fatal("expected tracing to be enabled")
	}

	spanCtx, span := StartSpan(ctx, "test")
	defer span.End()
	if TraceID(spanCtx) == "" || SpanID(spanCtx) == "" {
		t.Fatal("expected span context ids with a sampling tracer")
	}
}

func TestHTTPMiddleware_RecordsStatus(t *testing.T) {
	ctx := context.Background()
	if err := Init(ctx, Config{Enabled: true, Exporter: "noop", SampleRate: 1}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Shutdown(ctx)

	var sawTrace string
	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawTrace = TraceID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/values/k", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	if sawTrace == "" {
		t.Fatal("expected handler to run inside a server span")
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewStatusRecorder(rec)

	if rw.Status() != http.StatusOK {
		t.Fatalf("expected default 200, got %d", rw.Status())
	}
	rw.WriteHeader(http.StatusNotFound)
	rw.Write([]byte("nope"))

	if rw.Status() != http.StatusNotFound || rw.BytesWritten() != 4 {
		t.Fatalf("unexpected recorder state: %d/%d", rw.Status(), rw.BytesWritten())
	}
}
