// Package observability wires OpenTelemetry tracing for memo. Until Init
// enables it, every helper here runs against a no-op tracer.
package observability

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config holds telemetry configuration
type Config struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Exporter    string  `json:"exporter" yaml:"exporter"`         // otlp-http, noop
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // localhost:4318
	ServiceName string  `json:"service_name" yaml:"service_name"` // memo
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`   // 0.0 to 1.0
}

// Provider wraps the OpenTelemetry TracerProvider
type Provider struct {
	tp      *sdktrace.TracerProvider
	tracer  trace.Tracer
	enabled bool
}

var globalProvider atomic.Pointer[Provider]

func init() {
	globalProvider.Store(disabledProvider())
}

func disabledProvider() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer("memo")}
}

// Init installs the global tracer provider described by cfg.
func Init(ctx context.Context, cfg Config) error {
	if !cfg.Enabled {
		globalProvider.Store(disabledProvider())
		return nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "memo"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "otlp-http", "otlp", "":
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("create OTLP exporter: %w", err)
		}
		exporter = exp
	case "noop":
		exporter = noopExporter{}
	default:
		return fmt.Errorf("unknown exporter: %s", cfg.Exporter)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate < 1.0 && cfg.SampleRate >= 0 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalProvider.Store(&Provider{
		tp:      tp,
		tracer:  tp.Tracer(cfg.ServiceName),
		enabled: true,
	})
	return nil
}

// Shutdown flushes pending spans and falls back to the no-op tracer.
func Shutdown(ctx context.Context) error {
	p := globalProvider.Swap(disabledProvider())
	if p == nil || p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

// Tracer returns the global tracer
func Tracer() trace.Tracer {
	return globalProvider.Load().tracer
}

// Enabled returns whether tracing is enabled
func Enabled() bool {
	return globalProvider.Load().enabled
}

type noopExporter struct{}

func (noopExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }

func (noopExporter) Shutdown(context.Context) error { return nil }
