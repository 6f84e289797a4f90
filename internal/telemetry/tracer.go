package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// tracingEnabled reports whether cfg asks for exported spans
func tracingEnabled(cfg *Config) bool {
	return cfg != nil && cfg.Enabled && cfg.Tracing != nil && cfg.Tracing.Enabled
}

// NewTracerProvider creates the tracer provider spans of HTTP requests,
// source checks and uploads are recorded with, exporting them over OTLP HTTP.
// Returns a no-op provider when tracing is disabled. The caller shuts the
// returned provider down.
func NewTracerProvider(ctx context.Context, cfg *Config) (trace.TracerProvider, error) {
	if !tracingEnabled(cfg) {
		slog.Info("Tracing disabled, using no-op tracer provider")
		return noop.NewTracerProvider(), nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// The endpoint is host:port, the exporter adds the /v1/traces path
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.GetEndpoint())}
	if cfg.GetInsecure() {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP tracing exporter: %w", err)
	}

	sampling := cfg.Tracing.GetSampling()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		// Child spans follow the caller's decision so a sampled upload keeps its check spans
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampling))),
	)

	// Set as global and propagate incoming trace headers
	otel.SetTracerProvider(tp)
	installPropagator()

	if cfg.GetInsecure() {
		slog.Warn("Tracing configured with insecure connection - spans are sent over unencrypted HTTP")
	}
	slog.Info("Tracing initialized",
		"endpoint", cfg.GetEndpoint(),
		"sampling_ratio", sampling,
		"insecure", cfg.GetInsecure(),
	)

	return tp, nil
}

// installPropagator sets the global W3C trace context and baggage propagator
func installPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}
