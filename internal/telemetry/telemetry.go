package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the tracer and meter providers of a running server
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	promRegistry   *prometheus.Registry

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures New
type Option func(*telemetryConfig)

type telemetryConfig struct {
	config *Config
}

// WithTelemetryConfig sets the telemetry section of the server configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(tc *telemetryConfig) {
		tc.config = cfg
	}
}

// New builds the providers described by the configuration. A nil or disabled
// configuration yields no-op providers. The caller calls Shutdown on exit.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	tc := &telemetryConfig{}
	for _, opt := range opts {
		opt(tc)
	}
	cfg := tc.config

	// Telemetry is opt-in; nothing is exported without configuration
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return newNoOpTelemetry(ctx)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	slog.Info("Initializing telemetry",
		"service_name", cfg.GetServiceName(),
		"service_version", cfg.GetServiceVersion(),
	)

	tp, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	tel := &Telemetry{tracerProvider: tp}

	// Scrape output is limited to docsource metrics, so a private registry is used
	var registerer prometheus.Registerer
	if metricsEnabled(cfg) && cfg.Metrics.Prometheus {
		tel.promRegistry = prometheus.NewRegistry()
		registerer = tel.promRegistry
	}

	tel.meterProvider, err = NewMeterProvider(ctx, cfg, registerer)
	if err != nil {
		// Release the tracer exporter before failing
		if sdkTP, ok := tp.(*sdktrace.TracerProvider); ok {
			_ = sdkTP.Shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}

	return tel, nil
}

func newNoOpTelemetry(ctx context.Context) (*Telemetry, error) {
	tp, err := NewTracerProvider(ctx, nil)
	if err != nil {
		return nil, err
	}
	mp, err := NewMeterProvider(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return &Telemetry{tracerProvider: tp, meterProvider: mp}, nil
}

// TracerProvider returns the tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// PrometheusHandler returns the /metrics handler, or nil when Prometheus is not enabled
func (t *Telemetry) PrometheusHandler() http.Handler {
	if t.promRegistry == nil {
		return nil
	}
	return promhttp.HandlerFor(t.promRegistry, promhttp.HandlerOpts{})
}

// Tracer returns a named tracer
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a named meter
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return t.meterProvider.Meter(name, opts...)
}

// Shutdown flushes and stops the SDK providers. Later calls return the first result.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		// No-op providers have nothing to flush, only SDK providers are shut down
		var errs []error
		if tp, ok := t.tracerProvider.(*sdktrace.TracerProvider); ok {
			if err := tp.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
			}
		}
		if mp, ok := t.meterProvider.(*sdkmetric.MeterProvider); ok {
			if err := mp.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
			}
		}
		t.shutdownErr = errors.Join(errs...)
		slog.Debug("Telemetry shut down", "error", t.shutdownErr)
	})
	return t.shutdownErr
}
