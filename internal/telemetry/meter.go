package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	// DefaultMetricsInterval is the default interval for metric collection
	DefaultMetricsInterval = 60 * time.Second
)

// metricsEnabled reports whether cfg asks for collected metrics
func metricsEnabled(cfg *Config) bool {
	return cfg != nil && cfg.Enabled && cfg.Metrics != nil && cfg.Metrics.Enabled
}

// NewMeterProvider creates the meter provider for HTTP, check and ingest
// metrics. Metrics are pushed over OTLP HTTP unless disabled, and registered
// with reg for scraping when Prometheus is enabled (the default registerer
// when reg is nil). Returns a no-op provider when metrics are disabled.
func NewMeterProvider(ctx context.Context, cfg *Config, reg prometheus.Registerer) (metric.MeterProvider, error) {
	if !metricsEnabled(cfg) {
		slog.Info("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// One reader per enabled exporter; the provider fans measurements out to all of them
	readers, err := metricReaders(ctx, cfg, reg)
	if err != nil {
		return nil, err
	}
	if len(readers) == 0 {
		slog.Warn("Metrics enabled with neither OTLP nor Prometheus, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)

	// Set as global so instrumented libraries pick it up
	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized",
		"endpoint", cfg.GetEndpoint(),
		"insecure", cfg.GetInsecure(),
		"otlp", !cfg.Metrics.DisableOTLP,
		"prometheus", cfg.Metrics.Prometheus,
	)

	return mp, nil
}

func metricReaders(ctx context.Context, cfg *Config, reg prometheus.Registerer) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	// OTLP push
	if !cfg.Metrics.DisableOTLP {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.GetEndpoint())}
		if cfg.GetInsecure() {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(DefaultMetricsInterval)))
	}

	// Prometheus pull, served on /metrics
	if cfg.Metrics.Prometheus {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, exporter)
	}

	return readers, nil
}
