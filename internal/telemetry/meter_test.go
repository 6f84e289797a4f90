package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config"},
		{name: "telemetry disabled", cfg: &Config{Metrics: &MetricsConfig{Enabled: true}}},
		{name: "metrics disabled", cfg: &Config{Enabled: true, Metrics: &MetricsConfig{}}},
		{name: "no readers", cfg: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, DisableOTLP: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mp, err := NewMeterProvider(context.Background(), tt.cfg, nil)
			require.NoError(t, err)
			_, ok := mp.(noop.MeterProvider)
			assert.True(t, ok, "expected no-op meter provider")
		})
	}
}

func TestNewMeterProvider_OTLP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mp, err := NewMeterProvider(ctx, &Config{
		Enabled:  true,
		Endpoint: collectorEndpoint(t),
		Insecure: true,
		Metrics:  &MetricsConfig{Enabled: true},
	}, nil)
	require.NoError(t, err)

	sdkMP, ok := mp.(*sdkmetric.MeterProvider)
	require.True(t, ok, "expected SDK meter provider")
	require.NoError(t, sdkMP.Shutdown(ctx))
}

func TestNewMeterProvider_Prometheus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	mp, err := NewMeterProvider(ctx, &Config{
		Enabled: true,
		Metrics: &MetricsConfig{Enabled: true, Prometheus: true, DisableOTLP: true},
	}, reg)
	require.NoError(t, err)

	sdkMP, ok := mp.(*sdkmetric.MeterProvider)
	require.True(t, ok)
	defer func() { _ = sdkMP.Shutdown(ctx) }()

	counter, err := mp.Meter("docsource-test").Int64Counter("docsource_test_total")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["docsource_test_total"], "counter should be gathered from the registry")
}
