package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	empty := &Config{}
	assert.Equal(t, DefaultServiceName, empty.GetServiceName())
	assert.Equal(t, "unknown", empty.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, empty.GetEndpoint())
	assert.False(t, empty.GetInsecure())

	set := &Config{
		ServiceName:    "docsource-worker",
		ServiceVersion: "v1.4.0",
		Endpoint:       "otel-collector.observability:4318",
		Insecure:       true,
	}
	assert.Equal(t, "docsource-worker", set.GetServiceName())
	assert.Equal(t, "v1.4.0", set.GetServiceVersion())
	assert.Equal(t, "otel-collector.observability:4318", set.GetEndpoint())
	assert.True(t, set.GetInsecure())
}

func TestTracingConfig_GetSampling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *TracingConfig
		want   float64
	}{
		{name: "nil config", config: nil, want: DefaultSampling},
		{name: "unset", config: &TracingConfig{Enabled: true}, want: DefaultSampling},
		{name: "explicit zero", config: &TracingConfig{Sampling: floatPtr(0)}, want: 0},
		{name: "half", config: &TracingConfig{Sampling: floatPtr(0.5)}, want: 0.5},
		{name: "all", config: &TracingConfig{Sampling: floatPtr(1)}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.config.GetSampling(), 1e-9)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "nil"},
		{name: "disabled ignores bad sections", config: &Config{
			Tracing: &TracingConfig{Enabled: true, Sampling: floatPtr(7)},
		}},
		{name: "enabled without sections", config: &Config{Enabled: true}},
		{name: "valid sampling", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: floatPtr(0.25)},
		}},
		{name: "zero sampling is valid", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: floatPtr(0)},
		}},
		{name: "sampling above one", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: floatPtr(1.5)},
		}, wantErr: "tracing: sampling must be between 0.0 and 1.0"},
		{name: "negative sampling", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: floatPtr(-0.1)},
		}, wantErr: "tracing: sampling must be between 0.0 and 1.0"},
		{name: "bad sampling on disabled tracing", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: false, Sampling: floatPtr(3)},
		}},
		{name: "prometheus only", config: &Config{
			Enabled: true,
			Metrics: &MetricsConfig{Enabled: true, Prometheus: true, DisableOTLP: true},
		}},
		{name: "no metrics exporter", config: &Config{
			Enabled: true,
			Metrics: &MetricsConfig{Enabled: true, DisableOTLP: true},
		}, wantErr: "metrics: at least one metrics exporter must be enabled"},
		{name: "both sections invalid", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: floatPtr(2)},
			Metrics: &MetricsConfig{Enabled: true, DisableOTLP: true},
		}, wantErr: "metrics: at least one metrics exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
