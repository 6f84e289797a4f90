package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// collectorEndpoint starts an OTLP sink that accepts every export
func collectorEndpoint(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return strings.TrimPrefix(server.URL, "http://")
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config"},
		{name: "telemetry disabled", cfg: &Config{Tracing: &TracingConfig{Enabled: true}}},
		{name: "no tracing section", cfg: &Config{Enabled: true}},
		{name: "tracing disabled", cfg: &Config{Enabled: true, Tracing: &TracingConfig{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tp, err := NewTracerProvider(context.Background(), tt.cfg)
			require.NoError(t, err)
			_, ok := tp.(noop.TracerProvider)
			assert.True(t, ok, "expected no-op tracer provider")
		})
	}
}

func TestNewTracerProvider_Sampling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		sampling    float64
		wantSampled bool
	}{
		{name: "keep everything", sampling: 1, wantSampled: true},
		{name: "drop everything", sampling: 0, wantSampled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			tp, err := NewTracerProvider(ctx, &Config{
				Enabled:  true,
				Endpoint: collectorEndpoint(t),
				Insecure: true,
				Tracing:  &TracingConfig{Enabled: true, Sampling: floatPtr(tt.sampling)},
			})
			require.NoError(t, err)

			sdkTP, ok := tp.(*sdktrace.TracerProvider)
			require.True(t, ok, "expected SDK tracer provider")
			defer func() { require.NoError(t, sdkTP.Shutdown(ctx)) }()

			_, span := tp.Tracer("docsource-test").Start(ctx, "source.check")
			defer span.End()
			assert.Equal(t, tt.wantSampled, span.SpanContext().IsSampled())
		})
	}
}
