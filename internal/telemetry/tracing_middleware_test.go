package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func spanAttr(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// sourceRouter mounts a single source route behind the tracing middleware
func sourceRouter(tp *sdktrace.TracerProvider, status int) http.Handler {
	r := chi.NewRouter()
	r.Use(TracingMiddleware(tp))
	r.Post("/api/v1/sources/{sourceID}/check", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	called := false
	wrapped := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sources/1/upload", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestTracingMiddleware_RecordsRoute(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/42/check", nil)
	req.Header.Set("User-Agent", "docsource-cli/1.0")
	sourceRouter(tp, http.StatusAccepted).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "POST /api/v1/sources/{sourceID}/check", span.Name)

	route, ok := spanAttr(span.Attributes, semconv.HTTPRouteKey)
	require.True(t, ok)
	assert.Equal(t, "/api/v1/sources/{sourceID}/check", route.AsString())

	path, ok := spanAttr(span.Attributes, semconv.URLPathKey)
	require.True(t, ok)
	assert.Equal(t, "/api/v1/sources/42/check", path.AsString())

	code, ok := spanAttr(span.Attributes, semconv.HTTPResponseStatusCodeKey)
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusAccepted), code.AsInt64())

	ua, ok := spanAttr(span.Attributes, semconv.UserAgentOriginalKey)
	require.True(t, ok)
	assert.Equal(t, "docsource-cli/1.0", ua.AsString())
}

func TestTracingMiddleware_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   codes.Code
	}{
		{status: http.StatusOK, want: codes.Ok},
		{status: http.StatusAccepted, want: codes.Ok},
		{status: http.StatusNotFound, want: codes.Unset},
		{status: http.StatusConflict, want: codes.Unset},
		{status: http.StatusInternalServerError, want: codes.Error},
		{status: http.StatusNotImplemented, want: codes.Error},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/7/check", nil)
			sourceRouter(tp, tt.status).ServeHTTP(httptest.NewRecorder(), req)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.want, spans[0].Status.Code)
		})
	}
}

func TestTracingMiddleware_ContinuesRemoteTrace(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	installPropagator()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sources/3/check", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	sourceRouter(tp, http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
}

func TestTracingMiddleware_SkipsProbes(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	rr := httptest.NewRecorder()
	sourceRouter(tp, http.StatusOK).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, exporter.GetSpans())
}

func TestTruncateUserAgent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "curl/8.0", truncateUserAgent("curl/8.0"))
	long := strings.Repeat("a", MaxUserAgentLength+10)
	assert.Len(t, truncateUserAgent(long), MaxUserAgentLength)
}
