package telemetry

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name used for the HTTP tracer
	TracerName = "github.com/stacklok/docsource-server/http"

	// MaxUserAgentLength caps the user agent recorded on spans
	MaxUserAgentLength = 256
)

// untracedPaths are probes and scrapes polled often enough to drown out real traffic
var untracedPaths = map[string]struct{}{
	"/health":    {},
	"/readiness": {},
	"/metrics":   {},
}

// TracingMiddleware creates HTTP middleware for distributed tracing.
// If provider is nil, it returns a pass-through middleware that does nothing.
func TracingMiddleware(provider trace.TracerProvider) func(http.Handler) http.Handler {
	if provider == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	// Resolved once, not per request
	tracer := provider.Tracer(TracerName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := untracedPaths[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			// Continue a trace started by the caller, if any
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// The route pattern is only known after chi has routed the request,
			// the span is renamed once the handler returns.
			ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(truncateUserAgent(r.UserAgent())),
				),
			)
			defer span.End()

			next.ServeHTTP(ww, r.WithContext(ctx))

			pattern := routePattern(r)
			span.SetName(fmt.Sprintf("%s %s", r.Method, pattern))
			span.SetAttributes(
				semconv.HTTPRouteKey.String(pattern),
				semconv.HTTPResponseStatusCode(ww.Status()),
			)

			// Client errors leave the status unset on server spans
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(ww.Status()))
			case ww.Status() < http.StatusBadRequest:
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

func truncateUserAgent(ua string) string {
	if len(ua) > MaxUserAgentLength {
		return ua[:MaxUserAgentLength]
	}
	return ua
}
