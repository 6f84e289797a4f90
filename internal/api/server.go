// Package api assembles the HTTP router of the document source server: probes
// at the root, the optional Prometheus endpoint and the v1 API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/stacklok/docsource-server/internal/api/v1"
	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/service"
)

// ServerOption configures NewServer
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
}

// WithMiddlewares appends router middleware, applied in the given order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// NewServer builds the router serving svc
func NewServer(svc service.Service, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Use(cfg.middlewares...)

	// Probes live at the root so load balancers need no API prefix
	r.Mount("/", HealthRouter(svc))
	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}
	// Versioned API routes
	r.Mount("/api/v1", v1.Router(svc))

	return r
}

// LoggingMiddleware logs one line per request. Server errors are logged as
// warnings, everything else at debug level.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// Probes hit the server every few seconds, only failures surface above debug
		log := logger.Debugf
		if ww.Status() >= http.StatusInternalServerError {
			log = logger.Warnf
		}
		log("HTTP %s %s %d %dB %s request_id=%s",
			r.Method,
			r.URL.Path,
			ww.Status(),
			ww.BytesWritten(),
			time.Since(start),
			middleware.GetReqID(r.Context()),
		)
	})
}
