package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/pkg/versions"
)

const serviceName = "docsource-api"

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.Service) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
//
// @Summary		Health check
// @Description	Check if the document source API is healthy
// @Tags			system
// @Produce		json
// @Success		200	{object}	HealthResponse
// @Router			/health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy", Service: serviceName}, http.StatusOK)
}

// readinessHandler handles readiness check requests
//
// @Summary		Readiness check
// @Description	Check if the document source API is ready to serve requests
// @Tags			system
// @Produce		json
// @Success		200	{object}	ReadinessResponse
// @Failure		503	{object}	map[string]string
// @Router			/readiness [get]
func readinessHandler(svc service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "Service not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
//
// @Summary		Version information
// @Description	Get version information about the document source API
// @Tags			system
// @Produce		json
// @Success		200	{object}	VersionResponse
// @Router			/version [get]
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()
	common.WriteJSONResponse(w, VersionResponse{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		GoVersion: info.GoVersion,
		Platform:  info.Platform,
	}, http.StatusOK)
}
