// Package v1 provides the REST API handlers for document sources,
// staging folder files, uploads and documents.
package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/docsource-server/internal/service"
)

// apiPrefix is where the router is mounted
const apiPrefix = "/api/v1"

// Routes handles HTTP requests for the v1 API
type Routes struct {
	service service.Service
}

// NewRoutes creates a new Routes instance with the given service
func NewRoutes(svc service.Service) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates and configures the HTTP router for the v1 API
func Router(svc service.Service) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/sources", routes.listSources)
	r.Post("/sources", routes.createSource)
	r.Route("/sources/{sourceID}", func(r chi.Router) {
		r.Get("/", routes.getSource)
		r.Put("/", routes.updateSource)
		r.Patch("/", routes.patchSource)
		r.Delete("/", routes.deleteSource)
		r.Post("/test", routes.testSource)
		r.Get("/status", routes.getSourceStatus)
		r.Get("/files", routes.listStagingFiles)
		r.Post("/upload", routes.upload)
	})

	r.Get("/source_backends", routes.listBackends)
	r.Get("/source_backends/{backendPath}", routes.getBackendSchema)

	r.Get("/upload", routes.getUploadView)

	r.Route("/staging_folders_files/{sourceID}/{encodedFilename}", func(r chi.Router) {
		r.Get("/", routes.getStagingFile)
		r.Delete("/", routes.deleteStagingFile)
		r.Get("/image/", routes.getStagingFileImage)
		r.Post("/upload/", routes.uploadStagingFile)
	})
	r.Post("/staging_folders/{sourceID}/files/{encodedFilename}/delete/", routes.deleteStagingFileForm)

	r.Get("/document_types", routes.listDocumentTypes)
	r.Post("/document_types", routes.createDocumentType)
	r.Get("/document_types/{documentTypeID}", routes.getDocumentType)
	r.Get("/metadata_types", routes.listMetadataTypes)
	r.Post("/metadata_types", routes.createMetadataType)
	r.Get("/documents", routes.listDocuments)
	r.Get("/documents/{documentID}", routes.getDocument)
	r.Get("/documents/{documentID}/download", routes.downloadDocument)

	r.Get("/wizard/steps", routes.listWizardSteps)

	return r
}
