// Package service provides the business logic for the document sources API
package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
	"github.com/stacklok/docsource-server/internal/wizard"
)

var (
	// ErrNoInteractiveSources is returned by the upload view when no enabled interactive source exists
	ErrNoInteractiveSources = errors.New(
		"No interactive document sources have been defined or none have been enabled, " +
			"create one before proceeding.",
	)
	// ErrNotStagingFolder is returned when a staging file operation targets another kind of source
	ErrNotStagingFolder = errors.New("source is not a staging folder")
	// ErrNotPeriodic is returned when a source without periodic checks is tested
	ErrNotPeriodic = errors.New("source does not run periodic checks")
	// ErrDocumentFileNotFound is returned when the stored file of a document is missing
	ErrDocumentFileNotFound = errors.New("document file not found")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service

// Service defines the operations of the document sources API
type Service interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListSources returns every source ordered by label
	ListSources(ctx context.Context) ([]*sources.Source, error)
	// GetSource returns one source
	GetSource(ctx context.Context, id int64) (*sources.Source, error)
	// CreateSource validates and persists a source, then runs its backend Create hook
	CreateSource(ctx context.Context, input *SourceInput) (*sources.Source, error)
	// UpdateSource applies a full or partial edit, then runs the backend Save hook
	UpdateSource(ctx context.Context, id int64, update *SourceUpdate) (*sources.Source, error)
	// DeleteSource runs the backend Delete hook, then removes the source and its check status
	DeleteSource(ctx context.Context, id int64) error
	// TestSource runs one periodic check in test mode
	TestSource(ctx context.Context, id int64) (*sources.ProcessResult, error)
	// GetSourceStatus returns the periodic check status of a source
	GetSourceStatus(ctx context.Context, id int64) (*status.CheckStatus, error)

	// ListBackends returns the registered backends sorted by label
	ListBackends() []sources.BackendChoice
	// GetBackendSchema returns the setup form of a backend
	GetBackendSchema(path string) (sources.Schema, error)

	// GetUploadView returns the upload view context of an interactive source.
	// A nil sourceID selects the default interactive source.
	GetUploadView(ctx context.Context, sourceID *int64) (*UploadView, error)
	// Upload runs an interactive upload
	Upload(ctx context.Context, sourceID int64, req *sources.UploadRequest) ([]*ingest.UploadTask, error)

	// ListStagingFiles lists the files of a staging folder source
	ListStagingFiles(ctx context.Context, sourceID int64) ([]*sources.StagingFile, error)
	// GetStagingFile returns one staging file
	GetStagingFile(ctx context.Context, sourceID int64, encodedFilename string) (*sources.StagingFile, error)
	// GetStagingFileImage renders the preview image of a staging file
	GetStagingFileImage(
		ctx context.Context, sourceID int64, encodedFilename string, opts sources.ImageOptions,
	) ([]byte, error)
	// DeleteStagingFile deletes a staging file and its cached images
	DeleteStagingFile(ctx context.Context, sourceID int64, encodedFilename string) error
	// UploadStagingFile queues a staging file for ingestion
	UploadStagingFile(
		ctx context.Context, sourceID int64, encodedFilename string, req *StagingUploadRequest,
	) (*ingest.UploadTask, error)

	// ListDocumentTypes returns every document type
	ListDocumentTypes(ctx context.Context) ([]*documents.DocumentType, error)
	// GetDocumentType returns one document type
	GetDocumentType(ctx context.Context, id int64) (*documents.DocumentType, error)
	// CreateDocumentType creates a document type
	CreateDocumentType(ctx context.Context, docType *documents.DocumentType) (*documents.DocumentType, error)
	// ListMetadataTypes returns every metadata type
	ListMetadataTypes(ctx context.Context) ([]*documents.MetadataType, error)
	// CreateMetadataType creates a metadata type
	CreateMetadataType(ctx context.Context, metadataType *documents.MetadataType) (*documents.MetadataType, error)
	// ListDocuments returns documents, newest first
	ListDocuments(ctx context.Context, opts documents.ListOptions) ([]*documents.Document, error)
	// GetDocument returns one document
	GetDocument(ctx context.Context, id int64) (*documents.Document, error)
	// OpenDocumentFile opens the stored file of a document
	OpenDocumentFile(ctx context.Context, id int64) (*documents.Document, io.ReadCloser, error)

	// ListWizardSteps returns the active document creation wizard steps
	ListWizardSteps() []wizard.Step
}

// SourceInput is the data of a new source
type SourceInput struct {
	Label       string
	Enabled     bool
	BackendPath string
	BackendData json.RawMessage
}

// SourceUpdate edits a source. Nil fields keep their current value.
type SourceUpdate struct {
	Label       *string
	Enabled     *bool
	BackendPath *string
	BackendData json.RawMessage
}

// StagingUploadRequest is the body of a staging file upload
type StagingUploadRequest struct {
	DocumentTypeID int64
	Expand         bool
	UserID         string
}

// UploadView is the context of the document upload view
type UploadView struct {
	Source *sources.Source `json:"source"`
	// Sources lists every enabled interactive source the caller may switch to
	Sources []*sources.Source `json:"sources"`
	Context map[string]any    `json:"context"`
}
