// Package sources implements document sources: the backend registry, the
// interactive backends (web form, staging folder, scanner) and the periodic
// backends (watch folder, IMAP and POP3 mailboxes).
package sources

//go:generate mockgen -destination=mocks/mock_sources.go -package=mocks -source=backend.go TaskSubmitter,MetadataLookup,ImageConverter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/stacklok/docsource-server/internal/converter"
	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/storage"
	"github.com/stacklok/docsource-server/internal/telemetry"
)

// Built-in backend paths
const (
	PathNull          = "sources.Null"
	PathWebForm       = "sources.WebForm"
	PathStagingFolder = "sources.StagingFolder"
	PathSANEScanner   = "sources.SANEScanner"
	PathWatchFolder   = "sources.WatchFolder"
	PathIMAPEmail     = "sources.IMAPEmail"
	PathPOP3Email     = "sources.POP3Email"
)

// Source is a configured origin of documents
type Source struct {
	ID          int64           `json:"id"`
	Label       string          `json:"label"`
	Enabled     bool            `json:"enabled"`
	BackendPath string          `json:"backend_path"`
	BackendData json.RawMessage `json:"backend_data"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProcessOptions controls a periodic check
type ProcessOptions struct {
	// TestMode processes messages and files without removing them from their origin
	TestMode bool
}

// ProcessResult summarizes a periodic check
type ProcessResult struct {
	DocumentsQueued int `json:"documents_queued"`
}

// Backend is the behaviour of a source
type Backend interface {
	// Create is called after a new source is saved
	Create(ctx context.Context) error
	// Save is called after an existing source is saved
	Save(ctx context.Context) error
	// Delete is called before a source is deleted
	Delete(ctx context.Context) error
	// GetViewContext returns the data shown by the upload view
	GetViewContext(ctx context.Context) (map[string]any, error)
	// ProcessDocuments runs one periodic check
	ProcessDocuments(ctx context.Context, opts ProcessOptions) (*ProcessResult, error)
	// TaskExtraKwargs returns extra fields merged into upload tasks
	TaskExtraKwargs() map[string]any
}

// TaskSubmitter queues upload tasks
type TaskSubmitter interface {
	Submit(ctx context.Context, task *ingest.UploadTask) error
}

// MetadataLookup resolves document and metadata types
type MetadataLookup interface {
	GetDocumentType(ctx context.Context, id int64) (*documents.DocumentType, error)
	GetMetadataType(ctx context.Context, id int64) (*documents.MetadataType, error)
	GetMetadataTypeByName(ctx context.Context, name string) (*documents.MetadataType, error)
}

// ImageConverter renders preview images
type ImageConverter interface {
	Convert(r io.Reader, transformations ...converter.Transformation) ([]byte, error)
}

// Env holds the services shared by every backend
type Env struct {
	SharedUploads *storage.SharedUploads
	Tasks         TaskSubmitter
	Cache         *storage.Storage
	Converter     ImageConverter
	Documents     MetadataLookup
	Metrics       *telemetry.SourceMetrics

	// Language is given to queued documents
	Language string
	// ScanimagePath is the SANE scanimage binary
	ScanimagePath string
	// LockDir holds the watch folder lock files
	LockDir string
	// ImageTimeout bounds staging file image generation
	ImageTimeout time.Duration

	IMAPDialer IMAPDialer
	POP3Dialer POP3Dialer
}

func (e *Env) language() string {
	if e.Language == "" {
		return documents.DefaultLanguage
	}
	return e.Language
}

// base implements the hooks every backend shares
type base struct {
	source *Source
	env    *Env
	data   Data
}

func newBase(src *Source, env *Env, schema Schema) base {
	return base{source: src, env: env, data: NewData(src.BackendData, schema)}
}

func (base) Create(context.Context) error { return nil }

func (base) Save(context.Context) error { return nil }

func (base) Delete(context.Context) error { return nil }

func (base) GetViewContext(context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (b base) ProcessDocuments(context.Context, ProcessOptions) (*ProcessResult, error) {
	return nil, fmt.Errorf("%w: %s does not process documents", ErrNotImplemented, b.source.BackendPath)
}

func (base) TaskExtraKwargs() map[string]any {
	return map[string]any{}
}

// IncomingFile is a file accepted by a source, not yet in shared storage
type IncomingFile struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// QueueRequest carries the per upload values of an upload task
type QueueRequest struct {
	DocumentTypeID int64
	Label          string
	Description    string
	Language       string
	UserID         string
	Expand         bool
	Metadata       []documents.MetadataValue
	CallbackKwargs map[string]string
}

// QueueUpload copies a file to shared storage and queues its upload task
func QueueUpload(
	ctx context.Context, env *Env, src *Source, backend Backend, file IncomingFile, req QueueRequest,
) (*ingest.UploadTask, error) {
	r, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Filename, err)
	}
	defer r.Close()

	shared, err := env.SharedUploads.Create(ctx, file.Filename, r)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = env.language()
	}
	callbackKwargs := req.CallbackKwargs
	if callbackKwargs == nil {
		callbackKwargs = map[string]string{}
	}

	task := &ingest.UploadTask{
		CallbackKwargs:       callbackKwargs,
		Description:          req.Description,
		DocumentTypeID:       req.DocumentTypeID,
		Label:                req.Label,
		Language:             language,
		SharedUploadedFileID: shared.ID,
		SourceID:             src.ID,
		UserID:               req.UserID,
		Expand:               req.Expand,
		Metadata:             req.Metadata,
		Extra:                backend.TaskExtraKwargs(),
	}

	if err := env.Tasks.Submit(ctx, task); err != nil {
		_ = env.SharedUploads.Delete(ctx, shared.ID)
		return nil, fmt.Errorf("failed to queue upload of %s: %w", file.Filename, err)
	}
	return task, nil
}
