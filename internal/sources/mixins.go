package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/ingest"
)

// Values of the uncompress field
const (
	UncompressAlways = "always"
	UncompressNever  = "never"
	UncompressAsk    = "ask"
)

const (
	fieldUncompress     = "uncompress"
	fieldInterval       = "interval"
	fieldDocumentTypeID = "document_type_id"

	// DefaultInterval is the default period of a periodic source
	DefaultInterval = 600 * time.Second
)

func compressedFields(defaultChoice string) Schema {
	return Schema{
		Fields: map[string]Field{
			fieldUncompress: {
				Label:    "Uncompress",
				HelpText: "Whether to expand or not compressed archives.",
				Class:    FieldChoice,
				Default:  defaultChoice,
				Required: true,
				Choices: []Choice{
					{Value: UncompressAlways, Label: "Always"},
					{Value: UncompressNever, Label: "Never"},
					{Value: UncompressAsk, Label: "Ask user"},
				},
			},
		},
		FieldOrder: []string{fieldUncompress},
	}
}

func periodicFields() Schema {
	return Schema{
		Fields: map[string]Field{
			fieldInterval: {
				Label:    "Interval",
				HelpText: "Interval in seconds between checks for new documents.",
				Class:    FieldInteger,
				Default:  int(DefaultInterval / time.Second),
				Required: true,
				MinValue: minValue(1),
			},
			fieldDocumentTypeID: {
				Label:    "Document type",
				HelpText: "Assign a document type to documents uploaded from this source.",
				Class:    FieldInteger,
				Required: true,
				MinValue: minValue(1),
			},
		},
		FieldOrder: []string{fieldInterval, fieldDocumentTypeID},
	}
}

// ShouldExpand resolves the uncompress setting against the user's choice
func ShouldExpand(setting string, userChoice bool) bool {
	switch setting {
	case UncompressAlways:
		return true
	case UncompressAsk:
		return userChoice
	default:
		return false
	}
}

// Interval returns the check period of a periodic source
func Interval(src *Source) time.Duration {
	data := NewData(src.BackendData, periodicFields())
	seconds := data.Int(fieldInterval)
	if seconds < 1 {
		return DefaultInterval
	}
	return time.Duration(seconds) * time.Second
}

// validateDocumentType checks that the document_type_id names a document type
func validateDocumentType(ctx context.Context, env *Env, data Data) (*documents.DocumentType, error) {
	id := data.Int(fieldDocumentTypeID)
	if env == nil || env.Documents == nil {
		return nil, nil
	}
	docType, err := env.Documents.GetDocumentType(ctx, id)
	if errors.Is(err, documents.ErrDocumentTypeNotFound) {
		return nil, NewValidationError(fieldDocumentTypeID, "Select a valid choice.")
	}
	if err != nil {
		return nil, err
	}
	return docType, nil
}

// UploadRequest is an interactive upload
type UploadRequest struct {
	DocumentTypeID int64
	UserID         string
	Label          string
	Description    string
	Language       string
	// Expand is the user's answer when the source asks whether to uncompress
	Expand bool
	// Files are the multipart files of a web form upload
	Files []IncomingFile
	// StagingFile is the encoded filename of a staging folder upload
	StagingFile string
	// Query is forwarded to the post upload wizard steps
	Query url.Values
}

func (r *UploadRequest) queueRequest(expand bool) QueueRequest {
	callbackKwargs := map[string]string{}
	if len(r.Query) > 0 {
		callbackKwargs[ingest.CallbackQueryString] = r.Query.Encode()
	}
	return QueueRequest{
		DocumentTypeID: r.DocumentTypeID,
		Label:          r.Label,
		Description:    r.Description,
		Language:       r.Language,
		UserID:         r.UserID,
		Expand:         expand,
		CallbackKwargs: callbackKwargs,
	}
}

// Uploader is implemented by interactive backends
type Uploader interface {
	Upload(ctx context.Context, req *UploadRequest) ([]*ingest.UploadTask, error)
}

// periodic queues files found by a periodic check
type periodic struct {
	base
}

func (p periodic) queueRequest(label string) QueueRequest {
	return QueueRequest{
		DocumentTypeID: p.data.Int(fieldDocumentTypeID),
		Label:          label,
		Expand:         ShouldExpand(p.data.String(fieldUncompress), false),
	}
}

func (p periodic) queue(ctx context.Context, self Backend, file IncomingFile, req QueueRequest) error {
	if _, err := QueueUpload(ctx, p.env, p.source, self, file, req); err != nil {
		return fmt.Errorf("source %d: %w", p.source.ID, err)
	}
	return nil
}
