// Package documents holds the document, document type and metadata type
// records that sources feed into.
package documents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDocumentNotFound is returned when a document does not exist
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentTypeNotFound is returned when a document type does not exist
	ErrDocumentTypeNotFound = errors.New("document type not found")
	// ErrMetadataTypeNotFound is returned when a metadata type does not exist
	ErrMetadataTypeNotFound = errors.New("metadata type not found")
	// ErrAlreadyExists is returned when a label or name is already taken
	ErrAlreadyExists = errors.New("already exists")
)

// DefaultLanguage is the ISO 639-3 code applied when a source does not set one
const DefaultLanguage = "eng"

// DocumentType groups documents and lists the metadata types they may carry
type DocumentType struct {
	ID              int64   `json:"id"`
	Label           string  `json:"label"`
	MetadataTypeIDs []int64 `json:"metadata_type_ids"`
}

// HasMetadataType reports whether the metadata type is associated with the document type
func (t *DocumentType) HasMetadataType(id int64) bool {
	for _, candidate := range t.MetadataTypeIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// MetadataType is a named metadata field
type MetadataType struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// MetadataValue is a metadata type value attached to a document
type MetadataValue struct {
	MetadataTypeID int64  `json:"metadata_type_id"`
	Value          string `json:"value"`
}

// Document is a stored document produced by the ingestion pipeline
type Document struct {
	ID             int64           `json:"id"`
	UUID           uuid.UUID       `json:"uuid"`
	DocumentTypeID int64           `json:"document_type_id"`
	Label          string          `json:"label"`
	Description    string          `json:"description"`
	Language       string          `json:"language"`
	SourceID       *int64          `json:"source_id,omitempty"`
	UserID         string          `json:"user_id,omitempty"`
	FileKey        string          `json:"file_key"`
	Mimetype       string          `json:"mimetype"`
	Checksum       string          `json:"checksum"`
	Size           int64           `json:"size"`
	Metadata       []MetadataValue `json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SetMetadata adds or replaces the value of a metadata type
func (d *Document) SetMetadata(metadataTypeID int64, value string) {
	for i := range d.Metadata {
		if d.Metadata[i].MetadataTypeID == metadataTypeID {
			d.Metadata[i].Value = value
			return
		}
	}
	d.Metadata = append(d.Metadata, MetadataValue{MetadataTypeID: metadataTypeID, Value: value})
}

// ListOptions filters document listings
type ListOptions struct {
	DocumentTypeID int64
	SourceID       int64
	Limit          int
	Offset         int
}

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=types.go Store

// Store persists documents and their types
type Store interface {
	ListDocumentTypes(ctx context.Context) ([]*DocumentType, error)
	GetDocumentType(ctx context.Context, id int64) (*DocumentType, error)
	CreateDocumentType(ctx context.Context, docType *DocumentType) (*DocumentType, error)

	ListMetadataTypes(ctx context.Context) ([]*MetadataType, error)
	GetMetadataType(ctx context.Context, id int64) (*MetadataType, error)
	GetMetadataTypeByName(ctx context.Context, name string) (*MetadataType, error)
	CreateMetadataType(ctx context.Context, metadataType *MetadataType) (*MetadataType, error)

	ListDocuments(ctx context.Context, opts ListOptions) ([]*Document, error)
	GetDocument(ctx context.Context, id int64) (*Document, error)
	CreateDocument(ctx context.Context, doc *Document) (*Document, error)
	UpdateDocumentMetadata(ctx context.Context, id int64, metadata []MetadataValue) error
}
