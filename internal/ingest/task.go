// Package ingest turns shared uploaded files into documents using a bounded
// in-process worker queue.
package ingest

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/stacklok/docsource-server/internal/documents"
)

// CallbackQueryString is the callback kwarg carrying the wizard query string
const CallbackQueryString = "query_string"

// UploadTask is a queued request to create documents from a shared uploaded file
type UploadTask struct {
	CallbackKwargs       map[string]string         `json:"callback_kwargs,omitempty"`
	Description          string                    `json:"description"`
	DocumentTypeID       int64                     `json:"document_type_id"`
	Label                string                    `json:"label"`
	Language             string                    `json:"language"`
	SharedUploadedFileID uuid.UUID                 `json:"shared_uploaded_file_id"`
	SourceID             int64                     `json:"source_id"`
	UserID               string                    `json:"user_id,omitempty"`
	Expand               bool                      `json:"expand"`
	Metadata             []documents.MetadataValue `json:"metadata,omitempty"`
	Extra                map[string]any            `json:"extra,omitempty"`
}

// Query returns the wizard query string carried by the callback kwargs
func (t *UploadTask) Query() url.Values {
	raw := t.CallbackKwargs[CallbackQueryString]
	if raw == "" {
		return url.Values{}
	}
	query, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	return query
}
