package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/otel"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/storage"
)

const (
	defaultDocumentPageSize = 50
	maxDocumentPageSize     = 1000
)

// ListDocumentTypes returns every document type
func (s *dbService) ListDocumentTypes(ctx context.Context) ([]*documents.DocumentType, error) {
	ctx, span := s.startSpan(ctx, "dbService.ListDocumentTypes")
	defer span.End()

	list, err := s.documents.ListDocumentTypes(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(list)))
	return list, nil
}

// GetDocumentType returns one document type
func (s *dbService) GetDocumentType(ctx context.Context, id int64) (*documents.DocumentType, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetDocumentType",
		trace.WithAttributes(otel.AttrDocumentTypeID.Int64(id)))
	defer span.End()

	docType, err := s.documents.GetDocumentType(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return docType, nil
}

// CreateDocumentType creates a document type
func (s *dbService) CreateDocumentType(
	ctx context.Context, docType *documents.DocumentType,
) (*documents.DocumentType, error) {
	ctx, span := s.startSpan(ctx, "dbService.CreateDocumentType")
	defer span.End()

	docType.Label = strings.TrimSpace(docType.Label)
	if docType.Label == "" {
		return nil, sources.NewValidationError("label", "This field is required.")
	}
	created, err := s.documents.CreateDocumentType(ctx, docType)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrDocumentTypeID.Int64(created.ID))
	return created, nil
}

// ListMetadataTypes returns every metadata type
func (s *dbService) ListMetadataTypes(ctx context.Context) ([]*documents.MetadataType, error) {
	ctx, span := s.startSpan(ctx, "dbService.ListMetadataTypes")
	defer span.End()

	list, err := s.documents.ListMetadataTypes(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(list)))
	return list, nil
}

// CreateMetadataType creates a metadata type
func (s *dbService) CreateMetadataType(
	ctx context.Context, metadataType *documents.MetadataType,
) (*documents.MetadataType, error) {
	ctx, span := s.startSpan(ctx, "dbService.CreateMetadataType")
	defer span.End()

	metadataType.Name = strings.TrimSpace(metadataType.Name)
	if metadataType.Name == "" {
		return nil, sources.NewValidationError("name", "This field is required.")
	}
	created, err := s.documents.CreateMetadataType(ctx, metadataType)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return created, nil
}

// ListDocuments returns documents, newest first
func (s *dbService) ListDocuments(ctx context.Context, opts documents.ListOptions) ([]*documents.Document, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultDocumentPageSize
	}
	if opts.Limit > maxDocumentPageSize {
		opts.Limit = maxDocumentPageSize
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	ctx, span := s.startSpan(ctx, "dbService.ListDocuments",
		trace.WithAttributes(otel.AttrPageSize.Int(opts.Limit)))
	defer span.End()

	list, err := s.documents.ListDocuments(ctx, opts)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(list)))
	return list, nil
}

// GetDocument returns one document
func (s *dbService) GetDocument(ctx context.Context, id int64) (*documents.Document, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetDocument",
		trace.WithAttributes(otel.AttrDocumentID.Int64(id)))
	defer span.End()

	doc, err := s.documents.GetDocument(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return doc, nil
}

// OpenDocumentFile opens the stored file of a document
func (s *dbService) OpenDocumentFile(ctx context.Context, id int64) (*documents.Document, io.ReadCloser, error) {
	ctx, span := s.startSpan(ctx, "dbService.OpenDocumentFile",
		trace.WithAttributes(otel.AttrDocumentID.Int64(id)))
	defer span.End()

	doc, err := s.documents.GetDocument(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, nil, err
	}
	if s.files == nil {
		return nil, nil, fmt.Errorf("%w: document storage is not configured", service.ErrDocumentFileNotFound)
	}

	r, err := s.files.Open(ctx, doc.FileKey)
	if errors.Is(err, storage.ErrNotFound) {
		err = fmt.Errorf("%w: %s", service.ErrDocumentFileNotFound, doc.FileKey)
	}
	if err != nil {
		otel.RecordError(span, err)
		return nil, nil, err
	}
	return doc, r, nil
}
