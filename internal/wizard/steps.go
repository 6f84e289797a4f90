package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"

	"github.com/stacklok/docsource-server/internal/documents"
)

const (
	// StepDocumentType is the name of the document type selection step
	StepDocumentType = "document_type"
	// StepMetadata is the name of the metadata entry step
	StepMetadata = "metadata"
)

// DocumentTypeStep selects the document type. The type is already fixed
// when the upload task is queued, so nothing happens after the upload.
type DocumentTypeStep struct{}

// Name implements Step
func (DocumentTypeStep) Name() string { return StepDocumentType }

// Number implements Step
func (DocumentTypeStep) Number() int { return 0 }

// Label implements Step
func (DocumentTypeStep) Label() string { return "Select document type" }

// PostUploadProcess implements Step
func (DocumentTypeStep) PostUploadProcess(context.Context, *documents.Document, url.Values) error {
	return nil
}

var metadataQueryKey = regexp.MustCompile(`^metadata(\d+)_(metadata_type_id|value)$`)

// MetadataStep stores the metadata entered in the wizard, passed as
// metadataN_metadata_type_id and metadataN_value query pairs
type MetadataStep struct {
	store documents.Store
}

// NewMetadataStep creates the metadata step
func NewMetadataStep(store documents.Store) *MetadataStep {
	return &MetadataStep{store: store}
}

// Name implements Step
func (*MetadataStep) Name() string { return StepMetadata }

// Number implements Step
func (*MetadataStep) Number() int { return 1 }

// Label implements Step
func (*MetadataStep) Label() string { return "Enter document metadata" }

// PostUploadProcess implements Step
func (s *MetadataStep) PostUploadProcess(ctx context.Context, doc *documents.Document, query url.Values) error {
	values, err := DecodeMetadataQuery(query)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	docType, err := s.store.GetDocumentType(ctx, doc.DocumentTypeID)
	if err != nil {
		return err
	}

	for _, value := range values {
		if !docType.HasMetadataType(value.MetadataTypeID) {
			return fmt.Errorf("metadata type %d is not valid for document type %s",
				value.MetadataTypeID, docType.Label)
		}
		doc.SetMetadata(value.MetadataTypeID, value.Value)
	}

	return s.store.UpdateDocumentMetadata(ctx, doc.ID, doc.Metadata)
}

// DecodeMetadataQuery extracts the metadataN pairs of a query, ordered by N
func DecodeMetadataQuery(query url.Values) ([]documents.MetadataValue, error) {
	type entry struct {
		typeID   string
		value    string
		hasValue bool
	}
	entries := make(map[int]*entry)

	for key, vals := range query {
		match := metadataQueryKey.FindStringSubmatch(key)
		if match == nil || len(vals) == 0 {
			continue
		}
		index, _ := strconv.Atoi(match[1])
		e, ok := entries[index]
		if !ok {
			e = &entry{}
			entries[index] = e
		}
		if match[2] == "metadata_type_id" {
			e.typeID = vals[0]
		} else {
			e.value = vals[0]
			e.hasValue = true
		}
	}

	indexes := make([]int, 0, len(entries))
	for index := range entries {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	result := make([]documents.MetadataValue, 0, len(indexes))
	for _, index := range indexes {
		e := entries[index]
		if e.typeID == "" {
			if e.hasValue {
				return nil, fmt.Errorf("metadata%d_value has no matching metadata type", index)
			}
			continue
		}
		typeID, err := strconv.ParseInt(e.typeID, 10, 64)
		if err != nil {
			return nil, errors.New("invalid metadata type id: " + e.typeID)
		}
		result = append(result, documents.MetadataValue{MetadataTypeID: typeID, Value: e.value})
	}
	return result, nil
}

// NewDefaultRegistry returns a registry with the built-in steps
func NewDefaultRegistry(store documents.Store) *Registry {
	r := NewRegistry()
	// The built-in steps have distinct names and numbers
	_ = r.Register(DocumentTypeStep{})
	_ = r.Register(NewMetadataStep(store))
	return r
}
