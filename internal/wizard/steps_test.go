package wizard

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/documents/mocks"
)

func TestDecodeMetadataQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		want    []documents.MetadataValue
		wantErr string
	}{
		{
			name:  "empty query",
			query: "",
			want:  []documents.MetadataValue{},
		},
		{
			name:  "pairs ordered by index",
			query: "metadata1_metadata_type_id=7&metadata1_value=b&metadata0_metadata_type_id=3&metadata0_value=a&other=x",
			want: []documents.MetadataValue{
				{MetadataTypeID: 3, Value: "a"},
				{MetadataTypeID: 7, Value: "b"},
			},
		},
		{
			name:  "type without value stores empty value",
			query: "metadata0_metadata_type_id=3",
			want:  []documents.MetadataValue{{MetadataTypeID: 3, Value: ""}},
		},
		{
			name:    "value without type",
			query:   "metadata0_value=a",
			wantErr: "metadata0_value has no matching metadata type",
		},
		{
			name:    "non numeric type id",
			query:   "metadata0_metadata_type_id=abc&metadata0_value=a",
			wantErr: "invalid metadata type id: abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			query, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := DecodeMetadataQuery(query)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetadataStepPostUploadProcess(t *testing.T) {
	t.Parallel()

	query := url.Values{
		"metadata0_metadata_type_id": {"3"},
		"metadata0_value":            {"ACME"},
	}

	t.Run("stores metadata valid for the document type", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)

		store.EXPECT().GetDocumentType(gomock.Any(), int64(1)).
			Return(&documents.DocumentType{ID: 1, Label: "Invoice", MetadataTypeIDs: []int64{3}}, nil)
		store.EXPECT().UpdateDocumentMetadata(gomock.Any(), int64(10),
			[]documents.MetadataValue{{MetadataTypeID: 3, Value: "ACME"}}).Return(nil)

		doc := &documents.Document{ID: 10, DocumentTypeID: 1}
		require.NoError(t, NewMetadataStep(store).PostUploadProcess(context.Background(), doc, query))
		assert.Equal(t, "ACME", doc.Metadata[0].Value)
	})

	t.Run("rejects metadata of another document type", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)

		store.EXPECT().GetDocumentType(gomock.Any(), int64(1)).
			Return(&documents.DocumentType{ID: 1, Label: "Invoice"}, nil)

		doc := &documents.Document{ID: 10, DocumentTypeID: 1}
		err := NewMetadataStep(store).PostUploadProcess(context.Background(), doc, query)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid for document type Invoice")
	})

	t.Run("no metadata in query touches nothing", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)

		doc := &documents.Document{ID: 10, DocumentTypeID: 1}
		require.NoError(t, NewMetadataStep(store).PostUploadProcess(context.Background(), doc, url.Values{}))
	})
}

func TestNewDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry(nil)
	steps := r.GetAll()
	require.Len(t, steps, 2)
	assert.Equal(t, StepDocumentType, steps[0].Name())
	assert.Equal(t, StepMetadata, steps[1].Name())
}
