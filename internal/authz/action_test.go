package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		want   Route
	}{
		// Source collection
		{
			name:   "list sources",
			method: http.MethodGet,
			path:   "/api/v1/sources",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceGlobal},
		},
		{
			name:   "create source",
			method: http.MethodPost,
			path:   "/api/v1/sources/",
			want:   Route{Action: ActionSourcesCreate, ResourceType: ResourceGlobal},
		},

		// Source objects
		{
			name:   "get source",
			method: http.MethodGet,
			path:   "/api/v1/sources/3",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceSource, ResourceID: "3", Object: true},
		},
		{
			name:   "put source",
			method: http.MethodPut,
			path:   "/api/v1/sources/3",
			want:   Route{Action: ActionSourcesEdit, ResourceType: ResourceSource, ResourceID: "3", Object: true},
		},
		{
			name:   "patch source",
			method: http.MethodPatch,
			path:   "/api/v1/sources/3/",
			want:   Route{Action: ActionSourcesEdit, ResourceType: ResourceSource, ResourceID: "3", Object: true},
		},
		{
			name:   "delete source",
			method: http.MethodDelete,
			path:   "/api/v1/sources/3",
			want:   Route{Action: ActionSourcesDelete, ResourceType: ResourceSource, ResourceID: "3", Object: true},
		},
		{
			name:   "test source",
			method: http.MethodPost,
			path:   "/api/v1/sources/3/test",
			want:   Route{Action: ActionSourcesEdit, ResourceType: ResourceSource, ResourceID: "3", Object: true},
		},
		{
			name:   "source status",
			method: http.MethodGet,
			path:   "/api/v1/sources/3/status",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceSource, ResourceID: "3", Object: true},
		},
		{
			name:   "source files",
			method: http.MethodGet,
			path:   "/api/v1/sources/3/files",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceSource, ResourceID: "3", Object: true},
		},
		{
			name:   "source upload",
			method: http.MethodPost,
			path:   "/api/v1/sources/3/upload",
			want:   Route{Action: ActionDocumentsCreate, ResourceType: ResourceSource, ResourceID: "3", Object: true},
		},

		// Staging files
		{
			name:   "staging file detail",
			method: http.MethodGet,
			path:   "/api/v1/staging_folders_files/5/c2Nhbi5wZGY=/",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceSource, ResourceID: "5", Object: true},
		},
		{
			name:   "staging file image",
			method: http.MethodGet,
			path:   "/api/v1/staging_folders_files/5/c2Nhbi5wZGY=/image/",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceSource, ResourceID: "5", Object: true},
		},
		{
			name:   "staging file delete",
			method: http.MethodDelete,
			path:   "/api/v1/staging_folders_files/5/c2Nhbi5wZGY=/",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceSource, ResourceID: "5", Object: true},
		},
		{
			name:   "staging file upload",
			method: http.MethodPost,
			path:   "/api/v1/staging_folders_files/5/c2Nhbi5wZGY=/upload/",
			want:   Route{Action: ActionDocumentsCreate, ResourceType: ResourceSource, ResourceID: "5", Object: true},
		},
		{
			name:   "form style delete",
			method: http.MethodPost,
			path:   "/api/v1/staging_folders/5/files/c2Nhbi5wZGY=/delete/",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceSource, ResourceID: "5", Object: true},
		},
		{
			name:   "staging without source id",
			method: http.MethodGet,
			path:   "/api/v1/staging_folders_files",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceSource, Object: true},
		},

		// Global routes
		{
			name:   "backend choices",
			method: http.MethodGet,
			path:   "/api/v1/source_backends",
			want:   Route{Action: ActionSourcesView, ResourceType: ResourceGlobal},
		},
		{
			name:   "upload view",
			method: http.MethodGet,
			path:   "/api/v1/upload",
			want:   Route{Action: ActionDocumentsCreate, ResourceType: ResourceGlobal},
		},
		{
			name:   "wizard steps",
			method: http.MethodGet,
			path:   "/api/v1/wizard/steps",
			want:   Route{Action: ActionDocumentsCreate, ResourceType: ResourceGlobal},
		},
		{
			name:   "document list",
			method: http.MethodGet,
			path:   "/api/v1/documents",
			want:   Route{Action: ActionDocumentsView, ResourceType: ResourceGlobal},
		},
		{
			name:   "document download",
			method: http.MethodGet,
			path:   "/api/v1/documents/9/download",
			want:   Route{Action: ActionDocumentsView, ResourceType: ResourceDocument, ResourceID: "9", Object: true},
		},
		{
			name:   "document types list",
			method: http.MethodGet,
			path:   "/api/v1/document_types",
			want:   Route{Action: ActionDocumentsView, ResourceType: ResourceDocumentType},
		},
		{
			name:   "create metadata type",
			method: http.MethodPost,
			path:   "/api/v1/metadata_types",
			want:   Route{Action: ActionDocumentsCreate, ResourceType: ResourceDocumentType},
		},

		// Fallbacks
		{
			name:   "unknown GET",
			method: http.MethodGet,
			path:   "/some/arbitrary/path",
			want:   Route{Action: ActionDocumentsView, ResourceType: ResourceGlobal},
		},
		{
			name:   "unknown mutation requires delete",
			method: http.MethodPost,
			path:   "/api/v1/unknown",
			want:   Route{Action: ActionSourcesDelete, ResourceType: ResourceGlobal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveRoute(tt.method, tt.path))
			assert.Equal(t, tt.want.Action, RouteAction(tt.method, tt.path))
		})
	}
}
