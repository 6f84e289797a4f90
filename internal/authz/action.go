package authz

import (
	"net/http"
	"strings"

	"github.com/stacklok/docsource-server/internal/config"
)

// Action aliases from config for convenience within the authz package.
const (
	ActionSourcesView     = config.ActionSourcesView
	ActionSourcesCreate   = config.ActionSourcesCreate
	ActionSourcesEdit     = config.ActionSourcesEdit
	ActionSourcesDelete   = config.ActionSourcesDelete
	ActionDocumentsCreate = config.ActionDocumentsCreate
	ActionDocumentsView   = config.ActionDocumentsView
)

// Cedar resource entity types
const (
	ResourceGlobal       = "Global"
	ResourceSource       = "Source"
	ResourceDocument     = "Document"
	ResourceDocumentType = "DocumentType"
)

const apiPrefix = "/api/v1/"

// Route is the authorization requirement of one API request
type Route struct {
	Action       string
	ResourceType string
	ResourceID   string

	// Object is true when the route addresses a single object. Denials on
	// object routes answer 404 so callers cannot probe for existence.
	Object bool
}

// RouteAction determines the required Cedar action based on HTTP method and path.
func RouteAction(method, path string) string {
	return ResolveRoute(method, path).Action
}

// ResolveRoute maps an HTTP method and path to its authorization requirement.
func ResolveRoute(method, path string) Route {
	if !strings.HasPrefix(path, apiPrefix) {
		return fallbackRoute(method)
	}
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, apiPrefix), "/"), "/")

	switch segments[0] {
	case "sources":
		return sourceRoute(method, segments[1:])
	case "source_backends":
		return Route{Action: ActionSourcesView, ResourceType: ResourceGlobal}
	case "upload", "wizard":
		return Route{Action: ActionDocumentsCreate, ResourceType: ResourceGlobal}
	case "staging_folders_files", "staging_folders":
		return stagingRoute(method, segments[1:])
	case "documents":
		if len(segments) > 1 {
			return Route{Action: ActionDocumentsView, ResourceType: ResourceDocument, ResourceID: segments[1], Object: true}
		}
		return Route{Action: ActionDocumentsView, ResourceType: ResourceGlobal}
	case "document_types", "metadata_types":
		if method == http.MethodGet {
			return Route{Action: ActionDocumentsView, ResourceType: ResourceDocumentType}
		}
		return Route{Action: ActionDocumentsCreate, ResourceType: ResourceDocumentType}
	}
	return fallbackRoute(method)
}

// sourceRoute covers /sources and /sources/{id}/...
func sourceRoute(method string, segments []string) Route {
	if len(segments) == 0 || segments[0] == "" {
		if method == http.MethodPost {
			return Route{Action: ActionSourcesCreate, ResourceType: ResourceGlobal}
		}
		return Route{Action: ActionSourcesView, ResourceType: ResourceGlobal}
	}

	route := Route{ResourceType: ResourceSource, ResourceID: segments[0], Object: true}
	if len(segments) == 1 {
		switch method {
		case http.MethodGet, http.MethodHead:
			route.Action = ActionSourcesView
		case http.MethodPut, http.MethodPatch:
			route.Action = ActionSourcesEdit
		default:
			route.Action = ActionSourcesDelete
		}
		return route
	}

	switch segments[1] {
	case "test":
		route.Action = ActionSourcesEdit
	case "upload":
		route.Action = ActionDocumentsCreate
	default:
		route.Action = ActionSourcesView
	}
	return route
}

// stagingRoute covers staging file detail, image, delete and upload routes.
// Every one of them starts with the source id.
func stagingRoute(method string, segments []string) Route {
	route := Route{Action: ActionSourcesView, ResourceType: ResourceSource, Object: true}
	if len(segments) == 0 {
		return route
	}
	route.ResourceID = segments[0]
	if method == http.MethodPost && segments[len(segments)-1] == "upload" {
		route.Action = ActionDocumentsCreate
	}
	return route
}

// fallbackRoute requires the broadest action for unknown mutating requests
func fallbackRoute(method string) Route {
	if method == http.MethodGet || method == http.MethodHead {
		return Route{Action: ActionDocumentsView, ResourceType: ResourceGlobal}
	}
	return Route{Action: ActionSourcesDelete, ResourceType: ResourceGlobal}
}
