package authz

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/auth"
	"github.com/stacklok/docsource-server/internal/config"
)

// ForbiddenResponse is the body of a 403 answer
type ForbiddenResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Details *ForbiddenDetail `json:"details,omitempty"`
}

// ForbiddenDetail names the action a request lacked and the scopes that grant it
type ForbiddenDetail struct {
	RequiredAction string   `json:"required_action"`
	UserScopes     []string `json:"user_scopes"`
	Hint           string   `json:"hint"`
}

// Middleware evaluates every authenticated request against the authorizer.
// Requests without an identity in the context (anonymous mode, public paths)
// pass through unchecked.
func Middleware(authorizer Authorizer, scopeMapping []config.ScopeMappingEntry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// Scopes from the token become granted actions through the mapping
			grants := GrantsFromClaims(identity.Claims, scopeMapping)
			route := ResolveRoute(r.Method, r.URL.Path)
			log := slog.With(
				"subject", identity.Subject,
				"action", route.Action,
				"method", r.Method,
				"path", r.URL.Path,
			)

			decision, err := authorizer.Authorize(r.Context(), Request{
				Subject:        identity.Subject,
				GrantedActions: grants.Actions,
				Action:         route.Action,
				ResourceType:   route.ResourceType,
				ResourceID:     route.ResourceID,
			})
			// Fail closed when the policies cannot be evaluated
			if err != nil {
				log.Error("Authorization evaluation failed", "error", err)
				common.WriteErrorResponse(w, "authorization evaluation failed", http.StatusInternalServerError)
				return
			}

			if decision.Allowed {
				log.Debug("Authorization permitted", "reasons", decision.Reasons)
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("Authorization denied", "scopes", grants.Scopes, "granted_actions", grants.Actions)
			// Objects outside the caller's permissions are reported as missing
			if route.Object {
				common.WriteErrorResponse(w, "not found", http.StatusNotFound)
				return
			}
			common.WriteJSONResponse(w, ForbiddenResponse{
				Error:   "forbidden",
				Message: "You do not have permission to perform this action.",
				Details: &ForbiddenDetail{
					RequiredAction: route.Action,
					UserScopes:     grants.Scopes,
					Hint:           scopeHint(route.Action, scopeMapping),
				},
			}, http.StatusForbidden)
		})
	}
}

// NoopMiddleware is used when authorization is disabled
func NoopMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

func scopeHint(action string, scopeMapping []config.ScopeMappingEntry) string {
	scopes := scopesGranting(action, scopeMapping)
	if len(scopes) == 0 {
		return "No configured scopes grant the required action."
	}
	return "This operation requires one of the following scopes: " + strings.Join(scopes, ", ")
}
