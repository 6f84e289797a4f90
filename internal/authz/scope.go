package authz

import (
	"slices"
	"strings"

	"github.com/stacklok/docsource-server/internal/config"
)

// Grants is what the scopes of one token entitle its holder to
type Grants struct {
	Scopes  []string
	Actions []string
}

// GrantsFromClaims reads the token scopes from claims and resolves them
// against mapping. Actions are sorted and never nil.
func GrantsFromClaims(claims map[string]any, mapping []config.ScopeMappingEntry) Grants {
	scopes := scopesFromClaims(claims)
	return Grants{Scopes: scopes, Actions: actionsForScopes(scopes, mapping)}
}

// scopesFromClaims accepts the space separated "scope" claim and falls back
// to the "scp" list some identity providers issue instead.
func scopesFromClaims(claims map[string]any) []string {
	if raw, ok := claims["scope"].(string); ok && raw != "" {
		return strings.Fields(raw)
	}

	var scopes []string
	switch scp := claims["scp"].(type) {
	case []any:
		for _, v := range scp {
			if s, ok := v.(string); ok && s != "" {
				scopes = append(scopes, s)
			}
		}
	case []string:
		scopes = append(scopes, scp...)
	case string:
		scopes = strings.Fields(scp)
	}
	return scopes
}

func actionsForScopes(scopes []string, mapping []config.ScopeMappingEntry) []string {
	actions := []string{}
	for _, entry := range mapping {
		if slices.Contains(scopes, entry.Scope) {
			actions = append(actions, entry.Actions...)
		}
	}
	slices.Sort(actions)
	return slices.Compact(actions)
}

// scopesGranting lists the configured scopes that grant action
func scopesGranting(action string, mapping []config.ScopeMappingEntry) []string {
	var scopes []string
	for _, entry := range mapping {
		if slices.Contains(entry.Actions, action) {
			scopes = append(scopes, entry.Scope)
		}
	}
	return scopes
}
