package authz

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	cedar "github.com/cedar-policy/cedar-go"

	"github.com/stacklok/docsource-server/internal/config"
)

// cedarNamespace prefixes every entity type in the policies
const cedarNamespace = "DocSource"

// anonymousSubject names principals whose token carries no subject
const anonymousSubject = "authenticated"

type cedarAuthorizer struct {
	policySet *cedar.PolicySet
}

// NewCedarAuthorizer parses policyBytes, or the built-in policies when nil
func NewCedarAuthorizer(policyBytes []byte) (*cedarAuthorizer, error) {
	if policyBytes == nil {
		policyBytes = []byte(defaultPolicies)
	}
	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", policyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Cedar policies: %w", err)
	}
	return &cedarAuthorizer{policySet: ps}, nil
}

// NewAuthorizerFromConfig loads the configured policy file, falling back to the built-in policies
func NewAuthorizerFromConfig(cfg *config.AuthzConfig) (Authorizer, error) {
	var policyBytes []byte
	if cfg != nil && cfg.PolicyFile != "" {
		data, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file: %w", err)
		}
		policyBytes = data
	}
	return NewCedarAuthorizer(policyBytes)
}

func entityUID(kind, id string) cedar.EntityUID {
	return cedar.NewEntityUID(cedar.EntityType(cedarNamespace+"::"+kind), cedar.String(id))
}

// principal builds the User entity; grantedActions is what the policies test
func principal(req Request) (cedar.EntityUID, cedar.Entity) {
	subject := req.Subject
	if subject == "" {
		subject = anonymousSubject
	}
	uid := entityUID("User", subject)

	granted := make([]cedar.Value, 0, len(req.GrantedActions))
	for _, a := range req.GrantedActions {
		granted = append(granted, cedar.String(a))
	}
	return uid, cedar.Entity{
		UID: uid,
		Attributes: cedar.NewRecord(cedar.RecordMap{
			"grantedActions": cedar.NewSet(granted...),
		}),
	}
}

// resource addresses the Global singleton unless the route names an object
func resource(req Request) cedar.EntityUID {
	kind, id := req.ResourceType, req.ResourceID
	if kind == "" {
		kind = ResourceGlobal
	}
	if id == "" {
		id = "global"
	}
	return entityUID(kind, id)
}

// Authorize evaluates req against the policy set
func (a *cedarAuthorizer) Authorize(_ context.Context, req Request) (Decision, error) {
	principalUID, principalEntity := principal(req)
	resourceUID := resource(req)

	// Only the principal carries attributes; actions and resources are bare UIDs
	decision, diag := cedar.Authorize(a.policySet, cedar.EntityMap{principalUID: principalEntity}, cedar.Request{
		Principal: principalUID,
		Action:    entityUID("Action", req.Action),
		Resource:  resourceUID,
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	})

	// Reasons list the IDs of the policies that permitted the request
	reasons := make([]string, 0, len(diag.Reasons))
	for _, r := range diag.Reasons {
		reasons = append(reasons, string(r.PolicyID))
	}

	slog.Debug("Authorization decision",
		"action", req.Action,
		"resource_type", string(resourceUID.Type),
		"resource_id", string(resourceUID.ID),
		"allowed", decision == cedar.Allow,
		"reasons", reasons,
	)

	return Decision{Allowed: decision == cedar.Allow, Reasons: reasons}, nil
}
