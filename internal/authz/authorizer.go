// Package authz decides whether an authenticated caller may perform the action
// an API route requires. Decisions are made by Cedar policies evaluated against
// the actions the caller's token scopes grant.
package authz

import "context"

//go:generate mockgen -destination=mocks/mock_authorizer.go -package=mocks -source=authorizer.go Authorizer

// Authorizer decides authorization requests
type Authorizer interface {
	Authorize(ctx context.Context, req Request) (Decision, error)
}

// Request is one authorization question
type Request struct {
	// Subject is the token subject
	Subject string

	// GrantedActions are the actions the token scopes map to
	GrantedActions []string

	// Action is the action the route requires, such as "sources.edit"
	Action string

	// ResourceType and ResourceID address the object of the route.
	// Both are empty for collection routes.
	ResourceType string
	ResourceID   string
}

// Decision is the answer to a Request
type Decision struct {
	Allowed bool

	// Reasons lists the ids of the policies that produced the decision
	Reasons []string
}
