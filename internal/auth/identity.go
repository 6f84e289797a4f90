package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller of a request
type Identity struct {
	// Subject is the "sub" claim of the token
	Subject string

	// Provider names the provider that accepted the token
	Provider string

	// Claims holds every validated claim
	Claims jwt.MapClaims
}

type identityKey struct{}

// WithIdentity stores the identity in the context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by the auth middleware.
// Requests on public paths and in anonymous mode carry none.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	return identity, ok && identity != nil
}

// UserID returns the subject of the request identity, or empty when anonymous
func UserID(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.Subject
	}
	return ""
}
