// Package auth authenticates API requests with bearer JWTs issued by one or
// more configured providers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/config"
)

var (
	errNoProviderAccepted = errors.New("no provider accepted the token")
	errMissingBearerToken = errors.New("authorization header missing")
	errMalformedBearer    = errors.New("authorization header is not a bearer token")
)

// Error codes of RFC 6750 section 3
const (
	errorCodeInvalidRequest = "invalid_request"
	errorCodeInvalidToken   = "invalid_token"
)

// defaultRealm is announced in WWW-Authenticate when no realm is configured
const defaultRealm = "docsource"

type providerValidator struct {
	name      string
	validator tokenValidatorInterface
}

// multiProviderMiddleware tries each provider in configuration order and
// accepts the token as soon as one of them validates it.
type multiProviderMiddleware struct {
	providers []providerValidator
	realm     string
}

func newMultiProviderMiddleware(
	ctx context.Context,
	providers []config.JWTProviderConfig,
	realm string,
	factory validatorFactory,
) (*multiProviderMiddleware, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider must be configured")
	}
	if realm == "" {
		realm = defaultRealm
	}

	// Validators are built up front so a bad key file fails startup, not the first request
	m := &multiProviderMiddleware{realm: realm}
	for _, pc := range providers {
		v, err := factory(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("failed to create validator for provider %q: %w", pc.Name, err)
		}
		m.providers = append(m.providers, providerValidator{name: pc.Name, validator: v})
	}
	return m, nil
}

// Middleware stores the Identity of a valid bearer token in the request context
// and answers 401 otherwise.
func (m *multiProviderMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := slog.With("remote_addr", r.RemoteAddr, "path", r.URL.Path)

		token, err := extractBearerToken(r)
		if err != nil {
			log.Warn("Rejected request without bearer token", "error", err)
			m.unauthorized(w, errorCodeInvalidRequest, "missing or malformed authorization header")
			return
		}

		provider, claims, err := m.validate(r.Context(), token)
		if err != nil {
			log.Warn("Token validation failed", "error", err)
			m.unauthorized(w, errorCodeInvalidToken, "token validation failed")
			return
		}

		// A token without sub still authenticates; authz uses the anonymous principal
		subject, _ := claims["sub"].(string)
		log.Info("Authentication successful", "provider", provider, "subject", subject)

		ctx := WithIdentity(r.Context(), &Identity{
			Subject:  subject,
			Provider: provider,
			Claims:   claims,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validate returns the name of the first provider accepting token with its claims.
// When every provider rejects it the individual errors are joined.
func (m *multiProviderMiddleware) validate(ctx context.Context, token string) (string, jwt.MapClaims, error) {
	errs := []error{errNoProviderAccepted}
	for _, p := range m.providers {
		claims, err := p.validator.ValidateToken(ctx, token)
		if err == nil {
			return p.name, claims, nil
		}
		// Expected when several providers are configured, so only logged at debug
		slog.Debug("Provider rejected token", "provider", p.name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
	}
	return "", nil, errors.Join(errs...)
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingBearerToken
	}
	// The scheme is case-insensitive (RFC 7235 section 2.1)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedBearer
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errMalformedBearer
	}
	return token, nil
}

// sanitizeHeaderValue drops CR and LF and escapes quotes so the value fits a quoted-string
func sanitizeHeaderValue(s string) string {
	if !strings.ContainsAny(s, "\r\n\"") {
		return s
	}
	return strings.NewReplacer("\r", "", "\n", "", `"`, `\"`).Replace(s)
}

func (m *multiProviderMiddleware) unauthorized(w http.ResponseWriter, errCode, description string) {
	// The challenge must be set before the body is written
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s", error="%s", error_description="%s"`,
		sanitizeHeaderValue(m.realm), errCode, sanitizeHeaderValue(description)))
	common.WriteErrorResponse(w, description, http.StatusUnauthorized)
}

// WrapWithPublicPaths skips authMw for requests on one of publicPaths
func WrapWithPublicPaths(authMw func(http.Handler) http.Handler, publicPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authenticated := authMw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path, publicPaths) {
				next.ServeHTTP(w, r)
				return
			}
			authenticated.ServeHTTP(w, r)
		})
	}
}
