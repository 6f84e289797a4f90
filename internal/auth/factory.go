package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/logger"
)

// NewAuthMiddleware creates authentication middleware based on config.
// Public paths always bypass authentication.
func NewAuthMiddleware(
	ctx context.Context,
	cfg *config.AuthConfig,
	factory validatorFactory,
) (func(http.Handler) http.Handler, error) {
	if cfg == nil {
		logger.Infof("auth: anonymous mode (no auth config)")
		return anonymousMiddleware, nil
	}

	switch cfg.Mode {
	// An empty mode means anonymous
	case config.AuthModeAnonymous, "":
		logger.Infof("auth: anonymous mode")
		return anonymousMiddleware, nil
	case config.AuthModeJWT:
		mw, err := createJWTMiddleware(ctx, cfg, factory)
		if err != nil {
			return nil, err
		}
		// Probes and /version stay reachable for load balancers without a token
		return WrapWithPublicPaths(mw, PublicPaths(cfg.PublicPaths)), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}

// createJWTMiddleware creates the multi-provider bearer token middleware from config
func createJWTMiddleware(
	ctx context.Context,
	cfg *config.AuthConfig,
	factory validatorFactory,
) (func(http.Handler) http.Handler, error) {
	if cfg.JWT == nil {
		return nil, errors.New("jwt configuration is required for jwt mode")
	}

	m, err := newMultiProviderMiddleware(ctx, cfg.JWT.Providers, cfg.JWT.Realm, factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-provider middleware: %w", err)
	}

	logger.Infof("auth: jwt mode (%d providers)", len(cfg.JWT.Providers))
	return m.Middleware, nil
}

// anonymousMiddleware is a no-op middleware that passes requests through without authentication.
func anonymousMiddleware(next http.Handler) http.Handler {
	return next
}
