package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/docsource-server/internal/auth/mocks"
	"github.com/stacklok/docsource-server/internal/config"
)

func TestNewAuthMiddleware(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	mockValidatorFactory := func(_ context.Context, _ config.JWTProviderConfig) (tokenValidatorInterface, error) {
		return mocks.NewMocktokenValidatorInterface(ctrl), nil
	}
	failingFactory := func(_ context.Context, _ config.JWTProviderConfig) (tokenValidatorInterface, error) {
		return nil, errors.New("bad key")
	}

	tests := []struct {
		name             string
		config           *config.AuthConfig
		validatorFactory validatorFactory
		wantErr          string
	}{
		{
			name:             "nil config returns anonymous",
			config:           nil,
			validatorFactory: DefaultValidatorFactory,
		},
		{
			name:             "empty mode returns anonymous",
			config:           &config.AuthConfig{Mode: ""},
			validatorFactory: DefaultValidatorFactory,
		},
		{
			name:             "explicit anonymous mode",
			config:           &config.AuthConfig{Mode: config.AuthModeAnonymous},
			validatorFactory: DefaultValidatorFactory,
		},
		{
			name:             "unsupported mode returns error",
			config:           &config.AuthConfig{Mode: "custom"},
			validatorFactory: DefaultValidatorFactory,
			wantErr:          "unsupported auth mode",
		},
		{
			name:             "jwt mode without jwt section returns error",
			config:           &config.AuthConfig{Mode: config.AuthModeJWT},
			validatorFactory: mockValidatorFactory,
			wantErr:          "jwt configuration is required",
		},
		{
			name: "jwt mode with no providers returns error",
			config: &config.AuthConfig{
				Mode: config.AuthModeJWT,
				JWT:  &config.JWTConfig{},
			},
			validatorFactory: mockValidatorFactory,
			wantErr:          "at least one provider",
		},
		{
			name: "jwt mode with failing validator",
			config: &config.AuthConfig{
				Mode: config.AuthModeJWT,
				JWT: &config.JWTConfig{
					Providers: []config.JWTProviderConfig{{Name: "broken", KeyFile: "/nonexistent"}},
				},
			},
			validatorFactory: failingFactory,
			wantErr:          `provider "broken"`,
		},
		{
			name: "jwt mode with valid provider",
			config: &config.AuthConfig{
				Mode: config.AuthModeJWT,
				JWT: &config.JWTConfig{
					Providers: []config.JWTProviderConfig{{
						Name:     "test-provider",
						Issuer:   "https://issuer.example.com",
						Audience: "test-audience",
						KeyFile:  "/etc/docsource/key",
					}},
				},
			},
			validatorFactory: mockValidatorFactory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			middleware, err := NewAuthMiddleware(context.Background(), tt.config, tt.validatorFactory)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, middleware)
		})
	}
}

func TestNewAuthMiddleware_PublicPaths(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	validator := mocks.NewMocktokenValidatorInterface(ctrl)
	cfg := &config.AuthConfig{
		Mode:        config.AuthModeJWT,
		PublicPaths: []string{"/docs"},
		JWT: &config.JWTConfig{
			Providers: []config.JWTProviderConfig{{Name: "test", KeyFile: "/etc/docsource/key"}},
		},
	}

	middleware, err := NewAuthMiddleware(context.Background(), cfg,
		func(_ context.Context, _ config.JWTProviderConfig) (tokenValidatorInterface, error) {
			return validator, nil
		})
	require.NoError(t, err)

	wrapped := middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/health", wantStatus: http.StatusOK},
		{path: "/readiness", wantStatus: http.StatusOK},
		{path: "/docs/index.html", wantStatus: http.StatusOK},
		{path: "/api/v1/sources", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		assert.Equal(t, tt.wantStatus, rr.Code, tt.path)
	}
}

func TestAnonymousMiddleware(t *testing.T) {
	t.Parallel()

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := IdentityFromContext(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusOK)
	})

	wrapped := anonymousMiddleware(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	assert.True(t, called, "handler should be called")
	assert.Equal(t, http.StatusOK, rr.Code)
}
