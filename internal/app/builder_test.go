package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/docsource-server/internal/app/storage/mocks"
	"github.com/stacklok/docsource-server/internal/config"
	mocksvc "github.com/stacklok/docsource-server/internal/service/mocks"
	"github.com/stacklok/docsource-server/internal/sources"
)

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	cfg := &config.Config{DataDir: dataDir}

	built, err := baseConfig(WithConfig(cfg))
	require.NoError(t, err)
	require.NotNil(t, built)
	assert.Equal(t, defaultHTTPAddress, built.address)
	assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
	assert.Equal(t, dataDir, built.dataDir)
	assert.Same(t, cfg, built.config)
}

func TestBaseConfig_NilConfig(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(WithAddress(":9090"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")
	assert.Nil(t, built)
}

func TestBaseConfig_DataDirectoryOverridesConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{DataDir: "/var/lib/docsource"}

	built, err := baseConfig(
		WithConfig(cfg),
		WithAddress(":8888"),
		WithDataDirectory("/tmp/test-data"),
	)
	require.NoError(t, err)
	assert.Equal(t, ":8888", built.address)
	assert.Equal(t, "/tmp/test-data", built.dataDir)
	assert.Equal(t, "/tmp/test-data", built.config.GetDataDir())
	assert.Equal(t, "/var/lib/docsource", cfg.DataDir, "caller config is left untouched")
}

func TestBaseConfig_OptionError(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(
		WithConfig(&config.Config{}),
		WithAddress(":"),
	)
	require.Error(t, err)
	require.Nil(t, built)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		address string
		want    string
		wantErr bool
	}{
		{name: "valid address", address: ":9999", want: ":9999"},
		{name: "valid address with host", address: "127.0.0.1:9999", want: "127.0.0.1:9999"},
		{name: "valid address with localhost", address: "localhost:9999", want: "localhost:9999"},
		{name: "invalid empty address", address: "", wantErr: true},
		{name: "invalid empty port", address: ":", wantErr: true},
		{name: "invalid missing port", address: "localhost", wantErr: true},
		{name: "invalid port out of range", address: "localhost:999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &docSourceAppConfig{}
			err := WithAddress(tt.address)(cfg)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.address)
		})
	}
}

func TestWithRequestTimeout(t *testing.T) {
	t.Parallel()

	cfg := &docSourceAppConfig{}
	require.NoError(t, WithRequestTimeout(5*time.Second)(cfg))
	assert.Equal(t, 5*time.Second, cfg.requestTimeout)

	require.Error(t, WithRequestTimeout(0)(cfg))
	require.Error(t, WithRequestTimeout(-time.Second)(cfg))
	assert.Equal(t, 5*time.Second, cfg.requestTimeout)
}

func TestWithMiddlewares(t *testing.T) {
	t.Parallel()
	cfg := &docSourceAppConfig{}
	middleware1 := func(next http.Handler) http.Handler { return next }
	middleware2 := func(next http.Handler) http.Handler { return next }

	require.NoError(t, WithMiddlewares(middleware1, middleware2)(cfg))
	assert.Len(t, cfg.middlewares, 2)
}

func TestWithInjectedComponents(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := &docSourceAppConfig{}
	factory := mocks.NewMockFactory(ctrl)
	registry := sources.NewDefaultRegistry()
	handler := http.NotFoundHandler()

	for _, opt := range []DocSourceAppOptions{
		WithStorageFactory(factory),
		WithBackendRegistry(registry),
		WithMetricsHandler(handler),
		WithAuthMiddleware(func(next http.Handler) http.Handler { return next }),
	} {
		require.NoError(t, opt(cfg))
	}

	assert.Equal(t, factory, cfg.storageFactory)
	assert.Same(t, registry, cfg.registry)
	assert.NotNil(t, cfg.metricsHandler)
	assert.NotNil(t, cfg.authMiddleware)
}

func passthrough(next http.Handler) http.Handler { return next }

func TestBuildHTTPServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name           string
		config         *docSourceAppConfig
		wantAddr       string
		wantReadTO     time.Duration
		wantWriteTO    time.Duration
		wantIdleTO     time.Duration
		wantMiddleware int
	}{
		{
			name: "with default middlewares",
			config: &docSourceAppConfig{
				address:        ":8080",
				requestTimeout: 10 * time.Second,
				readTimeout:    10 * time.Second,
				writeTimeout:   15 * time.Second,
				idleTimeout:    60 * time.Second,
			},
			wantAddr:    ":8080",
			wantReadTO:  10 * time.Second,
			wantWriteTO: 15 * time.Second,
			wantIdleTO:  60 * time.Second,
			// tracing, 5 defaults, auth, authz
			wantMiddleware: 8,
		},
		{
			name: "with custom middlewares",
			config: &docSourceAppConfig{
				address:        ":9090",
				middlewares:    []func(http.Handler) http.Handler{passthrough},
				requestTimeout: 5 * time.Second,
				readTimeout:    5 * time.Second,
				writeTimeout:   10 * time.Second,
				idleTimeout:    30 * time.Second,
			},
			wantAddr:       ":9090",
			wantReadTO:     5 * time.Second,
			wantWriteTO:    10 * time.Second,
			wantIdleTO:     30 * time.Second,
			wantMiddleware: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			tt.config.config = &config.Config{}
			tt.config.authMiddleware = passthrough
			tt.config.authzMiddleware = passthrough

			server, err := buildHTTPServer(ctx, tt.config, mocksvc.NewMockService(ctrl))

			require.NoError(t, err)
			require.NotNil(t, server)
			assert.Equal(t, tt.wantAddr, server.Addr)
			assert.Equal(t, tt.wantReadTO, server.ReadTimeout)
			assert.Equal(t, tt.wantWriteTO, server.WriteTimeout)
			assert.Equal(t, tt.wantIdleTO, server.IdleTimeout)
			assert.NotNil(t, server.Handler)
			assert.Len(t, tt.config.middlewares, tt.wantMiddleware)
		})
	}
}

func TestBuildHTTPServer_MetricsHandler(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := &docSourceAppConfig{
		config:          &config.Config{},
		address:         ":0",
		requestTimeout:  time.Second,
		authMiddleware:  passthrough,
		authzMiddleware: passthrough,
		metricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("docsource_up 1\n"))
		}),
	}

	server, err := buildHTTPServer(context.Background(), cfg, mocksvc.NewMockService(ctrl))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "docsource_up 1\n", rr.Body.String())
}

func TestBuildHTTPServer_AuthRunsAfterDefaults(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	var sawRequestID bool
	cfg := &docSourceAppConfig{
		config:         &config.Config{},
		address:        ":0",
		requestTimeout: time.Second,
		authMiddleware: func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sawRequestID = middleware.GetReqID(r.Context()) != ""
				w.WriteHeader(http.StatusUnauthorized)
			})
		},
		authzMiddleware: passthrough,
	}

	server, err := buildHTTPServer(context.Background(), cfg, mocksvc.NewMockService(ctrl))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sources", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.True(t, sawRequestID, "request ID is assigned before authentication")
}

func TestNewDocSourceApp_LocalMode(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	disabled := false
	cfg := &config.Config{
		DataDir: dataDir,
		Auth:    &config.AuthConfig{Mode: config.AuthModeAnonymous},
		MetadataTypes: []config.MetadataTypeConfig{
			{Name: "invoice_number", Label: "Invoice number"},
		},
		DocumentTypes: []config.DocumentTypeConfig{
			{Label: "Invoice", MetadataTypes: []string{"invoice_number"}},
		},
		Sources: []config.SourceConfig{
			{
				Label:       "Upload",
				Backend:     sources.PathWebForm,
				Enabled:     &disabled,
				BackendData: map[string]any{"uncompress": "never"},
			},
		},
	}

	app, err := NewDocSourceApp(context.Background(), WithConfig(cfg), WithAddress("127.0.0.1:0"))
	require.NoError(t, err)
	require.NotNil(t, app)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	components := app.GetComponents()
	require.NotNil(t, components.Service)
	require.NotNil(t, components.Scheduler)
	require.NotNil(t, components.Queue)
	require.NotNil(t, components.Registry)
	require.NotNil(t, components.Storage)

	ctx := context.Background()
	srcs, err := components.Service.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.Equal(t, "Upload", srcs[0].Label)
	assert.False(t, srcs[0].Enabled)

	docTypes, err := components.Service.ListDocumentTypes(ctx)
	require.NoError(t, err)
	require.Len(t, docTypes, 1)
	assert.Len(t, docTypes[0].MetadataTypeIDs, 1)

	for _, dir := range []string{"tmp", "locks"} {
		info, err := os.Stat(filepath.Join(dataDir, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestNewDocSourceApp_StorageFactoryError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	factory := mocks.NewMockFactory(ctrl)
	factory.EXPECT().CreateSourceStore(gomock.Any()).Return(nil, errors.New("pool exhausted"))
	factory.EXPECT().Cleanup()

	app, err := NewDocSourceApp(context.Background(),
		WithConfig(&config.Config{DataDir: t.TempDir()}),
		WithStorageFactory(factory),
	)
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "failed to create source store")
	assert.Contains(t, err.Error(), "pool exhausted")
}

func TestNewDocSourceApp_NilConfig(t *testing.T) {
	t.Parallel()

	app, err := NewDocSourceApp(context.Background())
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "failed to build base configuration")
}
