package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/docsource-server/internal/api"
	appstorage "github.com/stacklok/docsource-server/internal/app/storage"
	"github.com/stacklok/docsource-server/internal/auth"
	"github.com/stacklok/docsource-server/internal/authz"
	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/converter"
	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/scheduler"
	"github.com/stacklok/docsource-server/internal/service"
	database "github.com/stacklok/docsource-server/internal/service/db"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/storage"
	"github.com/stacklok/docsource-server/internal/telemetry"
	"github.com/stacklok/docsource-server/internal/wizard"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 60 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultWriteTimeout   = 90 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// DocSourceAppOptions is a function that configures the document source app builder
type DocSourceAppOptions func(*docSourceAppConfig) error

// docSourceAppConfig collects the settings used to build a DocSourceApp
// It supports dependency injection for testing while providing sensible defaults for production
type docSourceAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory appstorage.Factory
	registry       *sources.Registry
	imapDialer     sources.IMAPDialer
	pop3Dialer     sources.POP3Dialer

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Data directory
	dataDir string

	// Auth components
	authMiddleware  func(http.Handler) http.Handler
	authzMiddleware func(http.Handler) http.Handler

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...DocSourceAppOptions) (*docSourceAppConfig, error) {
	cfg := &docSourceAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.dataDir == "" {
		cfg.dataDir = cfg.config.GetDataDir()
	} else if cfg.config.DataDir != cfg.dataDir {
		// The option wins over the config file
		overridden := *cfg.config
		overridden.DataDir = cfg.dataDir
		cfg.config = &overridden
	}

	return cfg, nil
}

// NewDocSourceApp creates a new application with the given options
func NewDocSourceApp(
	ctx context.Context,
	opts ...DocSourceAppOptions,
) (*DocSourceApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Create storage factory (single decision point for PostgreSQL vs local SQLite)
	if cfg.storageFactory == nil {
		cfg.storageFactory, err = appstorage.NewStorageFactory(ctx, cfg.config, cfg.dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	var defined *storage.Defined

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if !cleanupNeeded {
			return
		}
		if defined != nil {
			_ = defined.Close()
		}
		cfg.storageFactory.Cleanup()
	}()

	defined, err = storage.OpenDefined(ctx, cfg.config)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	components, err := buildServiceComponents(ctx, cfg, defined)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	if err := InitializeFromConfig(ctx, cfg.config, components.Service); err != nil {
		return nil, fmt.Errorf("failed to initialize from config: %w", err)
	}

	// Build auth middleware (if not injected)
	if cfg.authMiddleware == nil {
		cfg.authMiddleware, err = auth.NewAuthMiddleware(ctx, cfg.config.Auth, auth.DefaultValidatorFactory)
		if err != nil {
			return nil, fmt.Errorf("failed to build auth middleware: %w", err)
		}
	}

	// Build authz middleware (if not injected)
	if cfg.authzMiddleware == nil {
		authorizer, err := authz.NewAuthorizerFromConfig(cfg.config.Authz)
		if err != nil {
			return nil, fmt.Errorf("failed to build authorizer: %w", err)
		}
		cfg.authzMiddleware = authz.Middleware(authorizer, cfg.config.Authz.GetScopeMapping())
	}

	// Build HTTP server
	httpServer, err := buildHTTPServer(ctx, cfg, components.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	// Create application context
	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	factory := cfg.storageFactory
	cancelFunc := sync.OnceFunc(func() {
		cancel()
		if err := defined.Close(); err != nil {
			slog.Warn("Failed to close storage", "error", err)
		}
		factory.Cleanup()
	})

	return &DocSourceApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancelFunc,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithDataDirectory sets the directory for the local database, status files and locks
func WithDataDirectory(dir string) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.dataDir = dir
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout applied by the default middlewares
func WithRequestTimeout(d time.Duration) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f appstorage.Factory) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithBackendRegistry allows injecting a custom backend registry (for testing)
func WithBackendRegistry(r *sources.Registry) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.registry = r
		return nil
	}
}

// WithMailDialers allows injecting IMAP and POP3 dialers (for testing)
func WithMailDialers(imap sources.IMAPDialer, pop3 sources.POP3Dialer) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.imapDialer = imap
		cfg.pop3Dialer = pop3
		return nil
	}
}

// WithAuthMiddleware replaces the authentication middleware built from config
func WithAuthMiddleware(mw func(http.Handler) http.Handler) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.authMiddleware = mw
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and domain metrics
func WithMeterProvider(mp metric.MeterProvider) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP and service spans
func WithTracerProvider(tp trace.TracerProvider) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) DocSourceAppOptions {
	return func(cfg *docSourceAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// domainMetrics holds the optional domain metric recorders
type domainMetrics struct {
	sources *telemetry.SourceMetrics
	checks  *telemetry.CheckMetrics
	ingest  *telemetry.IngestMetrics
}

func buildDomainMetrics(b *docSourceAppConfig) (*domainMetrics, error) {
	m := &domainMetrics{}
	if b.meterProvider == nil {
		return m, nil
	}

	var err error
	if m.sources, err = telemetry.NewSourceMetrics(b.meterProvider); err != nil {
		return nil, fmt.Errorf("failed to create source metrics: %w", err)
	}
	if m.checks, err = telemetry.NewCheckMetrics(b.meterProvider); err != nil {
		return nil, fmt.Errorf("failed to create check metrics: %w", err)
	}
	if m.ingest, err = telemetry.NewIngestMetrics(b.meterProvider); err != nil {
		return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
	}
	slog.Info("Domain metrics enabled")
	return m, nil
}

// buildServiceComponents builds the backend registry, ingestion pipeline, scheduler and service
func buildServiceComponents(
	ctx context.Context,
	b *docSourceAppConfig,
	defined *storage.Defined,
) (*AppComponents, error) {
	slog.Info("Initializing service components")

	metrics, err := buildDomainMetrics(b)
	if err != nil {
		return nil, err
	}

	sourceStore, err := b.storageFactory.CreateSourceStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create source store: %w", err)
	}

	docStore, err := b.storageFactory.CreateDocumentStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}

	statusPersistence, err := b.storageFactory.CreateStatusPersistence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create status persistence: %w", err)
	}

	tempDir := filepath.Join(b.dataDir, "tmp")
	lockDir := filepath.Join(b.dataDir, "locks")
	for _, dir := range []string{tempDir, lockDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	shared := storage.NewSharedUploads(defined.SharedUploads)
	steps := wizard.NewDefaultRegistry(docStore)

	pipeline := ingest.NewPipeline(shared, defined.DocumentFiles, docStore,
		ingest.WithWizard(steps),
		ingest.WithIngestMetrics(metrics.ingest),
		ingest.WithDefaultLanguage(b.config.GetLanguage()),
		ingest.WithTempDir(tempDir),
	)
	queue := ingest.NewQueue(pipeline,
		ingest.WithWorkers(b.config.GetIngestWorkers()),
		ingest.WithQueueSize(b.config.GetIngestQueueSize()),
		ingest.WithQueueMetrics(metrics.ingest),
	)

	env := &sources.Env{
		SharedUploads: shared,
		Tasks:         queue,
		Cache:         defined.SourceCache,
		Converter:     converter.New(),
		Documents:     docStore,
		Metrics:       metrics.sources,
		Language:      b.config.GetLanguage(),
		ScanimagePath: b.config.GetScanimagePath(),
		LockDir:       lockDir,
		ImageTimeout:  b.config.GetImageTimeout(),
		IMAPDialer:    b.imapDialer,
		POP3Dialer:    b.pop3Dialer,
	}

	if b.registry == nil {
		b.registry = sources.NewDefaultRegistry()
	}
	if err := b.registry.Initialize(env); err != nil {
		return nil, fmt.Errorf("failed to initialize source backends: %w", err)
	}

	sched := scheduler.New(sourceStore, b.registry, env, statusPersistence,
		scheduler.WithPollingInterval(b.config.GetPollingInterval()),
		scheduler.WithMaxConcurrentChecks(b.config.GetMaxConcurrentChecks()),
		scheduler.WithCheckMetrics(metrics.checks),
	)

	svcOpts := []database.Option{
		database.WithSourceStore(sourceStore),
		database.WithDocumentStore(docStore),
		database.WithDocumentFiles(defined.DocumentFiles),
		database.WithRegistry(b.registry, env),
		database.WithScheduler(sched),
		database.WithWizard(steps),
		database.WithPinger(b.storageFactory.Pinger()),
		database.WithDriver(b.storageFactory.Driver()),
	}
	if b.tracerProvider != nil {
		svcOpts = append(svcOpts, database.WithTracer(b.tracerProvider.Tracer(database.ServiceTracerName)))
		slog.Debug("Service tracing enabled")
	}

	svc, err := database.New(svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	slog.Info("Service components initialized successfully",
		"driver", b.storageFactory.Driver(),
		"backends", len(b.registry.GetAll()))

	return &AppComponents{
		Scheduler: sched,
		Queue:     queue,
		Service:   svc,
		Registry:  b.registry,
		Storage:   defined,
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *docSourceAppConfig,
	svc service.Service,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Tracing wraps everything so request logs carry the span
	b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)

	// Add metrics middleware if meter provider is configured
	// This should be added early in the chain to capture all requests
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		// Prepend metrics middleware to capture all requests including those rejected by auth
		b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
		slog.Info("HTTP metrics middleware enabled")
	}

	// Authentication bypasses public paths on its own; authorization
	// passes requests without an identity through
	b.middlewares = append(b.middlewares, b.authMiddleware, b.authzMiddleware)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	// Create router with middlewares
	router := api.NewServer(svc, serverOpts...)

	// Create HTTP server
	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
