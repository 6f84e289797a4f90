// Package database provides a database-backed implementation of the Service interface
package database

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/scheduler"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/storage"
	"github.com/stacklok/docsource-server/internal/wizard"
)

//go:generate mockgen -destination=mocks/mock_stores.go -package=mocks -source=impl.go SourceStore,Pinger

// SourceStore persists sources
type SourceStore interface {
	List(ctx context.Context) ([]*sources.Source, error)
	Get(ctx context.Context, id int64) (*sources.Source, error)
	GetByLabel(ctx context.Context, label string) (*sources.Source, error)
	Create(ctx context.Context, src *sources.Source) (*sources.Source, error)
	Update(ctx context.Context, src *sources.Source) (*sources.Source, error)
	Delete(ctx context.Context, id int64) error
}

// Pinger checks the database connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// options holds configuration options for the database service
type options struct {
	sources   SourceStore
	documents documents.Store
	files     *storage.Storage
	registry  *sources.Registry
	env       *sources.Env
	scheduler scheduler.Scheduler
	wizard    *wizard.Registry
	pinger    Pinger
	tracer    trace.Tracer
	driver    string
}

// Option is a functional option for configuring the database service
type Option func(*options) error

// WithSourceStore sets the source store
func WithSourceStore(store SourceStore) Option {
	return func(o *options) error {
		if store == nil {
			return fmt.Errorf("source store is required")
		}
		o.sources = store
		return nil
	}
}

// WithDocumentStore sets the document store
func WithDocumentStore(store documents.Store) Option {
	return func(o *options) error {
		if store == nil {
			return fmt.Errorf("document store is required")
		}
		o.documents = store
		return nil
	}
}

// WithDocumentFiles sets the storage holding document files
func WithDocumentFiles(files *storage.Storage) Option {
	return func(o *options) error {
		o.files = files
		return nil
	}
}

// WithRegistry sets the backend registry and the environment given to backends
func WithRegistry(registry *sources.Registry, env *sources.Env) Option {
	return func(o *options) error {
		if registry == nil {
			return fmt.Errorf("backend registry is required")
		}
		o.registry = registry
		o.env = env
		return nil
	}
}

// WithScheduler sets the periodic check scheduler
func WithScheduler(s scheduler.Scheduler) Option {
	return func(o *options) error {
		o.scheduler = s
		return nil
	}
}

// WithWizard sets the document creation wizard
func WithWizard(w *wizard.Registry) Option {
	return func(o *options) error {
		o.wizard = w
		return nil
	}
}

// WithPinger sets the readiness check of the database
func WithPinger(p Pinger) Option {
	return func(o *options) error {
		o.pinger = p
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the database service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// WithDriver sets the database driver reported on spans
func WithDriver(driver string) Option {
	return func(o *options) error {
		o.driver = driver
		return nil
	}
}

// dbService implements the Service interface on top of the stores
type dbService struct {
	sources   SourceStore
	documents documents.Store
	files     *storage.Storage
	registry  *sources.Registry
	env       *sources.Env
	scheduler scheduler.Scheduler
	wizard    *wizard.Registry
	pinger    Pinger
	tracer    trace.Tracer
	driver    string
}

var _ service.Service = (*dbService)(nil)

// New creates a new database-backed service with the given options
func New(opts ...Option) (service.Service, error) {
	o := &options{}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.sources == nil {
		return nil, fmt.Errorf("source store is required")
	}
	if o.documents == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if o.registry == nil {
		return nil, fmt.Errorf("backend registry is required")
	}
	if o.env == nil {
		o.env = &sources.Env{}
	}
	if o.wizard == nil {
		o.wizard = wizard.NewRegistry()
	}

	slog.Debug("Created database service", "driver", o.driver, "tracing", o.tracer != nil)

	return &dbService{
		sources:   o.sources,
		documents: o.documents,
		files:     o.files,
		registry:  o.registry,
		env:       o.env,
		scheduler: o.scheduler,
		wizard:    o.wizard,
		pinger:    o.pinger,
		tracer:    o.tracer,
		driver:    o.driver,
	}, nil
}

// CheckReadiness checks if the service is ready to serve requests
func (s *dbService) CheckReadiness(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	if err := s.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// ListWizardSteps returns the active document creation wizard steps
func (s *dbService) ListWizardSteps() []wizard.Step {
	return s.wizard.GetAll()
}
