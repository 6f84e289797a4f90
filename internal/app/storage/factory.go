// Package storage provides factory functions for creating storage-dependent components.
// It implements the Abstract Factory pattern to ensure related components (source store,
// document store, check status persistence) are created against the same backend.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/db"
	"github.com/stacklok/docsource-server/internal/documents"
	database "github.com/stacklok/docsource-server/internal/service/db"
	"github.com/stacklok/docsource-server/internal/status"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
// Implementations ensure all components are compatible with each other
// (e.g., all share one PostgreSQL pool, or one local SQLite file).
//
// It also manages the lifecycle of storage resources (e.g., database connections).
type Factory interface {
	// CreateSourceStore creates the store holding source records.
	CreateSourceStore(ctx context.Context) (database.SourceStore, error)

	// CreateDocumentStore creates the store holding documents, document types
	// and metadata types.
	CreateDocumentStore(ctx context.Context) (documents.Store, error)

	// CreateStatusPersistence creates the persistence used by the scheduler
	// for periodic check status.
	CreateStatusPersistence(ctx context.Context) (status.StatusPersistence, error)

	// Pinger returns the readiness check for the underlying database.
	Pinger() database.Pinger

	// Driver names the database driver in use.
	Driver() string

	// Cleanup releases any resources held by this factory.
	// Should be called when the application shuts down.
	Cleanup()
}

// NewStorageFactory creates a storage factory based on the configured database driver.
// Returns a DatabaseFactory for PostgreSQL or a FileFactory for local SQLite mode.
func NewStorageFactory(ctx context.Context, cfg *config.Config, dataDir string) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetDatabaseDriver() {
	case config.DatabaseDriverPostgres:
		return NewDatabaseFactory(ctx, cfg)
	case config.DatabaseDriverSQLite:
		return NewFileFactory(ctx, cfg, dataDir)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.GetDatabaseDriver())
	}
}

// connectionFactory holds the pieces both factories share
type connectionFactory struct {
	conn *db.Connection
}

func (c *connectionFactory) CreateSourceStore(_ context.Context) (database.SourceStore, error) {
	return db.NewSourceStore(c.conn), nil
}

func (c *connectionFactory) CreateDocumentStore(_ context.Context) (documents.Store, error) {
	return db.NewDocumentStore(c.conn), nil
}

func (c *connectionFactory) Pinger() database.Pinger {
	return c.conn
}

func (c *connectionFactory) Driver() string {
	return c.conn.Driver
}
