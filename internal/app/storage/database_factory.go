package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/db"
	"github.com/stacklok/docsource-server/internal/status"
)

// DatabaseFactory creates PostgreSQL-backed storage components.
// Sources, documents and check status all live in the database.
type DatabaseFactory struct {
	connectionFactory
	config *config.Config
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory creates a new database-backed storage factory.
// It opens a connection pool to the configured PostgreSQL database.
// The schema is expected to be migrated with the migrate command.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for the postgres driver")
	}

	slog.Info("Creating database-backed storage factory")

	// Open pings the database, so an unreachable server fails here
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DatabaseFactory{
		connectionFactory: connectionFactory{conn: conn},
		config:            cfg,
	}, nil
}

// CreateStatusPersistence stores check status in the check_status table.
func (d *DatabaseFactory) CreateStatusPersistence(_ context.Context) (status.StatusPersistence, error) {
	slog.Debug("Creating database-backed status persistence")
	return db.NewStatusStore(d.conn), nil
}

// Cleanup closes the database connection pool.
func (d *DatabaseFactory) Cleanup() {
	// Cleanup may run after a partially failed build
	if d.conn != nil {
		slog.Info("Closing database connection pool")
		if err := d.conn.Close(); err != nil {
			slog.Warn("Failed to close database connection pool", "error", err)
		}
	}
}
