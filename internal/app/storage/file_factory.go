package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/db"
	"github.com/stacklok/docsource-server/internal/status"
)

// FileFactory creates local storage components.
// Records live in a SQLite file and check status in JSON files, both under
// the data directory.
type FileFactory struct {
	connectionFactory
	config  *config.Config
	dataDir string

	statusPersistence status.StatusPersistence
}

var _ Factory = (*FileFactory)(nil)

// NewFileFactory creates a new local storage factory.
// It ensures the data directory exists and migrates the SQLite schema.
func NewFileFactory(ctx context.Context, cfg *config.Config, dataDir string) (*FileFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	slog.Info("Creating file-based storage factory", "data_dir", dataDir, "database", cfg.GetSQLitePath())

	// Local mode has no separate migrate step, 0 applies every pending migration
	if err := db.Migrate(ctx, cfg, 0); err != nil {
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	return &FileFactory{
		connectionFactory: connectionFactory{conn: conn},
		config:            cfg,
		dataDir:           dataDir,
		// One JSON file per source
		statusPersistence: status.NewFileStatusPersistence(filepath.Join(dataDir, "status")),
	}, nil
}

// CreateStatusPersistence stores check status as JSON files under <dataDir>/status.
func (f *FileFactory) CreateStatusPersistence(_ context.Context) (status.StatusPersistence, error) {
	slog.Debug("Creating file-based status persistence")
	return f.statusPersistence, nil
}

// Cleanup closes the SQLite database.
func (f *FileFactory) Cleanup() {
	if f.conn != nil {
		if err := f.conn.Close(); err != nil {
			slog.Warn("Failed to close local database", "error", err)
		}
	}
}
