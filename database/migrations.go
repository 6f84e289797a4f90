// Package database provides database migration tooling.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const (
	// DriverSQLite selects the SQLite migrations
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL migrations
	DriverPostgres = "postgres"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
	Close() (sourceErr, databaseErr error)
}

func migrationsDir(driver string) (string, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return path.Join("migrations", driver), nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// MigrationCount returns the number of up migrations embedded for driver
func MigrationCount(driver string) (int, error) {
	dir, err := migrationsDir(driver)
	if err != nil {
		return 0, err
	}
	names, err := fs.Glob(migrationsFS, dir+"/*.up.sql")
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// New returns a migration instance running the embedded migrations of driver
// against db. Closing the migrator closes db.
func New(driver string, db *sql.DB) (Migrator, error) {
	dir, err := migrationsDir(driver)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	var target database.Driver
	switch driver {
	case DriverSQLite:
		target, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	case DriverPostgres:
		target, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", driver, err)
	}

	return migrate.NewWithInstance("iofs", src, driver, target)
}
