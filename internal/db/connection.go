// Package db contains code for connecting to the database and the stores
// persisting sources, documents and check status.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Needs to be imported for Postgres driver
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/stacklok/docsource-server/database"
	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/logger"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultSSLMode         = "require"
	defaultConnectTimeout  = 10 * time.Second
	sqliteBusyTimeout      = 5 * time.Second
	pgUniqueViolation      = "23505"
)

// Connection wraps the database connection and the SQL dialect in use
type Connection struct {
	DB     *sql.DB
	Driver string
}

// Open creates a new database connection from the provided configuration
func Open(ctx context.Context, cfg *config.Config) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	var (
		conn *Connection
		err  error
	)
	switch driver := cfg.GetDatabaseDriver(); driver {
	case config.DatabaseDriverSQLite:
		conn, err = openSQLite(cfg.GetSQLitePath())
	case config.DatabaseDriverPostgres:
		conn, err = openPostgres(cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}

	// sql.Open is lazy, the ping is the first real connection
	if err := conn.DB.PingContext(ctx); err != nil {
		if closeErr := conn.DB.Close(); closeErr != nil {
			logger.Errorf("Failed to close database connection after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// SQLiteDSN returns the modernc data source name for a database file
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		path, sqliteBusyTimeout.Milliseconds())
}

func openSQLite(path string) (*Connection, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// SQLite allows a single writer; one connection serializes transactions
	sqlDB.SetMaxOpenConns(1)

	logger.Infof("Database connection established: sqlite %s", path)

	return &Connection{DB: sqlDB, Driver: database.DriverSQLite}, nil
}

func openPostgres(cfg *config.DatabaseConfig) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("database host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("database user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = defaultMaxOpenConns
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = defaultMaxIdleConns
	}

	connMaxLifetime := defaultConnMaxLifetime
	if cfg.ConnMaxLifetime != "" {
		duration, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid connection max lifetime: %w", err)
		}
		connMaxLifetime = duration
	}

	password, err := cfg.GetPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to get database password: %w", err)
	}

	// Note: password is not URL-escaped here because pgx driver handles it directly
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Host,
		port,
		cfg.User,
		password,
		cfg.Database,
		sslMode,
		int(defaultConnectTimeout.Seconds()),
	)

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	logger.Infof("Database connection established: %s@%s:%d/%s",
		cfg.User, cfg.Host, port, cfg.Database)

	return &Connection{DB: sqlDB, Driver: database.DriverPostgres}, nil
}

// Migrate runs the embedded migrations on a dedicated connection.
// Steps of zero migrates all the way up, negative steps roll back.
func Migrate(ctx context.Context, cfg *config.Config, steps int) error {
	conn, err := Open(ctx, cfg)
	if err != nil {
		return err
	}

	// The migrator owns conn from here and closes it with m.Close
	m, err := database.New(conn.Driver, conn.DB)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warnf("Failed to close migrator: %v", errors.Join(srcErr, dbErr))
		}
	}()

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Infof("Database schema at version %d (dirty=%t)", version, dirty)
	return nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	if c.DB != nil {
		logger.Info("Closing database connection")
		return c.DB.Close()
	}
	return nil
}

// Ping verifies the database connection is still alive
func (c *Connection) Ping(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.PingContext(ctx)
	}
	return fmt.Errorf("database connection is nil")
}

// rebind rewrites ? placeholders into the $n form Postgres expects
func (c *Connection) rebind(query string) string {
	if c.Driver != database.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// queryer is implemented by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn inside a transaction, committing when fn succeeds
func (c *Connection) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
