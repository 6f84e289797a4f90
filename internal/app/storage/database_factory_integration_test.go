//go:build integration

package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/docsource-server/database"
	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/db"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
)

func postgresConfig(t *testing.T, connStr string) *config.Config {
	t.Helper()

	u, err := url.Parse(connStr)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	password, _ := u.User.Password()

	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte(password), 0600))

	return &config.Config{
		DataDir: t.TempDir(),
		Database: &config.DatabaseConfig{
			Driver:       config.DatabaseDriverPostgres,
			Host:         u.Hostname(),
			Port:         port,
			User:         u.User.Username(),
			PasswordFile: passwordFile,
			Database:     u.Path[1:],
			SSLMode:      "disable",
		},
	}
}

func TestDatabaseFactory(t *testing.T) {
	ctx := context.Background()
	connStr := database.StartPostgres(ctx, t)

	cfg := postgresConfig(t, connStr)
	require.NoError(t, db.Migrate(ctx, cfg, 0))

	factory, err := NewDatabaseFactory(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(factory.Cleanup)

	assert.Equal(t, config.DatabaseDriverPostgres, factory.Driver())
	require.NoError(t, factory.Pinger().Ping(ctx))

	sourceStore, err := factory.CreateSourceStore(ctx)
	require.NoError(t, err)
	src, err := sourceStore.Create(ctx, &sources.Source{Label: "Inbox", BackendPath: sources.PathWatchFolder})
	require.NoError(t, err)

	persistence, err := factory.CreateStatusPersistence(ctx)
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, persistence.SaveStatus(ctx, src.ID, &status.CheckStatus{
		Phase:       status.CheckPhaseFailed,
		Message:     "connection refused",
		LastAttempt: &now,
	}))

	all, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	require.Contains(t, all, src.ID)
	assert.Equal(t, "connection refused", all[src.ID].Message)
}
