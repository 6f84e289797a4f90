//go:build integration

package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresImage is the server version the migrations are tested against
const PostgresImage = "postgres:16-alpine"

// silentLogger drops testcontainers output, which would otherwise flood test logs
type silentLogger struct{}

func (silentLogger) Printf(string, ...any) {}

var _ tclog.Logger = silentLogger{}

// StartPostgres runs a throwaway Postgres container for t and returns its
// connection string. The container is removed when t finishes.
func StartPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("docsource_test"),
		postgres.WithUsername("docsource"),
		postgres.WithPassword("docsource"),
		// Waits for the second "ready to accept connections" line, the first is the init run
		postgres.BasicWaitStrategies(),
		tc.WithLogger(silentLogger{}),
	)
	// Register cleanup before the error check, Run can return a started container with an error
	tc.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}
