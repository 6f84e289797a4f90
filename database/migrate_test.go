//go:build integration

package database

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	connString := StartPostgres(ctx, t)

	db, err := sql.Open("pgx", connString)
	require.NoError(t, err)

	m, err := New(DriverPostgres, db)
	require.NoError(t, err)
	defer m.Close()

	count, err := MigrationCount(DriverPostgres)
	require.NoError(t, err)

	for i := 1; i <= count; i++ {
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
		assert.NoError(t, m.Steps(i))
	}
}
