package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/docsource-server/internal/config"
)

func TestNewDatabaseFactoryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    *config.Config
		errMsg string
	}{
		{
			name:   "nil config returns error",
			cfg:    nil,
			errMsg: "config cannot be nil",
		},
		{
			name:   "config with nil database field returns error",
			cfg:    &config.Config{},
			errMsg: "database configuration is required",
		},
		{
			name: "missing host",
			cfg: &config.Config{Database: &config.DatabaseConfig{
				Driver: config.DatabaseDriverPostgres,
				User:   "docsource",
			}},
			errMsg: "database host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			factory, err := NewDatabaseFactory(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Nil(t, factory)
		})
	}
}
