package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/docsource-server/database"
	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/db"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/telemetry"
	"github.com/stacklok/docsource-server/pkg/versions"
)

var (
	rootOnce sync.Once
	root     *cobra.Command
)

// executeCommand runs the root command with args; subcommands keep flag
// values between runs, so every test passes the flags it relies on
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	rootOnce.Do(func() { root = NewRootCmd() })

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dataDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "dataDir: " + dataDir + "\ndatabase:\n  driver: sqlite\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func countSources(t *testing.T, dataDir string) (int, error) {
	t.Helper()
	conn, err := db.Open(context.Background(), &config.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer conn.Close()

	var n int
	err = conn.DB.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM sources").Scan(&n)
	return n, err
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "", "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestRunVersion_Formats(t *testing.T) {
	t.Parallel()

	run := func(format string) (string, error) {
		c := &cobra.Command{}
		c.Flags().String("format", format, "")
		var buf bytes.Buffer
		c.SetOut(&buf)
		err := runVersion(c, nil)
		return buf.String(), err
	}

	out, err := run("")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform")
	assert.Contains(t, out, versions.Version)

	_, err = run("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported format "yaml"`)
}

func TestBackendsCommand(t *testing.T) {
	out, err := executeCommand(t, "", "backends")
	require.NoError(t, err)

	for _, path := range []string{
		sources.PathWebForm,
		sources.PathStagingFolder,
		sources.PathWatchFolder,
		sources.PathIMAPEmail,
		sources.PathPOP3Email,
		sources.PathSANEScanner,
	} {
		assert.Contains(t, out, path)
	}
}

func TestMigrateCommands(t *testing.T) {
	dataDir := t.TempDir()
	configPath := writeConfig(t, dataDir)

	_, err := executeCommand(t, "", "migrate", "up", "--config", configPath, "--yes", "--num-steps", "0")
	require.NoError(t, err)

	n, err := countSources(t, dataDir)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Declining the prompt leaves the schema in place
	_, err = executeCommand(t, "no\n", "migrate", "down", "--config", configPath, "--yes=false", "--num-steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
	_, err = countSources(t, dataDir)
	require.NoError(t, err)

	_, err = executeCommand(t, "", "migrate", "down", "--config", configPath, "--yes", "--num-steps", "0")
	require.NoError(t, err)

	_, err = countSources(t, dataDir)
	require.Error(t, err, "sources table is dropped")
}

func TestMigrateUpDeclined(t *testing.T) {
	dataDir := t.TempDir()
	configPath := writeConfig(t, dataDir)

	out, err := executeCommand(t, "n\n", "migrate", "up", "--config", configPath, "--yes=false", "--num-steps", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "About to apply migrations to sqlite")

	_, err = countSources(t, dataDir)
	require.Error(t, err, "schema is not created")
}

func TestDownSteps(t *testing.T) {
	t.Parallel()

	count, err := database.MigrationCount(database.DriverSQLite)
	require.NoError(t, err)

	steps, err := downSteps(database.DriverSQLite, 0)
	require.NoError(t, err)
	assert.Equal(t, -count, steps)

	steps, err = downSteps(database.DriverSQLite, 2)
	require.NoError(t, err)
	assert.Equal(t, -2, steps)

	_, err = downSteps("oracle", 0)
	require.Error(t, err)
}

func TestDescribeDatabase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{
			name: "sqlite default path",
			cfg:  &config.Config{DataDir: "/srv/docsource"},
			want: "sqlite /srv/docsource/docsource.db",
		},
		{
			name: "postgres",
			cfg: &config.Config{Database: &config.DatabaseConfig{
				Driver: config.DatabaseDriverPostgres, User: "docs", Host: "db", Port: 5432, Database: "docsource",
			}},
			want: "postgres docs@db:5432/docsource",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, describeDatabase(tt.cfg))
		})
	}
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"y", true},
		{"no\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			t.Parallel()
			cmd := &cobra.Command{}
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetIn(strings.NewReader(tt.input))

			assert.Equal(t, tt.want, confirm(cmd, "Continue?"))
			assert.Equal(t, "Continue? (yes/no): ", out.String())
		})
	}
}

func TestWithServiceVersion(t *testing.T) {
	t.Parallel()

	assert.Nil(t, withServiceVersion(nil))

	cfg := &telemetry.Config{Enabled: true}
	got := withServiceVersion(cfg)
	assert.Equal(t, versions.Version, got.ServiceVersion)
	assert.Empty(t, cfg.ServiceVersion, "caller config is left untouched")

	pinned := &telemetry.Config{Enabled: true, ServiceVersion: "1.2.3"}
	assert.Same(t, pinned, withServiceVersion(pinned))
}
