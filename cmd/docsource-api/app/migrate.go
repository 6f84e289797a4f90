package app

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacklok/docsource-server/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool",
	Long: `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.
Local SQLite databases are migrated automatically when the server starts; PostgreSQL
databases must be migrated with this command before serving.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

func init() {
	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	migrateCmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")
	migrateCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := migrateCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	// Add subcommands
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

// migrationFlags are the flags shared by the migrate subcommands
type migrationFlags struct {
	config   *config.Config
	yes      bool
	numSteps uint
}

func readMigrationFlags(cmd *cobra.Command) (*migrationFlags, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return nil, fmt.Errorf("failed to get yes flag: %w", err)
	}

	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return nil, fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &migrationFlags{config: cfg, yes: yes, numSteps: numSteps}, nil
}

// describeDatabase names the migration target for prompts and logs
func describeDatabase(cfg *config.Config) string {
	if cfg.GetDatabaseDriver() == config.DatabaseDriverPostgres && cfg.Database != nil {
		return fmt.Sprintf("postgres %s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	return "sqlite " + cfg.GetSQLitePath()
}

// confirm asks a yes/no question on the command input
func confirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (yes/no): ", prompt)
	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y"
}
