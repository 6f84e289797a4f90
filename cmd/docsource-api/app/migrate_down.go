package app

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/stacklok/docsource-server/database"
	"github.com/stacklok/docsource-server/internal/db"
	"github.com/stacklok/docsource-server/internal/logger"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Migrate the database down",
	Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  docsource-api migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  docsource-api migrate down --config config.yaml --yes`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	flags, err := readMigrationFlags(cmd)
	if err != nil {
		return err
	}

	if !confirmMigrateDown(cmd, flags) {
		logger.Info("Migration cancelled")
		return fmt.Errorf("migration cancelled by user")
	}

	steps, err := downSteps(flags.config.GetDatabaseDriver(), flags.numSteps)
	if err != nil {
		return err
	}

	if flags.numSteps == 0 {
		logger.Warn("Migrating down all steps - this will remove all schema!")
	} else {
		logger.Infof("Migrating down %d step(s)...", flags.numSteps)
	}

	if err := db.Migrate(cmd.Context(), flags.config, steps); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Migration completed successfully")
	return nil
}

func confirmMigrateDown(cmd *cobra.Command, flags *migrationFlags) bool {
	if flags.yes {
		return true
	}

	target := describeDatabase(flags.config)
	var prompt string
	if flags.numSteps == 0 {
		prompt = fmt.Sprintf("WARNING: This will migrate %s down ALL steps and may result in complete data loss. Continue?",
			target)
	} else {
		prompt = fmt.Sprintf("WARNING: This will migrate %s down %d step(s) and may result in data loss. Continue?",
			target, flags.numSteps)
	}
	return confirm(cmd, prompt)
}

// downSteps converts the flag into the negative step count for the migrator.
// Zero reverts every embedded migration of the driver.
func downSteps(driver string, numSteps uint) (int, error) {
	if numSteps == 0 {
		count, err := database.MigrationCount(driver)
		if err != nil {
			return 0, fmt.Errorf("failed to count migrations: %w", err)
		}
		return -count, nil
	}

	// Check for overflow before conversion
	if numSteps > math.MaxInt {
		return 0, fmt.Errorf("number of steps exceeds maximum allowed value")
	}
	return -1 * int(numSteps), nil // #nosec G115 -- overflow checked above
}
