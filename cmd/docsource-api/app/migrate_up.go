package app

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/stacklok/docsource-server/internal/db"
	"github.com/stacklok/docsource-server/internal/logger"
)

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending database migrations",
	Long: `Apply pending database migrations to bring the schema up to date.
This command reads the database connection parameters from the config file
and applies the migrations that haven't been run yet.`,
	RunE: runMigrateUp,
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	flags, err := readMigrationFlags(cmd)
	if err != nil {
		return err
	}
	if flags.numSteps > math.MaxInt {
		return fmt.Errorf("number of steps exceeds maximum allowed value")
	}

	target := describeDatabase(flags.config)
	if !flags.yes && !confirm(cmd, fmt.Sprintf("About to apply migrations to %s. Continue?", target)) {
		logger.Info("Migration cancelled by user")
		return nil
	}

	logger.Infof("Applying database migrations to %s", target)
	if err := db.Migrate(cmd.Context(), flags.config, int(flags.numSteps)); err != nil { // #nosec G115 -- overflow checked above
		return err
	}

	logger.Info("Migrations applied successfully")
	return nil
}
