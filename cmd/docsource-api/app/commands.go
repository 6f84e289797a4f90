// Package app holds the cobra commands of the docsource-api binary.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/pkg/versions"
)

// LogLevel is the level of the process slog handler; --debug lowers it
var LogLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:               "docsource-api",
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Short:             "Document source API server",
	Long: `docsource-api manages the sources documents enter the system through:
web form and staging folder uploads, scanners, watched folders and mailboxes.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if viper.GetBool("debug") {
			LogLevel.Set(slog.LevelDebug)
			logger.Initialize("debug")
		}
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// NewRootCmd wires the subcommands onto the root command
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}

	rootCmd.AddCommand(serveCmd, versionCmd, migrateCmd, backendsCmd)
	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	info := versions.GetVersionInfo()
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	switch format {
	case "json":
		output, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format version info as JSON: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return err
	case "":
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		for _, row := range [][]string{
			{"Version", info.Version},
			{"Commit", info.Commit},
			{"Built", info.BuildDate},
			{"Go", info.GoVersion},
			{"Platform", info.Platform},
		} {
			if err := table.Append(row); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
