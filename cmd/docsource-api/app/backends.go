package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/docsource-server/internal/sources"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the available source backends",
	Long: `List the source backends a source can be created with, together with
their capabilities and the backend data fields they accept.`,
	RunE: runBackends,
}

func runBackends(cmd *cobra.Command, _ []string) error {
	registry := sources.NewDefaultRegistry()

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Path", "Label", "Interactive", "Periodic", "Fields")

	for _, choice := range registry.GetChoices() {
		info, err := registry.Get(choice.Path)
		if err != nil {
			return err
		}
		if err := table.Append([]string{
			choice.Path,
			choice.Label,
			strconv.FormatBool(info.Interactive),
			strconv.FormatBool(info.Periodic),
			strings.Join(info.Schema.FieldOrder, ", "),
		}); err != nil {
			return fmt.Errorf("failed to render backend %s: %w", choice.Path, err)
		}
	}

	return table.Render()
}
