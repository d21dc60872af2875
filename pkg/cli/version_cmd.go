package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"recdiff/internal/report"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == string(report.FormatJSON) {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recdiff version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
