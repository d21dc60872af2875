package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"recdiff/internal/report"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if _, err := report.ParseFormat(output); err != nil {
		return fmt.Errorf("unsupported output format %q: use 'text', 'json' or 'html'", output)
	}
	return nil
}

func validateColor(mode string) error {
	switch mode {
	case "auto", "always", "never":
		return nil
	default:
		return fmt.Errorf("unsupported color mode %q: use 'auto', 'always' or 'never'", mode)
	}
}

// requireFormat rejects output formats a command cannot render.
func requireFormat(f report.Format, allowed ...report.Format) error {
	for _, a := range allowed {
		if f == a {
			return nil
		}
	}
	return fmt.Errorf("output format %q is not supported by this command", f)
}
