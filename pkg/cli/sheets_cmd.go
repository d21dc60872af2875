package cli

import (
	"github.com/spf13/cobra"

	"recdiff/internal/report"
)

func newSheetsCmd(opts *rootOptions) *cobra.Command {
	var (
		diffOnly bool
		exitCode bool
	)

	cmd := &cobra.Command{
		Use:   "sheets SOURCE TARGET",
		Short: "Compare two workbooks sheet by sheet",
		Long: "Compare the sheets two XLSX workbooks share, or two CSV files. Rows are\n" +
			"matched by the first unique id/code/no/key column when there is one, and by\n" +
			"position otherwise.",
		Example: `  recdiff sheets parts_v1.xlsx parts_v2.xlsx --diff-only
  recdiff sheets before.csv after.csv -o html > diff.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.newApp(ctx, nil)
			if err != nil {
				return err
			}
			rep, err := a.Service.CompareWorkbooks(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch opts.format {
			case report.FormatJSON:
				err = report.WriteJSON(out, rep)
			case report.FormatHTML:
				err = report.WriteSheetHTML(out, rep, diffOnly)
			default:
				err = report.WriteSheetText(out, rep, report.SheetOptions{
					Color:    opts.useColor(out),
					DiffOnly: diffOnly,
				})
			}
			if err != nil {
				return err
			}
			if exitCode && rep.HasDiff() {
				return &ExitError{Code: exitDifferences}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&diffOnly, "diff-only", false, "Hide unchanged rows")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with status 2 when differences are found")

	return cmd
}
