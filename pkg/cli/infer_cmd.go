package cli

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"recdiff/internal/app"
	"recdiff/internal/diffconfig"
	"recdiff/internal/report"
)

func newInferCmd(opts *rootOptions) *cobra.Command {
	var (
		in    app.Inputs
		write string
	)

	cmd := &cobra.Command{
		Use:   "infer SOURCE TARGET",
		Short: "Propose a comparison configuration without comparing",
		Long: "Load both snapshots, infer the key columns of every table they share and\n" +
			"print the proposed configuration. Use --write to save it for later runs of\n" +
			"'recdiff compare --config'.",
		Example: `  recdiff infer old.db new.db
  recdiff infer old.db new.db --keyword code --write diff.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFormat(opts.format, report.FormatText, report.FormatJSON); err != nil {
				return err
			}
			ctx := cmd.Context()
			in.Source, in.Target = args[0], args[1]
			opts.inputDefaults(cmd, &in)

			a, err := opts.newApp(ctx, nil)
			if err != nil {
				return err
			}
			session, cs, err := a.Prepare(ctx, in)
			if err != nil {
				return err
			}
			if write != "" {
				if err := diffconfig.Save(write, cs); err != nil {
					return err
				}
				opts.logger.Info("configuration saved", "path", write)
			}

			out := cmd.OutOrStdout()
			if opts.format == report.FormatJSON {
				return diffconfig.Encode(out, cs, diffconfig.FormatJSON)
			}

			table := tablewriter.NewTable(out,
				tablewriter.WithHeaderAlignment(tw.AlignLeft),
				tablewriter.WithRowAlignment(tw.AlignLeft),
			)
			table.Header("Table", "Keys", "Ignored", "Columns", "Selected")
			for _, name := range session.Common {
				tc := cs.Table(name)
				keys := strings.Join(tc.PrimaryKeys, ", ")
				if keys == "" {
					keys = "(none)"
				}
				selected := "no"
				if cs.IsSelected(name) {
					selected = "yes"
				}
				if err := table.Append(name, keys, strings.Join(tc.Ignored, ", "),
					strconv.Itoa(len(session.Columns(name))), selected); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVar(&in.ConfigFile, "config", "", "Start from this configuration file")
	cmd.Flags().StringVar(&in.Keyword, "keyword", "", "Prefer key columns close to this name")
	cmd.Flags().StringVar(&in.Ignore, "ignore", "", "Comma-separated columns to ignore in every table")
	cmd.Flags().StringVar(&write, "write", "", "Save the proposed configuration to this file (.json, .yaml)")

	return cmd
}
