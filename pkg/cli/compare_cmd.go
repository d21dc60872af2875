package cli

import (
	"github.com/spf13/cobra"

	"recdiff/internal/app"
	"recdiff/internal/config"
	"recdiff/internal/diffconfig"
	"recdiff/internal/report"
)

func newCompareCmd(opts *rootOptions) *cobra.Command {
	var (
		in          app.Inputs
		strictKeys  bool
		exitCode    bool
		summaryOnly bool
		limit       int
		maxParallel int
		saveConfig  string
	)

	cmd := &cobra.Command{
		Use:   "compare SOURCE TARGET",
		Short: "Compare two database snapshots record by record",
		Long: "Compare the tables two snapshots share. Keys are inferred per table from\n" +
			"declared primary keys, identifier-like column names and unique values; adjust\n" +
			"them with a configuration file or a keyword. SOURCE and TARGET may be SQLite,\n" +
			"DuckDB or DXF files, local or s3://, gs://, az:// URIs.",
		Example: `  recdiff compare old.db new.db
  recdiff compare old.duckdb new.duckdb --keyword code -o json
  recdiff compare old.db new.db --config diff.yaml --ignore updated_at --exit-code
  recdiff compare old.db new.db --table users --table orders --save-config diff.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in.Source, in.Target = args[0], args[1]
			opts.inputDefaults(cmd, &in)

			a, err := opts.newApp(ctx, func(c *config.Config) {
				if cmd.Flags().Changed("strict-keys") {
					c.StrictKeys = strictKeys
				}
				if maxParallel > 0 {
					c.MaxParallel = maxParallel
				}
			})
			if err != nil {
				return err
			}

			session, cs, err := a.Prepare(ctx, in)
			if err != nil {
				return err
			}
			if saveConfig != "" {
				if err := diffconfig.Save(saveConfig, cs); err != nil {
					return err
				}
				opts.logger.Info("configuration saved", "path", saveConfig)
			}

			rep, err := a.Service.Run(ctx, session, cs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := report.Write(out, rep, opts.format, report.TextOptions{
				Color:       opts.useColor(out),
				Limit:       limit,
				SummaryOnly: summaryOnly,
			}); err != nil {
				return err
			}
			if exitCode && rep.HasDiff() {
				return &ExitError{Code: exitDifferences}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ConfigFile, "config", "", "Comparison configuration file (.json, .yaml)")
	cmd.Flags().StringVar(&in.Keyword, "keyword", "", "Re-infer keys preferring columns close to this name")
	cmd.Flags().StringVar(&in.Ignore, "ignore", "", "Comma-separated columns to ignore in every table")
	cmd.Flags().StringArrayVar(&in.Tables, "table", nil, "Compare only this table (repeatable)")
	cmd.Flags().BoolVar(&strictKeys, "strict-keys", false, "Fail when a key occurs more than once")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with status 2 when differences are found")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Print only the summary table (text output)")
	cmd.Flags().IntVar(&limit, "limit", 0, "List at most this many records per change type and table (text output)")
	cmd.Flags().IntVar(&maxParallel, "max-parallel", 0, "Tables compared concurrently (default from MAX_PARALLEL)")
	cmd.Flags().StringVar(&saveConfig, "save-config", "", "Write the effective configuration to this file")

	return cmd
}
