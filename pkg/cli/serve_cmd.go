package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"recdiff/internal/app"
	"recdiff/internal/config"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		in       app.Inputs
		addr     string
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "serve SOURCE TARGET",
		Short: "Compare two snapshots and browse the result in a web browser",
		Long: "Run a database or workbook comparison once, then serve the report as paged\n" +
			"HTML until interrupted. Workbooks (.xlsx, .csv) are compared sheet by sheet.",
		Example: `  recdiff serve old.db new.db --addr 127.0.0.1:8080
  recdiff serve parts_v1.xlsx parts_v2.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in.Source, in.Target = args[0], args[1]
			opts.inputDefaults(cmd, &in)

			var tlsCert, tlsKey string
			a, err := opts.newApp(ctx, func(c *config.Config) {
				if pageSize > 0 {
					c.PageSize = pageSize
				}
				tlsCert, tlsKey = c.TLSCertFile, c.TLSKeyFile
			})
			if err != nil {
				return err
			}

			rep, sheets, err := a.Build(ctx, in)
			if err != nil {
				return err
			}

			srv := app.NewServer(addr, a.Router(rep, sheets))
			scheme := "http"
			if tlsCert != "" {
				scheme = "https"
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving report on %s://%s (Ctrl+C to stop)\n", scheme, addr)
			return app.Serve(ctx, srv, tlsCert, tlsKey, opts.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rows per page (default from profile or PAGE_SIZE)")
	cmd.Flags().StringVar(&in.ConfigFile, "config", "", "Comparison configuration file (.json, .yaml)")
	cmd.Flags().StringVar(&in.Keyword, "keyword", "", "Re-infer keys preferring columns close to this name")
	cmd.Flags().StringVar(&in.Ignore, "ignore", "", "Comma-separated columns to ignore in every table")
	cmd.Flags().StringArrayVar(&in.Tables, "table", nil, "Compare only this table (repeatable)")

	return cmd
}
