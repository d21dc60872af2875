package cli

import (
	"github.com/spf13/cobra"

	"recdiff/internal/cad"
	"recdiff/internal/report"
	"recdiff/internal/source"
)

func newCadCmd(opts *rootOptions) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "cad FILE",
		Short: "Summarize the entities of a DXF drawing layer",
		Long: "Count the entities on a layer (and its xref-bound copy) by type, with\n" +
			"detail tallies: curved and straight polylines, block names and rotations,\n" +
			"dimension kinds, text styles and hatch patterns.",
		Example: `  recdiff cad plan.dxf --layer WALLS
  recdiff cad s3://drawings/plan.dxf --layer "E-LIGHT" -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFormat(opts.format, report.FormatText, report.FormatJSON); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := opts.newApp(ctx, nil)
			if err != nil {
				return err
			}
			local, cleanup, err := a.Resolver.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			drawing, err := source.ReadDXF(local)
			if err != nil {
				return err
			}
			stats := cad.Analyze(drawing.Entities, layer)
			opts.logger.Debug("drawing analyzed", "file", args[0], "layer", layer, "entities", stats.Entities)

			out := cmd.OutOrStdout()
			if opts.format == report.FormatJSON {
				return report.WriteJSON(out, stats)
			}
			return report.WriteStatsText(out, stats, opts.useColor(out))
		},
	}

	cmd.Flags().StringVar(&layer, "layer", "", "Layer to analyze (all layers when empty)")

	return cmd
}
