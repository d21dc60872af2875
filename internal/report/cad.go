package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"recdiff/internal/cad"
)

// WriteStatsText renders drawing statistics: a per-type table, then the
// detail tallies of each type, most frequent value first.
func WriteStatsText(w io.Writer, st *cad.Stats, colored bool) error {
	p := newPalette(colored)
	ew := &errWriter{w: w}
	layer := st.Layer
	if layer == "" {
		layer = "(all layers)"
	}
	ew.printf("%s %s: %d entities\n\n", p.header.Sprint("Layer"), layer, st.Entities)
	if ew.err != nil {
		return ew.err
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header("Type", "Count")
	for _, g := range st.Groups {
		if err := table.Append(g.Type, strconv.Itoa(g.Total)); err != nil {
			return fmt.Errorf("stats row %s: %w", g.Type, err)
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, g := range st.Groups {
		if len(g.Details) == 0 {
			continue
		}
		ew.printf("\n%s\n", p.header.Sprintf("%s (%d)", g.Type, g.Total))
		for _, dim := range g.Dimensions() {
			counts := g.Details[dim].Sorted()
			parts := make([]string, len(counts))
			for i, c := range counts {
				v := c.Value
				if v == "" {
					v = `""`
				}
				parts[i] = fmt.Sprintf("%s x%d", v, c.Count)
			}
			ew.printf("  %s: %s\n", dim, strings.Join(parts, ", "))
		}
	}
	return ew.err
}
