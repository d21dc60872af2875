package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"recdiff/internal/diff"
	"recdiff/internal/domain"
	"recdiff/internal/service/compare"
	"recdiff/internal/window"
)

// SheetOptions controls the sheet text renderer.
type SheetOptions struct {
	Color bool
	// DiffOnly hides unchanged rows.
	DiffOnly bool
}

// WriteSheetText renders each sheet diff as a row listing: "+" added, "-"
// removed, "~" modified with one line per differing cell, blank prefix for
// unchanged rows.
func WriteSheetText(w io.Writer, r *compare.SheetReport, opts SheetOptions) error {
	p := newPalette(opts.Color)
	ew := &errWriter{w: w}
	ew.printf("%s %s -> %s\n", p.header.Sprint("Workbooks"), r.Source, r.Target)

	for _, sd := range r.Sheets {
		mode := "by position"
		if !sd.Positional() {
			mode = "by " + sd.Columns[sd.KeyColumn]
		}
		ew.printf("\n%s %s\n", p.header.Sprintf("== %s", sd.Sheet), p.muted.Sprintf("(rows matched %s)", mode))
		if sd.Positional() {
			ew.printf("%s\n", p.muted.Sprint("   no unique key column: an inserted row shifts every later row"))
		}

		view := window.NewSheetView(sd)
		view.SetDiffOnly(opts.DiffOnly)
		for _, row := range view.Rows() {
			label := "row " + strconv.Itoa(row.RowIndex)
			switch row.Type {
			case domain.RowAdd:
				ew.printf("%s\n", p.add.Sprintf("+ %s: %s", label, cellsString(row.Target)))
			case domain.RowRemove:
				ew.printf("%s\n", p.remove.Sprintf("- %s: %s", label, cellsString(row.Base)))
			case domain.RowModify:
				ew.printf("%s %s\n", p.change.Sprint("~"), label)
				for c := range sd.Columns {
					cc, ok := row.Cells[c]
					if !ok {
						continue
					}
					ew.printf("    %s: %s -> %s\n", sd.Columns[c], quote(cc.Old), quote(cc.New))
				}
			default:
				ew.printf("  %s\n", p.muted.Sprintf("%s: %s", label, cellsString(row.Target)))
			}
		}
	}
	if ew.err != nil {
		return ew.err
	}
	ew.printf("\n")
	if err := WriteSheetSummary(w, r); err != nil {
		return err
	}
	return ew.err
}

// WriteSheetSummary renders one row per sheet with its row counts.
func WriteSheetSummary(w io.Writer, r *compare.SheetReport) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header("Sheet", "Matched by", "Added", "Removed", "Modified", "Same")
	for _, sd := range r.Sheets {
		counts := sd.Counts()
		by := "position"
		if !sd.Positional() {
			by = sd.Columns[sd.KeyColumn]
		}
		if err := table.Append(sd.Sheet, by,
			strconv.Itoa(counts[domain.RowAdd]), strconv.Itoa(counts[domain.RowRemove]),
			strconv.Itoa(counts[domain.RowModify]), strconv.Itoa(counts[domain.RowSame])); err != nil {
			return fmt.Errorf("summary row %s: %w", sd.Sheet, err)
		}
	}
	return table.Render()
}

func cellsString(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = diff.Canonical(v)
	}
	return strings.Join(parts, " | ")
}
