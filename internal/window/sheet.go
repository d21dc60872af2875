package window

import "recdiff/internal/domain"

// Viewport defaults: fixed row height in pixels and the number of rows
// rendered above and below the visible area.
const (
	DefaultRowHeight = 40
	DefaultOverscan  = 10
)

// SheetView windows the rows of a sheet diff for a virtualized table.
type SheetView struct {
	RowHeight int
	Overscan  int

	diff     *domain.SheetDiff
	diffOnly bool
	rows     []domain.RowDiff
}

// Span is the slice [Start, End) of display rows to render, and the vertical
// offset of the first one.
type Span struct {
	Start   int
	End     int
	OffsetY int
}

// NewSheetView shows every row of d.
func NewSheetView(d *domain.SheetDiff) *SheetView {
	v := &SheetView{RowHeight: DefaultRowHeight, Overscan: DefaultOverscan, diff: d}
	v.filter()
	return v
}

// SetDiffOnly hides unchanged rows when on.
func (v *SheetView) SetDiffOnly(on bool) {
	v.diffOnly = on
	v.filter()
}

// DiffOnly reports whether unchanged rows are hidden.
func (v *SheetView) DiffOnly() bool { return v.diffOnly }

// Rows returns the display rows.
func (v *SheetView) Rows() []domain.RowDiff { return v.rows }

// TotalHeight is the scroll height of all display rows.
func (v *SheetView) TotalHeight() int { return len(v.rows) * v.rowHeight() }

// Viewport returns the rows to render for a scroll position and container
// height, widened by the overscan on both sides.
func (v *SheetView) Viewport(scrollTop, height int) Span {
	rh := v.rowHeight()
	scrollTop = max(scrollTop, 0)
	height = max(height, 0)
	n := len(v.rows)

	end := min(n, (scrollTop+height+rh-1)/rh+v.Overscan)
	start := min(max(0, scrollTop/rh-v.Overscan), end)
	return Span{Start: start, End: end, OffsetY: start * rh}
}

// Visible returns the display rows of Viewport(scrollTop, height).
func (v *SheetView) Visible(scrollTop, height int) []domain.RowDiff {
	s := v.Viewport(scrollTop, height)
	return v.rows[s.Start:s.End]
}

func (v *SheetView) rowHeight() int {
	if v.RowHeight <= 0 {
		return DefaultRowHeight
	}
	return v.RowHeight
}

func (v *SheetView) filter() {
	v.rows = []domain.RowDiff{}
	if v.diff == nil {
		return
	}
	for _, r := range v.diff.Rows {
		if v.diffOnly && r.Type == domain.RowSame {
			continue
		}
		v.rows = append(v.rows, r)
	}
}
