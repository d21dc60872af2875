package diff

import (
	"fmt"
	"strings"

	"recdiff/internal/domain"
)

// keyColumnHints are the header substrings that mark a candidate identity
// column of a sheet.
var keyColumnHints = []string{"id", "code", "no", "key"}

// DiffSheets aligns two sheets given as rows of cells, the first row being
// the header. If the source sheet has a header column that looks like an
// identity and holds unique values, rows are matched by that column: target
// rows come first in target order, then unmatched source rows. Otherwise
// rows are matched by position only.
//
// Cells compare by canonical string, so 1 and "1" are equal and a missing
// cell equals an empty one.
func DiffSheets(name string, source, target [][]any) *domain.SheetDiff {
	var header1, header2 []any
	if len(source) > 0 {
		header1 = source[0]
	}
	if len(target) > 0 {
		header2 = target[0]
	}
	width := max(len(header1), len(header2))
	columns := make([]string, width)
	for i := range columns {
		switch {
		case Canonical(cell(header1, i)) != "":
			columns[i] = Canonical(cell(header1, i))
		case Canonical(cell(header2, i)) != "":
			columns[i] = Canonical(cell(header2, i))
		default:
			columns[i] = fmt.Sprintf("Col %d", i+1)
		}
	}

	out := &domain.SheetDiff{
		Sheet:     name,
		Columns:   columns,
		Rows:      []domain.RowDiff{},
		KeyColumn: FindKeyColumn(source),
	}
	if out.KeyColumn < 0 {
		out.Rows = alignByPosition(source, target, width)
	} else {
		out.Rows = alignByKey(source, target, width, out.KeyColumn)
	}
	return out
}

// FindKeyColumn returns the index of the first header cell whose lower-cased
// name contains an identity hint and whose values below the header are
// unique. It returns -1 when no column qualifies or the sheet has no data
// rows.
func FindKeyColumn(rows [][]any) int {
	if len(rows) < 2 {
		return -1
	}
	for i, h := range rows[0] {
		if !looksLikeKey(Canonical(h)) {
			continue
		}
		seen := make(map[string]struct{}, len(rows)-1)
		unique := true
		for _, r := range rows[1:] {
			v := Canonical(cell(r, i))
			if _, dup := seen[v]; dup {
				unique = false
				break
			}
			seen[v] = struct{}{}
		}
		if unique {
			return i
		}
	}
	return -1
}

func looksLikeKey(header string) bool {
	h := strings.ToLower(header)
	for _, hint := range keyColumnHints {
		if strings.Contains(h, hint) {
			return true
		}
	}
	return false
}

func alignByKey(source, target [][]any, width, keyCol int) []domain.RowDiff {
	type located struct {
		row   []any
		index int
	}
	lookup := map[string]located{}
	var order []string
	for i := 1; i < len(source); i++ {
		k := Canonical(cell(source[i], keyCol))
		if _, ok := lookup[k]; !ok {
			order = append(order, k)
		}
		lookup[k] = located{row: source[i], index: i}
	}

	rows := make([]domain.RowDiff, 0, max(len(source), len(target)))
	seen := map[string]bool{}
	for i := 1; i < len(target); i++ {
		r2 := target[i]
		k := Canonical(cell(r2, keyCol))
		seen[k] = true
		base, ok := lookup[k]
		if !ok {
			rows = append(rows, domain.RowDiff{Type: domain.RowAdd, Target: r2, RowIndex: i})
			continue
		}
		rows = append(rows, compareRows(base.row, r2, width, i))
	}
	for _, k := range order {
		if !seen[k] {
			base := lookup[k]
			rows = append(rows, domain.RowDiff{Type: domain.RowRemove, Base: base.row, RowIndex: base.index})
		}
	}
	return rows
}

func alignByPosition(source, target [][]any, width int) []domain.RowDiff {
	n := max(len(source), len(target))
	rows := make([]domain.RowDiff, 0, max(n-1, 0))
	for i := 1; i < n; i++ {
		switch {
		case i >= len(target):
			rows = append(rows, domain.RowDiff{Type: domain.RowRemove, Base: source[i], RowIndex: i})
		case i >= len(source):
			rows = append(rows, domain.RowDiff{Type: domain.RowAdd, Target: target[i], RowIndex: i})
		default:
			rows = append(rows, compareRows(source[i], target[i], width, i))
		}
	}
	return rows
}

func compareRows(base, tgt []any, width, index int) domain.RowDiff {
	rd := domain.RowDiff{Type: domain.RowSame, Base: base, Target: tgt, RowIndex: index}
	for c := 0; c < width; c++ {
		o, n := cell(base, c), cell(tgt, c)
		if Canonical(o) == Canonical(n) {
			continue
		}
		if rd.Cells == nil {
			rd.Cells = map[int]domain.CellChange{}
		}
		rd.Cells[c] = domain.CellChange{Old: o, New: n}
	}
	if len(rd.Cells) > 0 {
		rd.Type = domain.RowModify
	}
	return rd
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}
