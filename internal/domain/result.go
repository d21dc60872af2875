package domain

// FieldChange describes one differing field of a matched record pair.
type FieldChange struct {
	Field          string `json:"field"`
	Old            any    `json:"old"`
	New            any    `json:"new"`
	OldNormalized  string `json:"old_processed"`
	NewNormalized  string `json:"new_processed"`
	PatternApplied bool   `json:"is_regex_diff"`
}

// ChangedRecord is a matched pair with at least one differing field.
// Changes are ordered by the union of field names: source fields first, then
// fields only present in the target.
type ChangedRecord struct {
	Key     *Record       `json:"pk"`
	Source  *Record       `json:"-"`
	Changes []FieldChange `json:"diffs"`
}

// Change returns the change recorded for field, if any.
func (c ChangedRecord) Change(field string) (FieldChange, bool) {
	for _, fc := range c.Changes {
		if fc.Field == field {
			return fc, true
		}
	}
	return FieldChange{}, false
}

// DiffResult is the classified outcome of diffing one table pair. It is
// immutable once produced; a configuration or source change discards it.
type DiffResult struct {
	Table          string          `json:"table"`
	Added          []*Record       `json:"added"`
	Removed        []*Record       `json:"removed"`
	Changed        []ChangedRecord `json:"changed"`
	IdenticalCount int             `json:"identical_count"`
}

// NewDiffResult returns an empty result with non-nil partitions.
func NewDiffResult(table string) *DiffResult {
	return &DiffResult{
		Table:   table,
		Added:   []*Record{},
		Removed: []*Record{},
		Changed: []ChangedRecord{},
	}
}

// HasDiff reports whether any record was added, removed or changed.
func (r *DiffResult) HasDiff() bool {
	return r.TotalDiff() > 0
}

// TotalDiff returns the number of added, removed and changed records.
func (r *DiffResult) TotalDiff() int {
	if r == nil {
		return 0
	}
	return len(r.Added) + len(r.Removed) + len(r.Changed)
}

// DiffSummary holds per-partition counts.
type DiffSummary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Changed   int `json:"changed"`
	Identical int `json:"identical"`
}

// Summary returns the partition counts.
func (r *DiffResult) Summary() DiffSummary {
	if r == nil {
		return DiffSummary{}
	}
	return DiffSummary{
		Added:     len(r.Added),
		Removed:   len(r.Removed),
		Changed:   len(r.Changed),
		Identical: r.IdenticalCount,
	}
}

// RowChange classifies one aligned row of a sheet diff.
type RowChange string

const (
	RowAdd    RowChange = "add"
	RowRemove RowChange = "remove"
	RowModify RowChange = "modify"
	RowSame   RowChange = "same"
)

// CellChange holds the old and new value of one differing cell.
type CellChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// RowDiff is one aligned row of a sheet diff. Base is nil for added rows and
// Target is nil for removed rows. RowIndex is the 1-based position of the row
// in its own sheet (target sheet unless the row was removed).
type RowDiff struct {
	Type     RowChange          `json:"type"`
	Base     []any              `json:"base"`
	Target   []any              `json:"target"`
	Cells    map[int]CellChange `json:"diffs,omitempty"`
	RowIndex int                `json:"row_index"`
}

// SheetDiff is the result of aligning two sheets. KeyColumn is the index of
// the discovered identity column, or -1 when rows were aligned by position.
type SheetDiff struct {
	Sheet     string    `json:"sheet"`
	Columns   []string  `json:"columns"`
	Rows      []RowDiff `json:"rows"`
	KeyColumn int       `json:"pk_index"`
}

// Positional reports whether rows were aligned by index only. Any inserted
// or deleted row shifts every later comparison in this mode.
func (d *SheetDiff) Positional() bool { return d.KeyColumn < 0 }

// Counts returns the number of rows per change type.
func (d *SheetDiff) Counts() map[RowChange]int {
	out := map[RowChange]int{}
	for _, r := range d.Rows {
		out[r.Type]++
	}
	return out
}
