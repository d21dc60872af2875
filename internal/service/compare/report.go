package compare

import (
	"time"

	"recdiff/internal/domain"
)

// Report is the outcome of one comparison run.
type Report struct {
	ID            string        `json:"id"`
	Source        string        `json:"source"`
	Target        string        `json:"target"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	ConfigVersion uint64        `json:"config_version"`
	Tables        []TableReport `json:"tables"`
}

// TableReport is the diff of one selected table together with the
// configuration it ran with.
type TableReport struct {
	Name       string             `json:"name"`
	SourceRows int                `json:"source_rows"`
	TargetRows int                `json:"target_rows"`
	Config     domain.TableConfig `json:"config"`
	Result     *domain.DiffResult `json:"result"`
}

// Results returns the per-table results in selection order.
func (r *Report) Results() []*domain.DiffResult {
	out := make([]*domain.DiffResult, len(r.Tables))
	for i, t := range r.Tables {
		out[i] = t.Result
	}
	return out
}

// Table returns the report of one table.
func (r *Report) Table(name string) (TableReport, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableReport{}, false
}

// HasDiff reports whether any table differs.
func (r *Report) HasDiff() bool {
	for _, t := range r.Tables {
		if t.Result.HasDiff() {
			return true
		}
	}
	return false
}

// Totals sums the partition counts over all tables.
func (r *Report) Totals() domain.DiffSummary {
	var s domain.DiffSummary
	for _, t := range r.Tables {
		ts := t.Result.Summary()
		s.Added += ts.Added
		s.Removed += ts.Removed
		s.Changed += ts.Changed
		s.Identical += ts.Identical
	}
	return s
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SheetReport is the outcome of comparing two workbooks.
type SheetReport struct {
	ID     string              `json:"id"`
	Source string              `json:"source"`
	Target string              `json:"target"`
	Sheets []*domain.SheetDiff `json:"sheets"`
}

// Sheet returns the diff of one sheet.
func (r *SheetReport) Sheet(name string) (*domain.SheetDiff, bool) {
	for _, s := range r.Sheets {
		if s.Sheet == name {
			return s, true
		}
	}
	return nil, false
}

// HasDiff reports whether any row of any sheet differs.
func (r *SheetReport) HasDiff() bool {
	for _, s := range r.Sheets {
		for _, row := range s.Rows {
			if row.Type != domain.RowSame {
				return true
			}
		}
	}
	return false
}
