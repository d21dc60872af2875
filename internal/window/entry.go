package window

import "recdiff/internal/domain"

// EntryKind tags a flattened result entry.
type EntryKind string

const (
	EntryChanged EntryKind = "changed"
	EntryAdded   EntryKind = "added"
	EntryRemoved EntryKind = "removed"
)

// Entry is one row of a flattened diff result. Record is the target record
// for changed and added entries and the source record for removed ones;
// Change is set only for changed entries.
type Entry struct {
	Kind   EntryKind
	Record *domain.Record
	Change *domain.ChangedRecord
}

// Flatten lists the differences of a result: changed, then added, then
// removed, each in result order.
func Flatten(r *domain.DiffResult) []Entry {
	if r == nil {
		return []Entry{}
	}
	out := make([]Entry, 0, r.TotalDiff())
	for i := range r.Changed {
		c := &r.Changed[i]
		out = append(out, Entry{Kind: EntryChanged, Record: c.Key, Change: c})
	}
	for _, rec := range r.Added {
		out = append(out, Entry{Kind: EntryAdded, Record: rec})
	}
	for _, rec := range r.Removed {
		out = append(out, Entry{Kind: EntryRemoved, Record: rec})
	}
	return out
}
