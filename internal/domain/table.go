package domain

// KeySeparator joins the components of a composite record identity. Unit and
// record separator control characters do not occur in ordinary field content.
const KeySeparator = "\x1f\x1e"

// Table is a named snapshot of one table or sheet: ordered columns plus
// ordered records. PrimaryKey holds identity metadata reported by the source
// format (e.g. a declared primary key) and may be empty.
type Table struct {
	Name       string
	Columns    []string
	Records    []*Record
	PrimaryKey []string
}

// RowCount returns the number of records, tolerating a nil table.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// CommonNames returns the names present in both lists, in source order.
// Duplicate names are reported once.
func CommonNames(source, target []string) []string {
	inTarget := make(map[string]bool, len(target))
	for _, n := range target {
		inTarget[n] = true
	}
	seen := make(map[string]bool, len(source))
	var out []string
	for _, n := range source {
		if inTarget[n] && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
