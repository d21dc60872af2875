package domain

import (
	"slices"
	"strings"
	"unicode"
)

// TableConfig configures identity and comparison for one table pair.
// An empty PrimaryKeys list means the table is not configured yet and the
// engine returns an empty result for it.
type TableConfig struct {
	PrimaryKeys []string `json:"pks" yaml:"pks"`
	Ignored     []string `json:"ignore" yaml:"ignore"`
}

// Configured reports whether at least one key field is set.
func (c TableConfig) Configured() bool { return len(c.PrimaryKeys) > 0 }

// IsKey reports whether field is one of the key fields.
func (c TableConfig) IsKey(field string) bool { return slices.Contains(c.PrimaryKeys, field) }

// IsIgnored reports whether field is excluded from change detection. Key
// membership wins: a key field is never reported as ignored.
func (c TableConfig) IsIgnored(field string) bool {
	return !c.IsKey(field) && slices.Contains(c.Ignored, field)
}

// Clone returns a deep copy.
func (c TableConfig) Clone() TableConfig {
	return TableConfig{
		PrimaryKeys: cloneStrings(c.PrimaryKeys),
		Ignored:     cloneStrings(c.Ignored),
	}
}

// PatternMap maps table name to field name to a regular expression. When a
// pattern is set only its first match participates in comparison.
type PatternMap map[string]map[string]string

// Lookup returns the pattern for a field, or "" when none is configured.
func (m PatternMap) Lookup(table, field string) string {
	if m == nil {
		return ""
	}
	return m[table][field]
}

// Clone returns a deep copy.
func (m PatternMap) Clone() PatternMap {
	if m == nil {
		return nil
	}
	out := make(PatternMap, len(m))
	for table, fields := range m {
		inner := make(map[string]string, len(fields))
		for f, p := range fields {
			inner[f] = p
		}
		out[table] = inner
	}
	return out
}

// ConfigSet is the versioned configuration of a comparison session: one
// TableConfig per comparable table, the tables selected for a run and the
// per-field patterns. Every mutation bumps Version. A diff run works on a
// Snapshot so later edits never reach an in-flight run.
type ConfigSet struct {
	Version  uint64
	Tables   map[string]TableConfig
	Selected []string
	Patterns PatternMap
}

// NewConfigSet returns an empty configuration at version 0.
func NewConfigSet() *ConfigSet {
	return &ConfigSet{Tables: map[string]TableConfig{}, Patterns: PatternMap{}}
}

// Snapshot returns a deep copy safe to hand to a concurrent diff run.
func (cs *ConfigSet) Snapshot() *ConfigSet {
	out := &ConfigSet{
		Version:  cs.Version,
		Tables:   make(map[string]TableConfig, len(cs.Tables)),
		Selected: cloneStrings(cs.Selected),
		Patterns: cs.Patterns.Clone(),
	}
	for name, tc := range cs.Tables {
		out.Tables[name] = tc.Clone()
	}
	if out.Patterns == nil {
		out.Patterns = PatternMap{}
	}
	return out
}

// Table returns the configuration of a table (zero value if unknown).
func (cs *ConfigSet) Table(name string) TableConfig {
	return cs.Tables[name]
}

// SetTable replaces the configuration of a table.
func (cs *ConfigSet) SetTable(name string, tc TableConfig) {
	if cs.Tables == nil {
		cs.Tables = map[string]TableConfig{}
	}
	cs.Tables[name] = tc.Clone()
	cs.Version++
}

// TogglePrimaryKey adds or removes field from the key fields of a table.
// Adding a key field removes it from the ignored fields.
func (cs *ConfigSet) TogglePrimaryKey(table, field string) {
	tc := cs.Tables[table].Clone()
	if slices.Contains(tc.PrimaryKeys, field) {
		tc.PrimaryKeys = without(tc.PrimaryKeys, field)
	} else {
		tc.PrimaryKeys = append(tc.PrimaryKeys, field)
		tc.Ignored = without(tc.Ignored, field)
	}
	cs.SetTable(table, tc)
}

// ToggleIgnored adds or removes field from the ignored fields of a table.
// Ignoring a field removes it from the key fields.
func (cs *ConfigSet) ToggleIgnored(table, field string) {
	tc := cs.Tables[table].Clone()
	if slices.Contains(tc.Ignored, field) {
		tc.Ignored = without(tc.Ignored, field)
	} else {
		tc.Ignored = append(tc.Ignored, field)
		tc.PrimaryKeys = without(tc.PrimaryKeys, field)
	}
	cs.SetTable(table, tc)
}

// IgnoreAll ignores every non-key column of a table when on is true and
// clears the ignored fields otherwise.
func (cs *ConfigSet) IgnoreAll(table string, columns []string, on bool) {
	tc := cs.Tables[table].Clone()
	tc.Ignored = nil
	if on {
		for _, c := range columns {
			if !tc.IsKey(c) {
				tc.Ignored = append(tc.Ignored, c)
			}
		}
	}
	cs.SetTable(table, tc)
}

// SetPattern sets the comparison pattern of a field. An empty pattern
// removes the entry.
func (cs *ConfigSet) SetPattern(table, field, pattern string) {
	if cs.Patterns == nil {
		cs.Patterns = PatternMap{}
	}
	if pattern == "" {
		delete(cs.Patterns[table], field)
		if len(cs.Patterns[table]) == 0 {
			delete(cs.Patterns, table)
		}
	} else {
		if cs.Patterns[table] == nil {
			cs.Patterns[table] = map[string]string{}
		}
		cs.Patterns[table][field] = pattern
	}
	cs.Version++
}

// ParseKeywords splits free text on commas (ASCII or full-width) and
// whitespace, lower-cases the parts and drops empty ones.
func ParseKeywords(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '，' || unicode.IsSpace(r)
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplyGlobalIgnore adds, in every configured table, the schema columns whose
// lower-cased name equals one of the keywords to the ignored fields. Key
// fields are never ignored. It returns the parsed keywords; nothing changes
// when there are none.
func (cs *ConfigSet) ApplyGlobalIgnore(text string, schemas map[string][]string) []string {
	keywords := ParseKeywords(text)
	if len(keywords) == 0 {
		return nil
	}
	for table, tc := range cs.Tables {
		next := tc.Clone()
		for _, col := range schemas[table] {
			if !slices.Contains(keywords, strings.ToLower(col)) || next.IsKey(col) {
				continue
			}
			if !slices.Contains(next.Ignored, col) {
				next.Ignored = append(next.Ignored, col)
			}
		}
		cs.Tables[table] = next
	}
	cs.Version++
	return keywords
}

// IsSelected reports whether a table is selected for the next run.
func (cs *ConfigSet) IsSelected(table string) bool {
	return slices.Contains(cs.Selected, table)
}

// ToggleSelected selects or deselects a table.
func (cs *ConfigSet) ToggleSelected(table string) {
	if cs.IsSelected(table) {
		cs.Selected = without(cs.Selected, table)
	} else {
		cs.Selected = append(cloneStrings(cs.Selected), table)
	}
	cs.Version++
}

// SelectAll selects the given tables in order.
func (cs *ConfigSet) SelectAll(tables []string) {
	cs.Selected = cloneStrings(tables)
	cs.Version++
}

// SelectNone clears the selection.
func (cs *ConfigSet) SelectNone() {
	cs.Selected = nil
	cs.Version++
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func without(in []string, v string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
