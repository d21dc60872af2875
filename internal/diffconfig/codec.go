// Package diffconfig reads and writes comparison configurations. The JSON
// layout is the one exported by the browser tool:
//
//	{"tableConfigs": {"t": {"pks": [...], "ignore": [...]}},
//	 "selectedTables": [...],
//	 "columnRegex": {"t": {"field": "pattern"}}}
//
// YAML files use the same keys.
package diffconfig

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"recdiff/internal/domain"
)

// Format is a configuration file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension: .yaml and .yml are
// YAML, everything else is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type file struct {
	TableConfigs   map[string]domain.TableConfig `json:"tableConfigs" yaml:"tableConfigs"`
	SelectedTables []string                      `json:"selectedTables" yaml:"selectedTables"`
	ColumnRegex    map[string]map[string]string  `json:"columnRegex" yaml:"columnRegex"`
}

func toFile(cs *domain.ConfigSet) file {
	snap := cs.Snapshot()
	f := file{
		TableConfigs:   make(map[string]domain.TableConfig, len(snap.Tables)),
		SelectedTables: snap.Selected,
		ColumnRegex:    snap.Patterns,
	}
	if f.SelectedTables == nil {
		f.SelectedTables = []string{}
	}
	for name, tc := range snap.Tables {
		if tc.PrimaryKeys == nil {
			tc.PrimaryKeys = []string{}
		}
		if tc.Ignored == nil {
			tc.Ignored = []string{}
		}
		f.TableConfigs[name] = tc
	}
	return f
}

func fromFile(f file) (*domain.ConfigSet, error) {
	cs := domain.NewConfigSet()
	for name, tc := range f.TableConfigs {
		if name == "" {
			return nil, domain.ErrValidation("tableConfigs: empty table name")
		}
		for _, k := range tc.PrimaryKeys {
			if k == "" {
				return nil, domain.ErrValidation("tableConfigs.%s.pks: empty field name", name)
			}
		}
		cs.Tables[name] = tc.Clone()
	}
	// A present but empty selectedTables means nothing is selected.
	if f.SelectedTables != nil {
		cs.Selected = append([]string{}, f.SelectedTables...)
	}
	if f.ColumnRegex == nil {
		cs.Patterns = nil
	}
	for table, fields := range f.ColumnRegex {
		for field, pattern := range fields {
			if pattern == "" {
				continue
			}
			if cs.Patterns[table] == nil {
				cs.Patterns[table] = map[string]string{}
			}
			cs.Patterns[table][field] = pattern
		}
	}
	return cs, nil
}

// Encode writes cs in the given format. Empty lists are written as empty
// arrays, never null.
func Encode(w io.Writer, cs *domain.ConfigSet, format Format) error {
	f := toFile(cs)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode yaml config: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode json config: %w", err)
		}
		return nil
	default:
		return domain.ErrValidation("unsupported config format %q", format)
	}
}

// Decode reads a configuration in the given format.
func Decode(r io.Reader, format Format) (*domain.ConfigSet, error) {
	var f file
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml config: %w", err)
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&f); err != nil {
			return nil, fmt.Errorf("decode json config: %w", err)
		}
	default:
		return nil, domain.ErrValidation("unsupported config format %q", format)
	}
	return fromFile(f)
}

// Load reads a configuration file, choosing the format by extension.
func Load(path string) (*domain.ConfigSet, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close() //nolint:errcheck

	cs, err := Decode(fh, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cs, nil
}

// Save writes a configuration file, choosing the format by extension.
func Save(path string, cs *domain.ConfigSet) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if err := Encode(fh, cs, FormatFor(path)); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

// Merge overlays loaded onto base for the tables base knows about. Table
// configurations are replaced per table. When loaded carries patterns (a nil
// Patterns means the file had no columnRegex), base's patterns are replaced
// as a whole. A non-nil selection, even an empty one, replaces base's,
// narrowed to known tables. Tables unknown to base are returned as skipped,
// sorted.
func Merge(base, loaded *domain.ConfigSet) (skipped []string) {
	unknown := map[string]bool{}
	for name, tc := range loaded.Tables {
		if _, ok := base.Tables[name]; !ok {
			unknown[name] = true
			continue
		}
		base.SetTable(name, tc)
	}
	if loaded.Patterns != nil {
		for table, fields := range base.Patterns {
			for field := range fields {
				base.SetPattern(table, field, "")
			}
		}
	}
	for table, fields := range loaded.Patterns {
		if _, ok := base.Tables[table]; !ok {
			unknown[table] = true
			continue
		}
		for field, pattern := range fields {
			base.SetPattern(table, field, pattern)
		}
	}
	if loaded.Selected != nil {
		sel := []string{}
		for _, name := range loaded.Selected {
			if _, ok := base.Tables[name]; ok {
				sel = append(sel, name)
			} else {
				unknown[name] = true
			}
		}
		base.SelectAll(sel)
	}
	for name := range unknown {
		skipped = append(skipped, name)
	}
	sort.Strings(skipped)
	return skipped
}
