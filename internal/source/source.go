// Package source opens snapshot files into tables (databases) or raw cell
// grids (workbooks). Formats are looked up by file extension in a Registry
// assembled by the host.
package source

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"recdiff/internal/domain"
)

// Database is a snapshot parsed into tables, in the order the format lists
// them.
type Database struct {
	Name   string
	Tables []*domain.Table
}

// TableNames returns the table names in order.
func (d *Database) TableNames() []string {
	out := make([]string, len(d.Tables))
	for i, t := range d.Tables {
		out[i] = t.Name
	}
	return out
}

// Table returns a table by name, or nil.
func (d *Database) Table(name string) *domain.Table {
	for _, t := range d.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Schema maps each table name to its columns.
func (d *Database) Schema() map[string][]string {
	out := make(map[string][]string, len(d.Tables))
	for _, t := range d.Tables {
		out[t.Name] = t.Columns
	}
	return out
}

// Sheet is a grid of cells; the first row is the header.
type Sheet struct {
	Name string
	Rows [][]any
}

// Workbook is a snapshot of named sheets in workbook order.
type Workbook struct {
	Name   string
	Sheets []Sheet
}

// SheetNames returns the sheet names in order.
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		out[i] = s.Name
	}
	return out
}

// Sheet returns a sheet by name.
func (w *Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// DatabaseOpener reads a local file into a Database.
type DatabaseOpener func(ctx context.Context, path string) (*Database, error)

// WorkbookOpener reads a local file into a Workbook.
type WorkbookOpener func(ctx context.Context, path string) (*Workbook, error)

// Registry maps file extensions to openers.
type Registry struct {
	databases map[string]DatabaseOpener
	workbooks map[string]WorkbookOpener
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		databases: map[string]DatabaseOpener{},
		workbooks: map[string]WorkbookOpener{},
	}
}

// NewDefaultRegistry returns a registry with every built-in format:
// SQLite, DuckDB and DXF as databases; XLSX and CSV as workbooks.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterDatabase(OpenSQLite, ".db", ".sqlite", ".sqlite3")
	r.RegisterDatabase(OpenDuckDB, ".duckdb", ".ddb")
	r.RegisterDatabase(OpenDXF, ".dxf")
	r.RegisterWorkbook(OpenXLSX, ".xlsx", ".xlsm")
	r.RegisterWorkbook(OpenCSV, ".csv")
	return r
}

// RegisterDatabase binds opener to the given extensions (with leading dot,
// case-insensitive). A later registration replaces an earlier one.
func (r *Registry) RegisterDatabase(opener DatabaseOpener, exts ...string) {
	for _, ext := range exts {
		r.databases[strings.ToLower(ext)] = opener
	}
}

// RegisterWorkbook binds opener to the given extensions.
func (r *Registry) RegisterWorkbook(opener WorkbookOpener, exts ...string) {
	for _, ext := range exts {
		r.workbooks[strings.ToLower(ext)] = opener
	}
}

// DatabaseExtensions lists the registered database extensions, sorted.
func (r *Registry) DatabaseExtensions() []string { return sortedKeys(r.databases) }

// WorkbookExtensions lists the registered workbook extensions, sorted.
func (r *Registry) WorkbookExtensions() []string { return sortedKeys(r.workbooks) }

// IsWorkbook reports whether path has a workbook extension.
func (r *Registry) IsWorkbook(path string) bool {
	_, ok := r.workbooks[strings.ToLower(filepath.Ext(path))]
	return ok
}

// OpenDatabase opens path with the opener registered for its extension.
func (r *Registry) OpenDatabase(ctx context.Context, path string) (*Database, error) {
	ext := strings.ToLower(filepath.Ext(path))
	open, ok := r.databases[ext]
	if !ok {
		return nil, domain.ErrValidation("unsupported database format %q (supported: %s)",
			ext, strings.Join(r.DatabaseExtensions(), ", "))
	}
	return open(ctx, path)
}

// OpenWorkbook opens path with the opener registered for its extension.
func (r *Registry) OpenWorkbook(ctx context.Context, path string) (*Workbook, error) {
	ext := strings.ToLower(filepath.Ext(path))
	open, ok := r.workbooks[ext]
	if !ok {
		return nil, domain.ErrValidation("unsupported workbook format %q (supported: %s)",
			ext, strings.Join(r.WorkbookExtensions(), ", "))
	}
	return open(ctx, path)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
