// Package testutil provides shared fixtures and fakes for tests across the
// codebase, in the spirit of net/http/httptest.
package testutil

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver for fixtures
	"github.com/stretchr/testify/require"
)

// WriteSQLite creates dir/name and runs stmts against it.
func WriteSQLite(t *testing.T, dir, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	require.NoError(t, db.Close())
	return path
}

// Snapshots writes an old and a new SQLite snapshot. Both hold users and
// items; only the old one holds legacy. Between them users has one added,
// one removed, one changed (name) and one touched row whose only difference
// is the updated column.
func Snapshots(t *testing.T) (oldPath, newPath string) {
	t.Helper()
	dir := t.TempDir()
	oldPath = WriteSQLite(t, dir, "old.db",
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, updated TEXT)`,
		`INSERT INTO users VALUES (1, 'ann', 'mon'), (2, 'bob', 'mon'), (3, 'cid', 'mon')`,
		`CREATE TABLE items (sku TEXT, label TEXT)`,
		`INSERT INTO items VALUES ('A', 'bolt'), ('B', 'nut')`,
		`CREATE TABLE legacy (x TEXT)`,
	)
	newPath = WriteSQLite(t, dir, "new.db",
		`CREATE TABLE items (sku TEXT, label TEXT)`,
		`INSERT INTO items VALUES ('A', 'bolt'), ('B', 'nut')`,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, updated TEXT)`,
		`INSERT INTO users VALUES (1, 'ann', 'tue'), (2, 'bobby', 'tue'), (4, 'dan', 'tue')`,
	)
	return oldPath, newPath
}

// WriteCSV writes rows to dir/name.
func WriteCSV(t *testing.T, dir, name string, rows ...[]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	fh, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(fh)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, fh.Close())
	return path
}

// WriteFile writes content to dir/name.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// MockFetcher serves remote objects from an in-memory map keyed by URI.
type MockFetcher struct {
	Objects map[string][]byte
	FetchFn func(ctx context.Context, uri string, w io.Writer) error

	mu    sync.Mutex
	calls []string
}

// Fetch implements storage.Fetcher.
func (m *MockFetcher) Fetch(ctx context.Context, uri string, w io.Writer) error {
	m.mu.Lock()
	m.calls = append(m.calls, uri)
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(ctx, uri, w)
	}
	data, ok := m.Objects[uri]
	if !ok {
		return fmt.Errorf("no such object: %s", uri)
	}
	_, err := w.Write(data)
	return err
}

// Calls returns the fetched URIs in order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// ServeFile registers the content of a local file under uri.
func (m *MockFetcher) ServeFile(t *testing.T, uri, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if m.Objects == nil {
		m.Objects = map[string][]byte{}
	}
	m.Objects[uri] = data
}
