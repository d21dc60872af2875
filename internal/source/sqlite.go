package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"sort"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"recdiff/internal/domain"
)

// sqliteDSN opens the file read-only and immutable so a snapshot is never
// modified and no journal files are created next to it. The path is
// percent-escaped so '?', '#' and '%' in file names survive the URI.
func sqliteDSN(path string) string {
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("immutable", "1")
	params.Set("_busy_timeout", "5000")
	u := url.URL{Path: path}
	return "file:" + u.EscapedPath() + "?" + params.Encode()
}

// OpenSQLite reads every user table of a SQLite file, in catalog order.
// The detected primary key of a table is its declared PRIMARY KEY, in key
// position order.
func OpenSQLite(ctx context.Context, path string) (*Database, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close() //nolint:errcheck
	db.SetMaxOpenConns(1)

	names, err := queryStrings(ctx, db,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list sqlite tables in %s: %w", path, err)
	}

	out := &Database{Name: baseName(path), Tables: make([]*domain.Table, 0, len(names))}
	for _, name := range names {
		t, err := readSQLiteTable(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("read sqlite table %q: %w", name, err)
		}
		out.Tables = append(out.Tables, t)
	}
	return out, nil
}

type sqliteColumn struct {
	name string
	pk   int
}

func readSQLiteTable(ctx context.Context, db *sql.DB, name string) (*domain.Table, error) {
	info, err := sqliteTableInfo(ctx, db, name)
	if err != nil {
		return nil, err
	}
	cols, records, err := readRecords(ctx, db, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		for _, c := range info {
			cols = append(cols, c.name)
		}
	}

	var pks []sqliteColumn
	for _, c := range info {
		if c.pk > 0 {
			pks = append(pks, c)
		}
	}
	sort.SliceStable(pks, func(i, j int) bool { return pks[i].pk < pks[j].pk })
	t := &domain.Table{Name: name, Columns: cols, Records: records, PrimaryKey: []string{}}
	for _, c := range pks {
		t.PrimaryKey = append(t.PrimaryKey, c.name)
	}
	return t, nil
}

func sqliteTableInfo(ctx context.Context, db *sql.DB, name string) ([]sqliteColumn, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(name)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []sqliteColumn
	for rows.Next() {
		var (
			cid     int
			col     string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		out = append(out, sqliteColumn{name: col, pk: pk})
	}
	return out, rows.Err()
}
