package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver

	"recdiff/internal/domain"
)

// OpenDuckDB reads every base table of the main schema of a DuckDB file, in
// creation order. The detected primary key is the declared PRIMARY KEY
// constraint.
func OpenDuckDB(ctx context.Context, path string) (*Database, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db, err := sql.Open("duckdb", path+"?access_mode=READ_ONLY")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close() //nolint:errcheck

	names, err := queryStrings(ctx, db, `
		SELECT table_name FROM duckdb_tables()
		WHERE database_name = current_database() AND schema_name = 'main' AND NOT internal
		ORDER BY table_oid`)
	if err != nil {
		return nil, fmt.Errorf("list duckdb tables in %s: %w", path, err)
	}

	out := &Database{Name: baseName(path), Tables: make([]*domain.Table, 0, len(names))}
	for _, name := range names {
		t, err := readDuckDBTable(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("read duckdb table %q: %w", name, err)
		}
		out.Tables = append(out.Tables, t)
	}
	return out, nil
}

func readDuckDBTable(ctx context.Context, db *sql.DB, name string) (*domain.Table, error) {
	cols, records, err := readRecords(ctx, db, "SELECT * FROM main."+quoteIdent(name))
	if err != nil {
		return nil, err
	}
	pks, err := queryStrings(ctx, db, `
		SELECT unnest(constraint_column_names) FROM duckdb_constraints()
		WHERE database_name = current_database() AND schema_name = 'main'
		  AND table_name = ? AND constraint_type = 'PRIMARY KEY'`, name)
	if err != nil {
		return nil, fmt.Errorf("primary key: %w", err)
	}
	if pks == nil {
		pks = []string{}
	}
	return &domain.Table{Name: name, Columns: cols, Records: records, PrimaryKey: pks}, nil
}
