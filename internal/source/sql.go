package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"recdiff/internal/domain"
)

// quoteIdent wraps a SQL identifier in double quotes, doubling embedded
// quotes. Table names come from the catalog of the file being read.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// queryStrings runs a query returning one text column.
func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// readRecords reads every row of a query into records keyed by the result
// column names.
func readRecords(ctx context.Context, db *sql.DB, query string) ([]string, []*domain.Record, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var records []*domain.Record
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		rec := domain.NewRecord()
		for i, c := range cols {
			rec.Set(c, scalar(vals[i]))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if records == nil {
		records = []*domain.Record{}
	}
	return cols, records, nil
}

// scalar maps driver values onto record scalars. Driver-specific types
// (decimals, UUIDs, intervals) are kept and compared through their string
// form.
func scalar(v any) any {
	switch t := v.(type) {
	case int32:
		return int64(t)
	case int16:
		return int64(t)
	case int8:
		return int64(t)
	case float32:
		return float64(t)
	case []byte:
		return append([]byte(nil), t...)
	default:
		return v
	}
}
