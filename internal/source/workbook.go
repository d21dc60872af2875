package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// OpenXLSX reads every sheet of an Excel workbook as formatted cell text.
func OpenXLSX(ctx context.Context, path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	wb := &Workbook{Name: baseName(path)}
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: cells(rows)})
	}
	return wb, nil
}

// OpenCSV reads a CSV file as a workbook with one sheet named after the
// file. Rows may have different lengths.
func OpenCSV(ctx context.Context, path string) (*Workbook, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close() //nolint:errcheck

	rows, err := readCSV(ctx, fh)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	name := baseName(path)
	return &Workbook{Name: name, Sheets: []Sheet{{Name: name, Rows: cells(rows)}}}, nil
}

func readCSV(ctx context.Context, r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	// Excel writes UTF-8 CSV with a byte order mark.
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

func cells(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		out[i] = row
	}
	return out
}
