// Package report renders comparison results as colored text, JSON or a
// static HTML page.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"recdiff/internal/diff"
	"recdiff/internal/domain"
	"recdiff/internal/service/compare"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat validates an output format name. An empty name means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", domain.ErrValidation("unsupported output format %q: use text, json or html", s)
	}
}

// TextOptions controls the text renderer.
type TextOptions struct {
	// Color enables ANSI colors.
	Color bool
	// Limit caps the records listed per partition and table; 0 lists all.
	Limit int
	// SummaryOnly skips the per-record listing.
	SummaryOnly bool
}

type palette struct {
	add, remove, change, header, muted *color.Color
}

func newPalette(on bool) palette {
	p := palette{
		add:    color.New(color.FgGreen),
		remove: color.New(color.FgRed),
		change: color.New(color.FgYellow),
		header: color.New(color.Bold),
		muted:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.add, p.remove, p.change, p.header, p.muted} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Write renders r in the given format.
func Write(w io.Writer, r *compare.Report, format Format, opts TextOptions) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	default:
		return WriteText(w, r, opts)
	}
}

// WriteText renders a report as a line-oriented listing followed by a
// summary table. Added records are prefixed with "+", removed with "-" and
// changed with "~".
func WriteText(w io.Writer, r *compare.Report, opts TextOptions) error {
	p := newPalette(opts.Color)
	ew := &errWriter{w: w}

	ew.printf("%s %s -> %s\n", p.header.Sprint("Comparison"), r.Source, r.Target)
	ew.printf("%s\n", p.muted.Sprintf("run %s, config v%d, %d table(s), %s",
		r.ID, r.ConfigVersion, len(r.Tables), r.Duration().Round(time.Millisecond)))

	if !opts.SummaryOnly {
		for _, t := range r.Tables {
			writeTable(ew, p, t, opts.Limit)
		}
	}
	if ew.err != nil {
		return ew.err
	}
	ew.printf("\n")
	if err := WriteSummary(w, r); err != nil {
		return err
	}
	return ew.err
}

func writeTable(ew *errWriter, p palette, t compare.TableReport, limit int) {
	res := t.Result
	ew.printf("\n%s %s\n", p.header.Sprintf("== %s", t.Name),
		p.muted.Sprintf("(%d -> %d rows, key: %s)", t.SourceRows, t.TargetRows, keyLabel(t.Config)))
	if !t.Config.Configured() {
		ew.printf("%s\n", p.muted.Sprint("   not configured: no key fields"))
		return
	}
	if !res.HasDiff() {
		ew.printf("%s\n", p.muted.Sprintf("   no differences (%d identical)", res.IdenticalCount))
		return
	}

	for i, c := range res.Changed {
		if limit > 0 && i >= limit {
			ew.printf("%s\n", p.muted.Sprintf("   ... %d more changed", len(res.Changed)-limit))
			break
		}
		ew.printf("%s %s\n", p.change.Sprint("~"), keyValues(c.Key, t.Config.PrimaryKeys))
		for _, fc := range c.Changes {
			line := fmt.Sprintf("    %s: %s -> %s", fc.Field, quote(fc.Old), quote(fc.New))
			if fc.PatternApplied {
				line += p.muted.Sprintf(" (compared %s -> %s)", strconv.Quote(fc.OldNormalized), strconv.Quote(fc.NewNormalized))
			}
			ew.printf("%s\n", line)
		}
	}
	writeRecords(ew, p.add, "+", "added", res.Added, limit, p)
	writeRecords(ew, p.remove, "-", "removed", res.Removed, limit, p)
}

func writeRecords(ew *errWriter, c *color.Color, sign, label string, recs []*domain.Record, limit int, p palette) {
	for i, rec := range recs {
		if limit > 0 && i >= limit {
			ew.printf("%s\n", p.muted.Sprintf("   ... %d more %s", len(recs)-limit, label))
			return
		}
		ew.printf("%s\n", c.Sprintf("%s %s", sign, RecordString(rec)))
	}
}

// WriteSummary renders one row per table with its partition counts.
func WriteSummary(w io.Writer, r *compare.Report) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header("Table", "Key", "Added", "Removed", "Changed", "Identical")
	for _, t := range r.Tables {
		s := t.Result.Summary()
		if err := table.Append(t.Name, keyLabel(t.Config),
			strconv.Itoa(s.Added), strconv.Itoa(s.Removed),
			strconv.Itoa(s.Changed), strconv.Itoa(s.Identical)); err != nil {
			return fmt.Errorf("summary row %s: %w", t.Name, err)
		}
	}
	tot := r.Totals()
	if err := table.Append("total", "",
		strconv.Itoa(tot.Added), strconv.Itoa(tot.Removed),
		strconv.Itoa(tot.Changed), strconv.Itoa(tot.Identical)); err != nil {
		return fmt.Errorf("summary total: %w", err)
	}
	return table.Render()
}

// RecordString formats a record as {field: value, ...} with canonical
// values.
func RecordString(rec *domain.Record) string {
	if rec == nil {
		return "{}"
	}
	parts := make([]string, 0, rec.Len())
	for _, f := range rec.Fields() {
		v, _ := rec.Get(f)
		parts = append(parts, f+": "+diff.Canonical(v))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func keyValues(rec *domain.Record, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, _ := rec.Get(k)
		parts[i] = k + "=" + diff.Canonical(v)
	}
	return strings.Join(parts, ", ")
}

func keyLabel(tc domain.TableConfig) string {
	if !tc.Configured() {
		return "-"
	}
	return strings.Join(tc.PrimaryKeys, ", ")
}

func quote(v any) string {
	if v == nil {
		return "null"
	}
	return strconv.Quote(diff.Canonical(v))
}

// errWriter keeps the first write error so formatting code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
