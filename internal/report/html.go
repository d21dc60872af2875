package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"

	"recdiff/internal/diff"
	"recdiff/internal/domain"
	"recdiff/internal/service/compare"
	"recdiff/internal/window"
)

const datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"

const stylesheet = `
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif;margin:0;color:#1f2328;background:#f6f8fa}
.layout{max-width:1200px;margin:0 auto;padding:24px}
.card{background:#fff;border:1px solid #d0d7de;border-radius:6px;padding:16px;margin-bottom:16px}
.muted{color:#59636e;font-size:12px}
table.data-table{border-collapse:collapse;width:100%;font-size:13px}
.data-table th,.data-table td{border-bottom:1px solid #d8dee4;padding:6px 8px;text-align:left;vertical-align:top}
.label{display:inline-block;padding:0 7px;border-radius:2em;font-size:12px;border:1px solid}
.label-added{color:#1a7f37;border-color:#1a7f37}
.label-removed{color:#cf222e;border-color:#cf222e}
.label-changed{color:#9a6700;border-color:#9a6700}
.label-same{color:#59636e;border-color:#d0d7de}
tr.row-add{background:#dafbe1}
tr.row-remove{background:#ffebe9}
td.cell-diff{background:#fff8c5}
del{color:#cf222e}
ins{color:#1a7f37;text-decoration:none}
.form-control{padding:5px 12px;border:1px solid #d0d7de;border-radius:6px;min-width:280px}
nav.pager a,nav.pager span{margin-right:8px}
`

// Document wraps body in a standalone HTML page with the report stylesheet
// and the datastar runtime used by the quick filters.
func Document(title string, body ...Node) Node {
	return Doctype(HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | recdiff")),
			Link(Rel("icon"), Href("data:,")),
			StyleEl(Raw(stylesheet)),
			Script(Type("module"), Src(datastarSrc)),
		),
		Body(Main(Class("layout"), Group(body))),
	))
}

// ContainsExpr is a datastar expression that is true while the quick filter
// signal $q is empty or a substring of value.
func ContainsExpr(value string) string {
	return "$q === '' || " + strconv.Quote(strings.ToLower(value)) + ".includes($q.toLowerCase())"
}

// QuickFilter renders a search box bound to the $q signal.
func QuickFilter(placeholder string) Node {
	return Div(
		Class("card"),
		data.Signals(map[string]any{"q": ""}),
		Label(Class("muted"), Text("Quick filter "),
			Input(Type("search"), Class("form-control"), Placeholder(placeholder), data.Bind("q"), AutoComplete("off")),
		),
	)
}

// KindLabel renders a colored label for an entry kind or row change.
func KindLabel(kind string) Node {
	tone := kind
	switch kind {
	case string(domain.RowAdd):
		tone = "added"
	case string(domain.RowRemove):
		tone = "removed"
	case string(domain.RowModify):
		tone = "changed"
	}
	return Span(Class("label label-"+tone), Text(kind))
}

// SummaryTable renders one row per table. href, when non-nil, links each
// table name.
func SummaryTable(tables []compare.TableReport, href func(name string) string) Node {
	rows := make([]Node, 0, len(tables))
	for _, t := range tables {
		s := t.Result.Summary()
		name := Node(Text(t.Name))
		if href != nil {
			name = A(Href(href(t.Name)), Text(t.Name))
		}
		rows = append(rows, Tr(
			data.Show(ContainsExpr(t.Name)),
			Td(name),
			Td(Code(Text(keyLabel(t.Config)))),
			Td(Text(strconv.Itoa(s.Added))),
			Td(Text(strconv.Itoa(s.Removed))),
			Td(Text(strconv.Itoa(s.Changed))),
			Td(Text(strconv.Itoa(s.Identical))),
		))
	}
	return Table(Class("data-table"),
		THead(Tr(Th(Text("Table")), Th(Text("Key")), Th(Text("Added")), Th(Text("Removed")), Th(Text("Changed")), Th(Text("Identical")))),
		TBody(Group(rows)),
	)
}

// EntryTable renders flattened diff entries: the key fields, then for
// changed entries each differing field as old and new value, and for added
// or removed entries the whole record.
func EntryTable(entries []window.Entry, tc domain.TableConfig) Node {
	if len(entries) == 0 {
		return P(Class("muted"), Text("No differences."))
	}
	rows := make([]Node, 0, len(entries))
	for _, e := range entries {
		key := keyValues(e.Record, tc.PrimaryKeys)
		var detail Node
		if e.Change != nil {
			items := make([]Node, 0, len(e.Change.Changes))
			for _, fc := range e.Change.Changes {
				items = append(items, Li(fieldChange(fc)))
			}
			detail = Ul(Group(items))
		} else {
			detail = Code(Text(RecordString(e.Record)))
		}
		rows = append(rows, Tr(
			data.Show(ContainsExpr(key+" "+RecordString(e.Record))),
			Td(KindLabel(string(e.Kind))),
			Td(Code(Text(key))),
			Td(detail),
		))
	}
	return Table(Class("data-table"),
		THead(Tr(Th(Text("Kind")), Th(Text("Key")), Th(Text("Difference")))),
		TBody(Group(rows)),
	)
}

func fieldChange(fc domain.FieldChange) Node {
	nodes := []Node{
		Strong(Text(fc.Field)), Text(": "),
		Del(Text(quote(fc.Old))), Text(" -> "), Ins(Text(quote(fc.New))),
	}
	if fc.PatternApplied {
		nodes = append(nodes, Span(Class("muted"),
			Text(fmt.Sprintf(" compared %q -> %q", fc.OldNormalized, fc.NewNormalized))))
	}
	return Group(nodes)
}

// SheetTable renders aligned sheet rows with differing cells highlighted.
func SheetTable(sd *domain.SheetDiff, rows []domain.RowDiff) Node {
	head := []Node{Th(Text("")), Th(Text("Row"))}
	for _, c := range sd.Columns {
		head = append(head, Th(Text(c)))
	}
	body := make([]Node, 0, len(rows))
	for _, row := range rows {
		cells := []Node{Td(KindLabel(string(row.Type))), Td(Text(strconv.Itoa(row.RowIndex)))}
		shown := row.Target
		if row.Type == domain.RowRemove {
			shown = row.Base
		}
		for i := range sd.Columns {
			if cc, ok := row.Cells[i]; ok {
				cells = append(cells, Td(Class("cell-diff"),
					Del(Text(diff.Canonical(cc.Old))), Text(" "), Ins(Text(diff.Canonical(cc.New)))))
				continue
			}
			var v any
			if i < len(shown) {
				v = shown[i]
			}
			cells = append(cells, Td(Text(diff.Canonical(v))))
		}
		body = append(body, Tr(Class("row-"+string(row.Type)), Group(cells)))
	}
	return Table(Class("data-table"), THead(Tr(Group(head))), TBody(Group(body)))
}

// HTMLPage builds a static page for a report: the summary, then one
// section per table listing every difference.
func HTMLPage(r *compare.Report) Node {
	sections := make([]Node, 0, len(r.Tables))
	for _, t := range r.Tables {
		sections = append(sections, Section(
			ID("table-"+t.Name),
			Class("card"),
			H2(Text(t.Name)),
			P(Class("muted"), Text(fmt.Sprintf("%d -> %d rows, key: %s", t.SourceRows, t.TargetRows, keyLabel(t.Config)))),
			EntryTable(window.Flatten(t.Result), t.Config),
		))
	}
	return Document(
		fmt.Sprintf("%s -> %s", r.Source, r.Target),
		H1(Text(fmt.Sprintf("%s -> %s", r.Source, r.Target))),
		P(Class("muted"), Text(fmt.Sprintf("Run %s, config v%d, %s", r.ID, r.ConfigVersion, r.StartedAt.Format("2006-01-02 15:04:05 MST")))),
		QuickFilter("Filter by table, key or value"),
		Div(Class("card"), SummaryTable(r.Tables, func(name string) string { return "#table-" + name })),
		Group(sections),
	)
}

// WriteHTML renders HTMLPage.
func WriteHTML(w io.Writer, r *compare.Report) error {
	return HTMLPage(r).Render(w)
}

// WriteSheetHTML renders a static page with every sheet diff.
func WriteSheetHTML(w io.Writer, r *compare.SheetReport, diffOnly bool) error {
	sections := make([]Node, 0, len(r.Sheets))
	for _, sd := range r.Sheets {
		view := window.NewSheetView(sd)
		view.SetDiffOnly(diffOnly)
		sections = append(sections, Section(Class("card"), H2(Text(sd.Sheet)), SheetTable(sd, view.Rows())))
	}
	title := fmt.Sprintf("%s -> %s", r.Source, r.Target)
	return Document(title, H1(Text(title)), Group(sections)).Render(w)
}
