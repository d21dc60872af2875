package ui

import (
	"fmt"
	"net/url"
	"strconv"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"

	"recdiff/internal/domain"
	"recdiff/internal/report"
	"recdiff/internal/service/compare"
	"recdiff/internal/window"
)

type homePageData struct {
	Report   *compare.Report
	Sheets   *compare.SheetReport
	Tables   []window.TableItem
	Search   string
	DiffOnly bool
}

func homePage(d homePageData) Node {
	title := "Comparison"
	var meta Node
	switch {
	case d.Report != nil:
		title = d.Report.Source + " -> " + d.Report.Target
		meta = mutedText(fmt.Sprintf("Run %s, config v%d, %d table(s)", d.Report.ID, d.Report.ConfigVersion, len(d.Report.Tables)))
	case d.Sheets != nil:
		title = d.Sheets.Source + " -> " + d.Sheets.Target
	}

	body := []Node{meta}
	if d.Report != nil {
		body = append(body, filterForm(d.Search, d.DiffOnly), tableList(d.Report, d.Tables))
	}
	if d.Sheets != nil {
		body = append(body, sheetList(d.Sheets))
	}
	if d.Report == nil && d.Sheets == nil {
		body = append(body, emptyStateCard("No report loaded."))
	}
	return appPage(title, body...)
}

func filterForm(search string, diffOnly bool) Node {
	return Form(
		Class(cardClass()),
		Method("get"),
		Action("/"),
		data.Signals(map[string]any{"q": ""}),
		Input(Type("search"), Name("q"), Class("form-control"), Placeholder("Search tables"), Value(search), AutoComplete("off")),
		Text(" "),
		Label(Input(Type("checkbox"), Name("diff_only"), Value("1"), If(diffOnly, Checked())), Text(" Differences only")),
		Text(" "),
		Button(Type("submit"), Text("Apply")),
		Div(Class("muted"), Text("Quick filter: "),
			Input(Type("search"), Class("form-control"), Placeholder("Filter visible rows"), data.Bind("q"), AutoComplete("off"))),
	)
}

func tableList(r *compare.Report, items []window.TableItem) Node {
	if len(items) == 0 {
		return emptyStateCard("No table matches the current filters.")
	}
	rows := make([]Node, 0, len(items))
	for _, item := range items {
		tr, _ := r.Table(item.Name)
		s := item.Summary
		rows = append(rows, Tr(
			data.Show(report.ContainsExpr(item.Name)),
			Td(A(Href("/tables/"+url.PathEscape(item.Name)), Text(item.Name))),
			Td(statusLabel(item.HasDiff)),
			Td(Code(Text(keyText(tr.Config)))),
			Td(Text(fmt.Sprintf("%d -> %d", tr.SourceRows, tr.TargetRows))),
			Td(Text(strconv.Itoa(s.Added))),
			Td(Text(strconv.Itoa(s.Removed))),
			Td(Text(strconv.Itoa(s.Changed))),
			Td(Text(strconv.Itoa(s.Identical))),
		))
	}
	return Div(Class(cardClass()), Table(Class("data-table"),
		THead(Tr(Th(Text("Table")), Th(Text("Status")), Th(Text("Key")), Th(Text("Rows")),
			Th(Text("Added")), Th(Text("Removed")), Th(Text("Changed")), Th(Text("Identical")))),
		TBody(Group(rows)),
	))
}

func sheetList(r *compare.SheetReport) Node {
	rows := make([]Node, 0, len(r.Sheets))
	for _, sd := range r.Sheets {
		counts := sd.Counts()
		by := "position"
		if !sd.Positional() {
			by = sd.Columns[sd.KeyColumn]
		}
		rows = append(rows, Tr(
			data.Show(report.ContainsExpr(sd.Sheet)),
			Td(A(Href("/sheets/"+url.PathEscape(sd.Sheet)), Text(sd.Sheet))),
			Td(Text(by)),
			Td(Text(strconv.Itoa(counts[domain.RowAdd]))),
			Td(Text(strconv.Itoa(counts[domain.RowRemove]))),
			Td(Text(strconv.Itoa(counts[domain.RowModify]))),
			Td(Text(strconv.Itoa(counts[domain.RowSame]))),
		))
	}
	return Div(Class(cardClass()), H2(Text("Sheets")), Table(Class("data-table"),
		THead(Tr(Th(Text("Sheet")), Th(Text("Matched by")), Th(Text("Added")), Th(Text("Removed")), Th(Text("Modified")), Th(Text("Same")))),
		TBody(Group(rows)),
	))
}

type tablePageData struct {
	Table compare.TableReport
	Pager *window.Pager[window.Entry]
}

func tablePage(d tablePageData) Node {
	t := d.Table
	s := t.Result.Summary()
	return appPage(t.Name,
		mutedText(fmt.Sprintf("%d -> %d rows, key: %s. %d added, %d removed, %d changed, %d identical.",
			t.SourceRows, t.TargetRows, keyText(t.Config), s.Added, s.Removed, s.Changed, s.Identical)),
		report.QuickFilter("Filter this page by key or value"),
		Div(Class(cardClass()), report.EntryTable(d.Pager.Items(), t.Config)),
		paginationNav("/tables/"+url.PathEscape(t.Name), url.Values{}, d.Pager.Current(), d.Pager.TotalPages(), d.Pager.Len()),
	)
}

type sheetPageData struct {
	Sheet    *domain.SheetDiff
	DiffOnly bool
	Pager    *window.Pager[domain.RowDiff]
}

func sheetPage(d sheetPageData) Node {
	sd := d.Sheet
	base := "/sheets/" + url.PathEscape(sd.Sheet)
	toggle := A(Href(base+"?diff_only=1"), Text("Show differences only"))
	query := url.Values{}
	if d.DiffOnly {
		toggle = A(Href(base), Text("Show all rows"))
		query.Set("diff_only", "1")
	}
	var warning Node
	if sd.Positional() {
		warning = mutedText("No unique key column was found, rows are matched by position: an inserted row shifts every later row.")
	}
	return appPage(sd.Sheet,
		warning,
		Div(Class(cardClass()), toggle),
		Div(Class(cardClass()), report.SheetTable(sd, d.Pager.Items())),
		paginationNav(base, query, d.Pager.Current(), d.Pager.TotalPages(), d.Pager.Len()),
	)
}

func keyText(tc domain.TableConfig) string {
	if !tc.Configured() {
		return "-"
	}
	return stringsJoin(tc.PrimaryKeys)
}

func stringsJoin(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	out := values[0]
	for i := 1; i < len(values); i++ {
		out += ", " + values[i]
	}
	return out
}
