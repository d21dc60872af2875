package ui

import (
	"fmt"
	"net/url"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"recdiff/internal/report"
)

func appPage(title string, body ...Node) Node {
	return report.Document(title,
		Nav(Class("muted"), A(Href("/"), Text("All tables")), Text(" · "), A(Href("/report.json"), Text("JSON"))),
		H1(Text(title)),
		Group(body),
	)
}

func errorPage(title, message string) Node {
	return report.Document(title,
		H1(Text(title)),
		P(Text(message)),
		P(A(Href("/"), Text("Back to overview"))),
	)
}

func cardClass(extra ...string) string {
	out := "card"
	for _, e := range extra {
		out += " " + e
	}
	return out
}

func mutedText(s string) Node {
	return P(Class("muted"), Text(s))
}

func statusLabel(hasDiff bool) Node {
	if hasDiff {
		return report.KindLabel("changed")
	}
	return report.KindLabel("same")
}

func emptyStateCard(message string) Node {
	return Div(Class(cardClass()), P(Class("muted"), Text(message)))
}

// paginationNav links the previous and next pages of basePath, keeping the
// other query parameters.
func paginationNav(basePath string, query url.Values, page, totalPages, totalItems int) Node {
	if totalPages <= 1 {
		return mutedText(fmt.Sprintf("%d entries.", totalItems))
	}
	link := func(n int, label string) Node {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(n))
		return A(Href(basePath+"?"+q.Encode()), Text(label))
	}
	var prev, next Node
	if page > 1 {
		prev = link(page-1, "<- Previous")
	}
	if page < totalPages {
		next = link(page+1, "Next ->")
	}
	return Nav(Class("pager"),
		prev,
		Span(Class("muted"), Text(fmt.Sprintf("Page %d of %d (%d entries)", page, totalPages, totalItems))),
		next,
	)
}
