package window

import (
	"strings"

	"recdiff/internal/domain"
)

// TableItem is one entry of the browser's table list.
type TableItem struct {
	Name      string
	HasDiff   bool
	TotalDiff int
	Summary   domain.DiffSummary
}

// Browser navigates the per-table results of a run. The table list can be
// filtered by a case-insensitive name search and to tables with differences.
// Changing a filter or switching tables resets paging to page 1; when the
// active table is filtered out the first visible table becomes active.
type Browser struct {
	order    []string
	results  map[string]*domain.DiffResult
	search   string
	diffOnly bool
	active   string
	pager    *Pager[Entry]
}

// NewBrowser creates a browser over results in the given order. The first
// table is active.
func NewBrowser(results []*domain.DiffResult, pageSize int) *Browser {
	b := &Browser{
		results: make(map[string]*domain.DiffResult, len(results)),
		pager:   NewPager[Entry](nil, pageSize),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		if _, dup := b.results[r.Table]; !dup {
			b.order = append(b.order, r.Table)
		}
		b.results[r.Table] = r
	}
	if len(b.order) > 0 {
		b.activate(b.order[0])
	}
	return b
}

// Tables returns the visible tables in result order.
func (b *Browser) Tables() []TableItem {
	out := make([]TableItem, 0, len(b.order))
	for _, name := range b.order {
		if item, ok := b.visible(name); ok {
			out = append(out, item)
		}
	}
	return out
}

// Search returns the current name filter.
func (b *Browser) Search() string { return b.search }

// DiffOnly reports whether only tables with differences are listed.
func (b *Browser) DiffOnly() bool { return b.diffOnly }

// SetSearch filters tables by a case-insensitive substring of their name.
func (b *Browser) SetSearch(term string) {
	b.search = strings.TrimSpace(term)
	b.refilter()
}

// SetDiffOnly hides tables without differences when on.
func (b *Browser) SetDiffOnly(on bool) {
	b.diffOnly = on
	b.refilter()
}

// Select makes table active and resets paging. The table does not have to
// pass the current filters.
func (b *Browser) Select(table string) error {
	if _, ok := b.results[table]; !ok {
		return domain.ErrNotFound("table %q not found in report", table)
	}
	b.activate(table)
	return nil
}

// Active returns the name of the active table, or "" when there is none.
func (b *Browser) Active() string { return b.active }

// ActiveResult returns the result of the active table.
func (b *Browser) ActiveResult() *domain.DiffResult { return b.results[b.active] }

// Pager pages the flattened entries of the active table.
func (b *Browser) Pager() *Pager[Entry] { return b.pager }

func (b *Browser) activate(table string) {
	b.active = table
	b.pager.SetItems(Flatten(b.results[table]))
	b.pager.Reset()
}

func (b *Browser) refilter() {
	visible := b.Tables()
	if len(visible) == 0 {
		b.pager.Reset()
		return
	}
	for _, item := range visible {
		if item.Name == b.active {
			b.pager.Reset()
			return
		}
	}
	b.activate(visible[0].Name)
}

func (b *Browser) visible(name string) (TableItem, bool) {
	r := b.results[name]
	item := TableItem{
		Name:      name,
		HasDiff:   r.HasDiff(),
		TotalDiff: r.TotalDiff(),
		Summary:   r.Summary(),
	}
	if b.diffOnly && !item.HasDiff {
		return item, false
	}
	if b.search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(b.search)) {
		return item, false
	}
	return item, true
}
