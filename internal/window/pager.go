// Package window pages and filters diff results for presentation: a flat
// entry list per table, a generic pager, a table browser with search and
// differences-only filters, and a virtualized viewport over sheet rows.
package window

import "recdiff/internal/domain"

// Pager splits a slice into fixed-size pages. The current page is always
// clamped into [1, TotalPages]; an empty pager stays on page 1 with no
// items.
type Pager[T any] struct {
	items []T
	size  int
	page  int
}

// NewPager creates a pager on page 1. A non-positive size uses
// domain.DefaultPageSize; sizes above domain.MaxPageSize are capped.
func NewPager[T any](items []T, size int) *Pager[T] {
	return &Pager[T]{
		items: items,
		size:  domain.PageRequest{Size: size}.Limit(),
		page:  1,
	}
}

// SetItems replaces the items and keeps the current page in range.
func (p *Pager[T]) SetItems(items []T) {
	p.items = items
	p.page = domain.ClampPage(p.page, p.TotalPages())
}

// Len returns the number of items across all pages.
func (p *Pager[T]) Len() int { return len(p.items) }

// Size returns the page size.
func (p *Pager[T]) Size() int { return p.size }

// TotalPages is recomputed from the current number of items.
func (p *Pager[T]) TotalPages() int { return domain.TotalPages(len(p.items), p.size) }

// Current returns the 1-based current page.
func (p *Pager[T]) Current() int { return p.page }

// Goto moves to page n, clamped, and returns the page actually selected.
func (p *Pager[T]) Goto(n int) int {
	p.page = domain.ClampPage(n, p.TotalPages())
	return p.page
}

// Reset moves back to page 1.
func (p *Pager[T]) Reset() { p.page = 1 }

// Next advances one page. It reports false on the last page.
func (p *Pager[T]) Next() bool {
	if p.page >= p.TotalPages() {
		return false
	}
	p.page++
	return true
}

// Prev goes back one page. It reports false on the first page.
func (p *Pager[T]) Prev() bool {
	if p.page <= 1 {
		return false
	}
	p.page--
	return true
}

// Items returns the items of the current page.
func (p *Pager[T]) Items() []T {
	start, end := domain.PageBounds(p.page, p.size, len(p.items))
	return p.items[start:end]
}

// Page moves to page n (clamped) and returns its items.
func (p *Pager[T]) Page(n int) []T {
	p.Goto(n)
	return p.Items()
}
