package domain

// DefaultPageSize is the page size when none is specified.
const DefaultPageSize = 50

// MaxPageSize is the maximum allowed page size.
const MaxPageSize = 1000

// PageRequest holds 1-based pagination parameters.
type PageRequest struct {
	Page int
	Size int
}

// Limit returns the effective page size, clamped to [1, MaxPageSize].
func (p PageRequest) Limit() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	if p.Size > MaxPageSize {
		return MaxPageSize
	}
	return p.Size
}

// TotalPages returns ceil(total/size). It is 0 for an empty list.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ClampPage clamps page into [1, totalPages]. With no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageBounds returns the half-open index range [(page-1)*size, page*size)
// of a page, cut to total. The page must already be clamped.
func PageBounds(page, size, total int) (start, end int) {
	start = (page - 1) * size
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end
}
