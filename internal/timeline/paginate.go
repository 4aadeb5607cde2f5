package timeline

import "math"

// PaginationMode says who computed the page: this service over a full list,
// or the backend.
type PaginationMode string

// Pagination modes.
const (
	PaginationClient PaginationMode = "client"
	PaginationServer PaginationMode = "server"
)

// DefaultPageSize is the page size used when none is given.
const DefaultPageSize = 25

// MaxPage is the largest page number accepted from callers.
const MaxPage = 1_000_000

// Offset returns page*pageSize. It reports false for negative pages,
// non-positive sizes and products that would overflow an int.
func Offset(page, pageSize int) (int, bool) {
	if page < 0 || pageSize <= 0 || page > math.MaxInt/pageSize {
		return 0, false
	}
	return page * pageSize, true
}

// Paginate returns items[page*pageSize : page*pageSize+pageSize], clipped to
// the list. Pages past the end, negative pages and non-positive sizes yield
// an empty slice.
func Paginate[T any](items []T, page, pageSize int) []T {
	start, ok := Offset(page, pageSize)
	if !ok || start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end:end]
}

// PageCount returns the number of pages needed for total items.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
