package repository

const (
	DefaultPage     = 1
	DefaultPageSize = 20

	// back-office order lists are capped to keep Preload("Items") bounded
	maxPageSize = 100
)

// PageRequest is the raw paging input from the back-office list
// endpoints. Out-of-range values are clamped, not rejected.
type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) Clamp() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// Offset is the row offset for a clamped request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

func newPageResult[T any](items []T, total int64, req PageRequest) PageResult[T] {
	pages := 0
	if total > 0 {
		pages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}
	return PageResult[T]{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.PageSize,
		Total:      total,
		TotalPages: pages,
	}
}
