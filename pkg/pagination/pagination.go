package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts page/limit parameters from the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Meta is the page metadata the API attaches to list responses.
type Meta struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalRecords int `json:"total_records"`
	Limit        int `json:"limit"`
}

// NewMeta computes page metadata for a total record count.
func NewMeta(total int, p Params) Meta {
	pages := total / p.Limit
	if total%p.Limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return Meta{
		CurrentPage:  p.Page,
		TotalPages:   pages,
		TotalRecords: total,
		Limit:        p.Limit,
	}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Page*p.Limit < total
}

// Offset returns the zero-based index of the first record on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Bounds clips the page window to a collection of n records, returning the
// start and end indexes of the slice to serve.
func (p Params) Bounds(n int) (int, int) {
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}
