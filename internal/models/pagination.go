package models

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams selects a 1-based page of a listing.
type PageParams struct {
	Page     int
	PageSize int
}

// Normalize clamps the params to valid bounds.
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PageParams) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Page is a slice of results plus navigation metadata.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Next     *int  `json:"next"`
	Previous *int  `json:"previous"`
	Results  []T   `json:"results"`
}

// NewPage builds page metadata. Asking for a page past the end of a
// non-empty result set is reported as not found.
func NewPage[T any](results []T, total int64, params PageParams) (*Page[T], error) {
	p := params.Normalize()
	if results == nil {
		results = []T{}
	}
	if p.Page > 1 && int64(p.Offset()) >= total {
		return nil, NewNotFoundMessage(CodeNotFound, "Invalid page.")
	}

	page := &Page[T]{Count: total, Results: results}
	if int64(p.Page*p.PageSize) < total {
		next := p.Page + 1
		page.Next = &next
	}
	if p.Page > 1 {
		prev := p.Page - 1
		page.Previous = &prev
	}
	return page, nil
}

// ListQuery carries the filter and paging options shared by relationship listings.
type ListQuery struct {
	Search string
	Page   PageParams
}
