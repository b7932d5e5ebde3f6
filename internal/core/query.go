package core

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// ListQuery is the immutable query object for paged, searchable listings.
// Handlers build one per request and pass it down; there is no shared
// filter state between requests.
type ListQuery struct {
	TaxYearStart int // tax year the listing is scoped to (start year)
	Search       string
	PageSize     int
	Page         int // 1-based
}

// Normalized returns a copy with page and page-size defaults applied.
func (q ListQuery) Normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}

// Offset returns the SQL offset for the normalized page.
func (q ListQuery) Offset() int {
	n := q.Normalized()
	return (n.Page - 1) * n.PageSize
}
