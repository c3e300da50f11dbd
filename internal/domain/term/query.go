package term

// SortField selects the column a paged read is ordered by.
type SortField string

const (
	SortByTerm       SortField = "term"
	SortByCategory   SortField = "category"
	SortByCodeSystem SortField = "codeSystem"
)

// Valid reports whether f is a sortable field.
func (f SortField) Valid() bool {
	switch f {
	case SortByTerm, SortByCategory, SortByCodeSystem:
		return true
	}
	return false
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PageSizes is the fixed option set for the page-size selector.
var PageSizes = []int{10, 25, 50}

// DefaultPageSize is the initial page size.
const DefaultPageSize = 10

// Query is the full tuple of user-driven query parameters. It is a
// comparable value type: two equal tuples address the same cache entry.
// Category and CodeSystem hold enum values or the "All" sentinel.
// Page is 1-based.
type Query struct {
	Search     string
	Category   string
	CodeSystem string
	SortField  SortField
	SortDir    SortDirection
	Page       int
	PageSize   int
}

// DefaultQuery returns the initial browse state: no filters, sorted by term
// ascending, first page.
func DefaultQuery() Query {
	return Query{
		Category:   CategoryAll,
		CodeSystem: CodeSystemAll,
		SortField:  SortByTerm,
		SortDir:    SortAsc,
		Page:       1,
		PageSize:   DefaultPageSize,
	}
}

// Offset returns the row offset for the requested page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Page is one page of matching terms together with the exact total count.
// Invariants: len(Terms) <= PageSize; TotalPages = ceil(TotalCount/PageSize);
// an empty match set yields an empty Terms slice.
type Page struct {
	Terms      []Term `json:"data"`
	TotalCount int    `json:"totalCount"`
	PageNum    int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}

// NewPage assembles a result page, computing the total page count.
func NewPage(terms []Term, total int, q Query) *Page {
	if terms == nil {
		terms = []Term{}
	}
	totalPages := 0
	if q.PageSize > 0 {
		totalPages = (total + q.PageSize - 1) / q.PageSize
	}
	return &Page{
		Terms:      terms,
		TotalCount: total,
		PageNum:    q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}
}
