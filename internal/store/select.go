package store

import (
	"sort"
	"strings"

	"github.com/trendingvenues/termdict/internal/domain/term"
)

// Matches reports whether t satisfies the query's search text and filter
// predicates. Search is a case-insensitive substring match against name,
// definition and code; a hit on any of the three is a match.
func Matches(t term.Term, q term.Query) bool {
	if s := strings.TrimSpace(q.Search); s != "" {
		needle := strings.ToLower(s)
		if !strings.Contains(strings.ToLower(t.Term), needle) &&
			!strings.Contains(strings.ToLower(t.Definition), needle) &&
			!strings.Contains(strings.ToLower(t.Code), needle) {
			return false
		}
	}
	if q.Category != "" && q.Category != term.CategoryAll && string(t.Category) != q.Category {
		return false
	}
	if q.CodeSystem != "" && q.CodeSystem != term.CodeSystemAll && string(t.CodeSystem) != q.CodeSystem {
		return false
	}
	return true
}

func sortKey(t term.Term, f term.SortField) string {
	switch f {
	case term.SortByCategory:
		return string(t.Category)
	case term.SortByCodeSystem:
		return string(t.CodeSystem)
	default:
		return t.Term
	}
}

// Select applies the full query pipeline to an in-memory term slice:
// filter, sort, then offset/limit pagination. The sort is stable, so ties
// keep their input order. Used by the local and static stores; the Postgres
// store pushes the same predicates into SQL.
func Select(terms []term.Term, q term.Query) *term.Page {
	filtered := make([]term.Term, 0, len(terms))
	for _, t := range terms {
		if Matches(t, q) {
			filtered = append(filtered, t)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a := strings.ToLower(sortKey(filtered[i], q.SortField))
		b := strings.ToLower(sortKey(filtered[j], q.SortField))
		if q.SortDir == term.SortDesc {
			return a > b
		}
		return a < b
	})

	total := len(filtered)
	start := q.Offset()
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	pageTerms := make([]term.Term, end-start)
	copy(pageTerms, filtered[start:end])

	return term.NewPage(pageTerms, total, q)
}
