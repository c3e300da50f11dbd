package store

import (
	"context"

	"github.com/trendingvenues/termdict/internal/domain/term"
)

// Static serves reads from a fixed term set and rejects every mutation with
// ErrNotConfigured. It is the fallback when no store credentials are
// present: browsing keeps working against the built-in dictionary while
// editing is disabled.
type Static struct {
	terms []term.Term
}

// NewStatic creates a read-only store over the given terms.
func NewStatic(terms []term.Term) *Static {
	copied := make([]term.Term, len(terms))
	copy(copied, terms)
	return &Static{terms: copied}
}

// NewSeedFallback creates a read-only store over the built-in dictionary.
func NewSeedFallback() *Static {
	return NewStatic(term.SeedTerms())
}

func (s *Static) ListPage(_ context.Context, q term.Query) (*term.Page, error) {
	return Select(s.terms, q), nil
}

func (s *Static) ListAll(_ context.Context) ([]term.Term, error) {
	q := term.DefaultQuery()
	q.PageSize = len(s.terms)
	if q.PageSize == 0 {
		return []term.Term{}, nil
	}
	return Select(s.terms, q).Terms, nil
}

func (s *Static) GetByID(_ context.Context, id string) (*term.Term, error) {
	for _, t := range s.terms {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Static) Create(context.Context, term.Draft, *term.AuditStamp) (*term.Term, error) {
	return nil, ErrNotConfigured
}

func (s *Static) Update(context.Context, string, term.Patch, *term.AuditStamp) (*term.Term, error) {
	return nil, ErrNotConfigured
}

func (s *Static) Delete(context.Context, string) error {
	return ErrNotConfigured
}

func (s *Static) Close() {}
