// Package integration exercises the full browsing pipeline end to end:
// controller, coordinator, store and auth gate together.
package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/auth"
	"github.com/trendingvenues/termdict/internal/dictionary"
	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/query"
	"github.com/trendingvenues/termdict/internal/store/local"
)

type fixedProvider struct {
	identity auth.Identity
}

func (p *fixedProvider) session() *auth.Session {
	return &auth.Session{Token: "tok", Identity: p.identity, ExpiresAt: time.Now().Add(time.Hour)}
}

func (p *fixedProvider) SignIn(context.Context, string, string) (*auth.Session, error) {
	return p.session(), nil
}

func (p *fixedProvider) SignUp(context.Context, string, string) (*auth.Session, error) {
	return p.session(), nil
}

func (p *fixedProvider) SignOut(context.Context, string) error { return nil }

func (p *fixedProvider) RequestPasswordReset(context.Context, string) error { return nil }

func (p *fixedProvider) UpdatePassword(context.Context, string, string) error { return nil }

func (p *fixedProvider) Verify(context.Context, string) (*auth.Identity, error) {
	id := p.identity
	return &id, nil
}

func TestBrowseEditRefreshCycle(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), local.DefaultFileName)
	st, err := local.Open(path, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	svc := auth.NewService(&fixedProvider{
		identity: auth.Identity{ID: "u1", Email: "jane@trendingvenues.com", Username: "jane"},
	}, "trendingvenues.com", nil)

	coord := query.NewCoordinator(st, nil, zap.NewNop())
	b := dictionary.NewBrowser(svc, coord, 5*time.Millisecond, zap.NewNop())
	defer b.Close()

	// sign in; the first page loads
	_, err = svc.SignIn(ctx, "jane@trendingvenues.com", "secret123")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return b.State().TotalCount == 20
	}, time.Second, 5*time.Millisecond)

	// narrow to symptoms; two header clicks land back on ascending
	b.SetCategoryFilter(string(term.CategorySymptom))
	b.ToggleSort(term.SortByTerm)
	b.ToggleSort(term.SortByTerm)
	require.Eventually(t, func() bool {
		v := b.State()
		return v.TotalCount == 3 && v.Query.SortDir == term.SortAsc
	}, time.Second, 5*time.Millisecond)

	// add a matching term; the listing reflects it after a refresh
	created, errs, err := b.AddTerm(ctx, term.Draft{
		Term:       "Syncope",
		Definition: "A transient loss of consciousness caused by reduced blood flow to the brain.",
		Category:   term.CategorySymptom,
		Code:       "271594007",
		CodeSystem: term.CodeSystemSNOMED,
	})
	require.NoError(t, err)
	require.Nil(t, errs)

	b.Refresh()
	require.Eventually(t, func() bool {
		return b.State().TotalCount == 4
	}, time.Second, 5*time.Millisecond)

	// edit it and confirm both audit stamps
	updated, errs, err := b.UpdateTerm(ctx, created.ID, term.Draft{
		Term:       "Syncope",
		Definition: "Fainting; a transient loss of consciousness from cerebral hypoperfusion.",
		Category:   term.CategorySymptom,
		Code:       "271594007",
		CodeSystem: term.CodeSystemSNOMED,
	})
	require.NoError(t, err)
	require.Nil(t, errs)
	require.Equal(t, "jane", updated.CreatedBy.Username)
	require.Equal(t, "jane", updated.UpdatedBy.Username)

	// delete and verify the filtered count drops
	require.NoError(t, b.DeleteTerm(ctx, created.ID))
	b.Refresh()
	require.Eventually(t, func() bool {
		return b.State().TotalCount == 3
	}, time.Second, 5*time.Millisecond)

	// the mutations survived on disk
	reopened, err := local.Open(path, zap.NewNop())
	require.NoError(t, err)
	terms, err := reopened.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, terms, 20)
	_, err = reopened.GetByID(ctx, created.ID)
	require.Error(t, err)
}
