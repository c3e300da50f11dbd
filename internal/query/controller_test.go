package query_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/query"
)

// recorder collects committed queries in order.
type recorder struct {
	mu      sync.Mutex
	queries []term.Query
}

func (r *recorder) record(q term.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
}

func (r *recorder) all() []term.Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]term.Query, len(r.queries))
	copy(out, r.queries)
	return out
}

func TestSearchDebounceCoalescesKeystrokes(t *testing.T) {
	rec := &recorder{}
	c := query.NewController(20*time.Millisecond, rec.record)
	defer c.Close()

	for _, text := range []string{"h", "hy", "hyp", "hyper"} {
		c.SetSearchText(text)
		time.Sleep(2 * time.Millisecond)
	}

	// raw text echoes back immediately, before any commit
	require.Equal(t, "hyper", c.RawSearch())
	require.Empty(t, c.Query().Search)

	require.Eventually(t, func() bool {
		return len(rec.all()) == 1
	}, time.Second, 5*time.Millisecond)

	got := rec.all()
	require.Equal(t, "hyper", got[0].Search)
	require.Equal(t, 1, got[0].Page)
}

func TestSearchCommitSkippedWhenValueUnchanged(t *testing.T) {
	rec := &recorder{}
	c := query.NewController(10*time.Millisecond, rec.record)
	defer c.Close()

	c.SetSearchText("edema")
	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)

	// typing back to the committed value commits nothing new
	c.SetSearchText("edem")
	c.SetSearchText("edema")
	time.Sleep(50 * time.Millisecond)
	require.Len(t, rec.all(), 1)
}

func TestFilterChangesResetPage(t *testing.T) {
	rec := &recorder{}
	c := query.NewController(time.Millisecond, rec.record)
	defer c.Close()

	c.SetPage(4)
	require.Equal(t, 4, c.Query().Page)

	c.SetCategoryFilter(string(term.CategoryDiagnosis))
	q := c.Query()
	require.Equal(t, string(term.CategoryDiagnosis), q.Category)
	require.Equal(t, 1, q.Page)

	c.SetPage(3)
	c.SetCodeSystemFilter(string(term.CodeSystemICD10))
	require.Equal(t, 1, c.Query().Page)

	c.SetPage(2)
	c.SetPageSize(25)
	q = c.Query()
	require.Equal(t, 25, q.PageSize)
	require.Equal(t, 1, q.Page)
}

func TestToggleSortFlipsAndSwitches(t *testing.T) {
	c := query.NewController(time.Millisecond, nil)
	defer c.Close()

	// same field flips direction
	c.ToggleSort(term.SortByTerm)
	q := c.Query()
	require.Equal(t, term.SortByTerm, q.SortField)
	require.Equal(t, term.SortDesc, q.SortDir)

	c.ToggleSort(term.SortByTerm)
	require.Equal(t, term.SortAsc, c.Query().SortDir)

	// a new field starts ascending
	c.SetPage(5)
	c.ToggleSort(term.SortByCategory)
	q = c.Query()
	require.Equal(t, term.SortByCategory, q.SortField)
	require.Equal(t, term.SortAsc, q.SortDir)
	require.Equal(t, 1, q.Page)
}

func TestSetSortIgnoresUnknownField(t *testing.T) {
	c := query.NewController(time.Millisecond, nil)
	defer c.Close()

	c.SetSort(term.SortField("bogus"), term.SortDesc)
	require.Equal(t, term.SortByTerm, c.Query().SortField)
}

func TestCloseDropsPendingCommit(t *testing.T) {
	rec := &recorder{}
	c := query.NewController(10*time.Millisecond, rec.record)

	c.SetSearchText("pending")
	c.Close()

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, rec.all())

	// intents after close are ignored
	c.SetPage(2)
	require.Equal(t, 1, c.Query().Page)
}
