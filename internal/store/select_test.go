package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/store"
)

func sampleTerms() []term.Term {
	return []term.Term{
		{ID: "1", Term: "Hypertension", Definition: "Elevated blood pressure", Category: term.CategoryDiagnosis, Code: "I10", CodeSystem: term.CodeSystemICD10},
		{ID: "2", Term: "Appendectomy", Definition: "Removal of the appendix", Category: term.CategoryProcedure, Code: "44950", CodeSystem: term.CodeSystemCPT},
		{ID: "3", Term: "Hemoglobin A1c", Definition: "Average blood sugar over months", Category: term.CategoryLaboratory, Code: "4548-4", CodeSystem: term.CodeSystemLOINC},
		{ID: "4", Term: "Metformin", Definition: "First-line diabetes medication", Category: term.CategoryMedication, Code: "6809", CodeSystem: term.CodeSystemRxNorm},
		{ID: "5", Term: "Dyspnea", Definition: "Shortness of breath", Category: term.CategorySymptom, Code: "267036007", CodeSystem: term.CodeSystemSNOMED},
	}
}

func TestMatchesSearchAcrossFields(t *testing.T) {
	q := term.DefaultQuery()

	// term name, case-insensitive
	q.Search = "hyperTENSION"
	require.True(t, store.Matches(sampleTerms()[0], q))

	// definition
	q.Search = "appendix"
	require.True(t, store.Matches(sampleTerms()[1], q))

	// code
	q.Search = "4548"
	require.True(t, store.Matches(sampleTerms()[2], q))

	q.Search = "no such thing"
	for _, entry := range sampleTerms() {
		require.False(t, store.Matches(entry, q))
	}
}

func TestMatchesFilters(t *testing.T) {
	q := term.DefaultQuery()
	q.Category = string(term.CategoryDiagnosis)
	require.True(t, store.Matches(sampleTerms()[0], q))
	require.False(t, store.Matches(sampleTerms()[1], q))

	// the All sentinel disables the filter
	q.Category = term.CategoryAll
	require.True(t, store.Matches(sampleTerms()[1], q))

	q.CodeSystem = string(term.CodeSystemLOINC)
	require.True(t, store.Matches(sampleTerms()[2], q))
	require.False(t, store.Matches(sampleTerms()[0], q))
}

func TestMatchesCombinesSearchAndFilter(t *testing.T) {
	q := term.DefaultQuery()
	q.Search = "blood"
	q.Category = string(term.CategoryLaboratory)

	// "blood" appears in both entries but only one is Laboratory
	require.False(t, store.Matches(sampleTerms()[0], q))
	require.True(t, store.Matches(sampleTerms()[2], q))
}

func TestSelectSortsCaseInsensitively(t *testing.T) {
	terms := []term.Term{
		{ID: "1", Term: "zoster"},
		{ID: "2", Term: "Anemia"},
		{ID: "3", Term: "edema"},
	}
	q := term.DefaultQuery()

	page := store.Select(terms, q)
	require.Equal(t, []string{"Anemia", "edema", "zoster"}, names(page.Terms))

	q.SortDir = term.SortDesc
	page = store.Select(terms, q)
	require.Equal(t, []string{"zoster", "edema", "Anemia"}, names(page.Terms))
}

func TestSelectSortByCodeSystem(t *testing.T) {
	q := term.DefaultQuery()
	q.SortField = term.SortByCodeSystem

	page := store.Select(sampleTerms(), q)
	require.Equal(t, term.CodeSystemCPT, page.Terms[0].CodeSystem)
	require.Equal(t, term.CodeSystemSNOMED, page.Terms[len(page.Terms)-1].CodeSystem)
}

func TestSelectPagination(t *testing.T) {
	terms := term.SeedTerms()
	q := term.DefaultQuery()
	q.PageSize = 10

	first := store.Select(terms, q)
	require.Len(t, first.Terms, 10)
	require.Equal(t, 20, first.TotalCount)
	require.Equal(t, 2, first.TotalPages)
	require.Equal(t, 1, first.PageNum)

	q.Page = 2
	second := store.Select(terms, q)
	require.Len(t, second.Terms, 10)
	require.NotEqual(t, first.Terms[0].ID, second.Terms[0].ID)

	// a page past the end is empty but keeps the true total
	q.Page = 5
	past := store.Select(terms, q)
	require.Empty(t, past.Terms)
	require.Equal(t, 20, past.TotalCount)
	require.Equal(t, 2, past.TotalPages)
}

func TestSelectToleratesPageBelowOne(t *testing.T) {
	terms := term.SeedTerms()
	q := term.DefaultQuery()
	q.PageSize = 10

	q.Page = 1
	first := store.Select(terms, q)

	// a page before the start serves the first page instead of panicking
	for _, page := range []int{0, -3} {
		q.Page = page
		got := store.Select(terms, q)
		require.Equal(t, first.Terms, got.Terms)
		require.Equal(t, 20, got.TotalCount)
	}
}

func TestSelectEmptyMatchSet(t *testing.T) {
	q := term.DefaultQuery()
	q.Search = "xyzzy"

	page := store.Select(term.SeedTerms(), q)
	require.NotNil(t, page.Terms)
	require.Empty(t, page.Terms)
	require.Equal(t, 0, page.TotalCount)
	require.Equal(t, 0, page.TotalPages)
}

func names(terms []term.Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Term
	}
	return out
}
