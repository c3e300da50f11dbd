package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/api/handlers"
	"github.com/trendingvenues/termdict/internal/api/middleware"
	"github.com/trendingvenues/termdict/internal/auth"
	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/query"
	"github.com/trendingvenues/termdict/internal/store/local"
)

// tokenProvider accepts exactly one bearer token and records revocations.
type tokenProvider struct {
	token    string
	identity auth.Identity

	mu      sync.Mutex
	revoked []string
}

func (p *tokenProvider) SignIn(context.Context, string, string) (*auth.Session, error) {
	return &auth.Session{Token: p.token, Identity: p.identity, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *tokenProvider) SignUp(context.Context, string, string) (*auth.Session, error) {
	return &auth.Session{Token: p.token, Identity: p.identity, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *tokenProvider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, token)
	return nil
}

func (p *tokenProvider) revokedTokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.revoked...)
}

func (p *tokenProvider) RequestPasswordReset(context.Context, string) error { return nil }

func (p *tokenProvider) UpdatePassword(context.Context, string, string) error { return nil }

func (p *tokenProvider) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if token != p.token {
		return nil, errors.New("unknown token")
	}
	id := p.identity
	return &id, nil
}

const testToken = "valid-token"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := local.Open(filepath.Join(t.TempDir(), local.DefaultFileName), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(st.Close)

	svc := auth.NewService(&tokenProvider{
		token:    testToken,
		identity: auth.Identity{ID: "u1", Email: "jane@trendingvenues.com", Username: "jane"},
	}, "trendingvenues.com", nil)

	coord := query.NewCoordinator(st, nil, nil)
	handler := handlers.NewTermHandler(coord, st, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SessionAuth(svc))
		r.Mount("/terms", handler.Routes())
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestTermsRequireSession(t *testing.T) {
	srv := newServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/api/v1/terms", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodGet, "/api/v1/terms", "wrong-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListDefaults(t *testing.T) {
	srv := newServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/api/v1/terms", testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page term.Page
	decode(t, resp, &page)
	require.Equal(t, 20, page.TotalCount)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Terms, 10)
	require.Equal(t, 1, page.PageNum)
}

func TestListWithParameters(t *testing.T) {
	srv := newServer(t)

	resp := doRequest(t, srv, http.MethodGet,
		"/api/v1/terms?search=blood&category=Laboratory&sortField=term&sortDirection=desc&pageSize=25",
		testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page term.Page
	decode(t, resp, &page)
	require.NotEmpty(t, page.Terms)
	require.Equal(t, 25, page.PageSize)
	for _, entry := range page.Terms {
		require.Equal(t, term.CategoryLaboratory, entry.Category)
	}
}

func TestListRejectsBadParameters(t *testing.T) {
	srv := newServer(t)

	for _, path := range []string{
		"/api/v1/terms?page=0",
		"/api/v1/terms?page=abc",
		"/api/v1/terms?pageSize=13",
		"/api/v1/terms?sortField=definition",
		"/api/v1/terms?sortDirection=sideways",
	} {
		resp := doRequest(t, srv, http.MethodGet, path, testToken, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestCreateTerm(t *testing.T) {
	srv := newServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/api/v1/terms", testToken, term.Draft{
		Term:       "Bradycardia",
		Definition: "A resting heart rate below 60 beats per minute.",
		Category:   term.CategorySymptom,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created term.Term
	decode(t, resp, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Bradycardia", created.Term)
	require.NotNil(t, created.CreatedBy)
	require.Equal(t, "jane@trendingvenues.com", created.CreatedBy.Email)

	resp = doRequest(t, srv, http.MethodGet, "/api/v1/terms/"+created.ID, testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateValidation(t *testing.T) {
	srv := newServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/api/v1/terms", testToken, term.Draft{
		Code: "I10",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, resp, &body)
	require.Equal(t, "validation failed", body.Error)
	require.Equal(t, "Term is required", body.Fields["term"])
	require.Equal(t, "Code system is required when code is provided", body.Fields["codeSystem"])
}

func TestUpdateTerm(t *testing.T) {
	srv := newServer(t)

	resp := doRequest(t, srv, http.MethodPatch, "/api/v1/terms/1", testToken, term.Draft{
		Term:       "Hypertension",
		Definition: "Persistently elevated arterial blood pressure.",
		Category:   term.CategoryDiagnosis,
		Code:       "I10",
		CodeSystem: term.CodeSystemICD10,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated term.Term
	decode(t, resp, &updated)
	require.Equal(t, "Persistently elevated arterial blood pressure.", updated.Definition)
	require.NotNil(t, updated.UpdatedBy)
	require.Equal(t, "jane", updated.UpdatedBy.Username)
}

func TestUpdateUnknownTerm(t *testing.T) {
	srv := newServer(t)

	resp := doRequest(t, srv, http.MethodPatch, "/api/v1/terms/no-such-id", testToken, term.Draft{
		Term:       "X",
		Definition: "Y",
		Category:   term.CategorySymptom,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteTerm(t *testing.T) {
	srv := newServer(t)

	resp := doRequest(t, srv, http.MethodDelete, "/api/v1/terms/1", testToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodGet, "/api/v1/terms/1", testToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodDelete, "/api/v1/terms/1", testToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
