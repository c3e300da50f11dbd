// Package handlers provides HTTP handlers for the dictionary API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/api/middleware"
	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/query"
	"github.com/trendingvenues/termdict/internal/store"
)

// TermHandler handles the term listing and mutation endpoints.
type TermHandler struct {
	coord  *query.Coordinator
	store  store.Store
	logger *zap.Logger
}

// NewTermHandler creates a new handler. Paged reads and mutations go through
// the coordinator so the query cache stays coherent; single-term reads hit
// the store directly.
func NewTermHandler(coord *query.Coordinator, st store.Store, logger *zap.Logger) *TermHandler {
	return &TermHandler{
		coord:  coord,
		store:  st,
		logger: logger,
	}
}

// Routes returns the handler routes
func (h *TermHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// parseQuery reads the listing parameters from the URL, falling back to the
// default browse state for anything absent.
func parseQuery(r *http.Request) (term.Query, error) {
	q := term.DefaultQuery()
	vals := r.URL.Query()

	q.Search = vals.Get("search")
	if v := vals.Get("category"); v != "" {
		q.Category = v
	}
	if v := vals.Get("codeSystem"); v != "" {
		q.CodeSystem = v
	}
	if v := vals.Get("sortField"); v != "" {
		f := term.SortField(v)
		if !f.Valid() {
			return q, errors.New("unknown sortField: " + v)
		}
		q.SortField = f
	}
	if v := vals.Get("sortDirection"); v != "" {
		switch term.SortDirection(v) {
		case term.SortAsc, term.SortDesc:
			q.SortDir = term.SortDirection(v)
		default:
			return q, errors.New("sortDirection must be asc or desc")
		}
	}
	if v := vals.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("page must be a positive integer")
		}
		q.Page = n
	}
	if v := vals.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, errors.New("pageSize must be an integer")
		}
		ok := false
		for _, allowed := range term.PageSizes {
			if n == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return q, errors.New("pageSize must be one of 10, 25, 50")
		}
		q.PageSize = n
	}
	return q, nil
}

// List handles GET /terms
func (h *TermHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("term-handler")
	ctx, span := tracer.Start(ctx, "list_terms")
	defer span.End()

	q, err := parseQuery(r)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.Int("page", q.Page),
		attribute.Int("page_size", q.PageSize),
	)

	page, err := h.coord.Fetch(ctx, q)
	if err != nil {
		h.logger.Error("list terms failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(ctx)),
		)
		h.storeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

// Get handles GET /terms/{id}
func (h *TermHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	t, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.storeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, t)
}

// Create handles POST /terms
func (h *TermHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft term.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	draft = term.NormalizeDraft(draft)
	if errs := term.ValidateDraft(draft); len(errs) > 0 {
		h.validationError(w, errs)
		return
	}

	audit := h.auditStamp(ctx)
	created, err := h.coord.Create(ctx, draft, audit)
	if err != nil {
		h.logger.Error("create term failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(ctx)),
		)
		h.storeError(w, err)
		return
	}

	h.logger.Info("term created",
		zap.String("id", created.ID),
		zap.String("term", created.Term),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	h.writeJSON(w, http.StatusCreated, created)
}

// Update handles PATCH /terms/{id}
func (h *TermHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var draft term.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	draft = term.NormalizeDraft(draft)
	if errs := term.ValidateDraft(draft); len(errs) > 0 {
		h.validationError(w, errs)
		return
	}

	audit := h.auditStamp(ctx)
	updated, err := h.coord.Update(ctx, id, term.PatchFromDraft(draft), audit)
	if err != nil {
		h.storeError(w, err)
		return
	}

	h.logger.Info("term updated",
		zap.String("id", updated.ID),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	h.writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /terms/{id}
func (h *TermHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	actor := ""
	if ident := middleware.GetIdentity(ctx); ident != nil {
		actor = ident.Email
	}

	if err := h.coord.Delete(ctx, id, actor); err != nil {
		h.storeError(w, err)
		return
	}

	h.logger.Info("term deleted",
		zap.String("id", id),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	w.WriteHeader(http.StatusNoContent)
}

func (h *TermHandler) auditStamp(ctx context.Context) *term.AuditStamp {
	ident := middleware.GetIdentity(ctx)
	if ident == nil {
		return nil
	}
	return term.NewAuditStamp(ident.Email, ident.Username)
}

// storeError maps store failures onto HTTP statuses.
func (h *TermHandler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.jsonError(w, "term not found", http.StatusNotFound)
	case errors.Is(err, store.ErrNotConfigured):
		h.jsonError(w, "store not configured", http.StatusServiceUnavailable)
	default:
		h.jsonError(w, "storage error", http.StatusInternalServerError)
	}
}

func (h *TermHandler) validationError(w http.ResponseWriter, errs term.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  "validation failed",
		"fields": errs,
	})
}

func (h *TermHandler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *TermHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
