// Package postgres implements the term store against a hosted PostgreSQL
// database. Filter, sort and pagination predicates are pushed into SQL so
// the database does the matching and returns an exact total count.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/store"
	"github.com/trendingvenues/termdict/pkg/circuitbreaker"
)

const (
	// readRetries is the number of extra attempts for paged reads. Mutations
	// are never retried: submission is at-most-once.
	readRetries = 2
	retryDelay  = 100 * time.Millisecond
)

const termColumns = `id, term, definition, category, code, code_system,
	created_by_email, created_by_username, created_at,
	updated_by_email, updated_by_username, updated_at`

// Store executes term queries and mutations against PostgreSQL.
type Store struct {
	pool    *pgxpool.Pool
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	tracer  trace.Tracer
}

// New creates a Postgres-backed term store. The breaker is optional; when
// present every remote call goes through it so a down database fails fast.
func New(pool *pgxpool.Pool, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool:    pool,
		breaker: breaker,
		logger:  logger,
		tracer:  otel.Tracer("term-store"),
	}
}

// guard runs fn through the circuit breaker when one is configured.
func (s *Store) guard(fn func() (interface{}, error)) (interface{}, error) {
	if s.breaker == nil {
		return fn()
	}
	return s.breaker.Execute(fn)
}

// sortColumn maps a sort field to its database column.
func sortColumn(f term.SortField) string {
	switch f {
	case term.SortByCategory:
		return "category"
	case term.SortByCodeSystem:
		return "code_system"
	default:
		return "term"
	}
}

// buildFilter assembles the WHERE clause and arguments for a query.
func buildFilter(q term.Query) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(term ILIKE $%d OR definition ILIKE $%d OR code ILIKE $%d)", n, n, n))
	}
	if q.Category != "" && q.Category != term.CategoryAll {
		args = append(args, q.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.CodeSystem != "" && q.CodeSystem != term.CodeSystemAll {
		args = append(args, q.CodeSystem)
		conds = append(conds, fmt.Sprintf("code_system = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListPage runs the paged read with a small transparent retry for transient
// failures. Ties within the sort column keep the database's default order.
func (s *Store) ListPage(ctx context.Context, q term.Query) (*term.Page, error) {
	ctx, span := s.tracer.Start(ctx, "terms_list_page",
		trace.WithAttributes(
			attribute.Int("page", q.Page),
			attribute.Int("page_size", q.PageSize),
		))
	defer span.End()

	var page *term.Page
	var err error
	for attempt := 0; attempt <= readRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
			s.logger.Warn("retrying paged read", zap.Int("attempt", attempt), zap.Error(err))
		}
		page, err = s.listPageOnce(ctx, q)
		if err == nil {
			return page, nil
		}
	}
	span.RecordError(err)
	return nil, err
}

func (s *Store) listPageOnce(ctx context.Context, q term.Query) (*term.Page, error) {
	result, err := s.guard(func() (interface{}, error) {
		where, args := buildFilter(q)

		var total int
		countQuery := "SELECT COUNT(*) FROM medical_terms" + where
		if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
			return nil, &store.Error{Op: "count", Err: err}
		}

		dir := "ASC"
		if q.SortDir == term.SortDesc {
			dir = "DESC"
		}
		pageQuery := fmt.Sprintf(
			"SELECT %s FROM medical_terms%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
			termColumns, where, sortColumn(q.SortField), dir, len(args)+1, len(args)+2,
		)
		args = append(args, q.PageSize, q.Offset())

		rows, err := s.pool.Query(ctx, pageQuery, args...)
		if err != nil {
			return nil, &store.Error{Op: "list", Err: err}
		}
		defer rows.Close()

		terms, err := scanTerms(rows)
		if err != nil {
			return nil, &store.Error{Op: "list", Err: err}
		}
		return term.NewPage(terms, total, q), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*term.Page), nil
}

// ListAll returns the whole dictionary sorted by name.
func (s *Store) ListAll(ctx context.Context) ([]term.Term, error) {
	ctx, span := s.tracer.Start(ctx, "terms_list_all")
	defer span.End()

	result, err := s.guard(func() (interface{}, error) {
		rows, err := s.pool.Query(ctx,
			"SELECT "+termColumns+" FROM medical_terms ORDER BY term ASC")
		if err != nil {
			return nil, &store.Error{Op: "list_all", Err: err}
		}
		defer rows.Close()
		return scanTerms(rows)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]term.Term), nil
}

// GetByID fetches a single term.
func (s *Store) GetByID(ctx context.Context, id string) (*term.Term, error) {
	ctx, span := s.tracer.Start(ctx, "terms_get", trace.WithAttributes(attribute.String("term_id", id)))
	defer span.End()

	result, err := s.guard(func() (interface{}, error) {
		row := s.pool.QueryRow(ctx,
			"SELECT "+termColumns+" FROM medical_terms WHERE id = $1", id)
		t, err := scanTerm(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, &store.Error{Op: "get", Err: err}
		}
		return t, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.(*term.Term), nil
}

// Create inserts a term and returns the created row. Only the creation audit
// stamp is written.
func (s *Store) Create(ctx context.Context, d term.Draft, audit *term.AuditStamp) (*term.Term, error) {
	ctx, span := s.tracer.Start(ctx, "terms_create")
	defer span.End()

	result, err := s.guard(func() (interface{}, error) {
		query := `
			INSERT INTO medical_terms
			(term, definition, category, code, code_system, created_by_email, created_by_username, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING ` + termColumns

		var email, username *string
		var createdAt *time.Time
		if audit != nil {
			email = &audit.Email
			if audit.Username != "" {
				username = &audit.Username
			}
			ts := audit.Timestamp
			createdAt = &ts
		}

		row := s.pool.QueryRow(ctx, query,
			d.Term, d.Definition, d.Category,
			nullable(d.Code), nullable(string(d.CodeSystem)),
			email, username, createdAt,
		)
		t, err := scanTerm(row)
		if err != nil {
			return nil, &store.Error{Op: "create", Err: err}
		}
		return t, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.(*term.Term), nil
}

// Update applies a partial update by id, setting only the modification audit
// stamp and leaving creation audit untouched.
func (s *Store) Update(ctx context.Context, id string, p term.Patch, audit *term.AuditStamp) (*term.Term, error) {
	ctx, span := s.tracer.Start(ctx, "terms_update", trace.WithAttributes(attribute.String("term_id", id)))
	defer span.End()

	result, err := s.guard(func() (interface{}, error) {
		var sets []string
		var args []interface{}

		add := func(col string, v interface{}) {
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}

		if p.Term != nil {
			add("term", *p.Term)
		}
		if p.Definition != nil {
			add("definition", *p.Definition)
		}
		if p.Category != nil {
			add("category", *p.Category)
		}
		if p.Code != nil {
			add("code", nullable(*p.Code))
		}
		if p.CodeSystem != nil {
			add("code_system", nullable(string(*p.CodeSystem)))
		}
		if audit != nil {
			add("updated_by_email", audit.Email)
			add("updated_by_username", nullable(audit.Username))
			add("updated_at", audit.Timestamp)
		}
		if len(sets) == 0 {
			return s.getForUpdate(ctx, id)
		}

		args = append(args, id)
		query := fmt.Sprintf(
			"UPDATE medical_terms SET %s WHERE id = $%d RETURNING %s",
			strings.Join(sets, ", "), len(args), termColumns,
		)

		t, err := scanTerm(s.pool.QueryRow(ctx, query, args...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, &store.Error{Op: "update", Err: err}
		}
		return t, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.(*term.Term), nil
}

func (s *Store) getForUpdate(ctx context.Context, id string) (*term.Term, error) {
	t, err := scanTerm(s.pool.QueryRow(ctx,
		"SELECT "+termColumns+" FROM medical_terms WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, &store.Error{Op: "update", Err: err}
	}
	return t, nil
}

// Delete removes a term by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "terms_delete", trace.WithAttributes(attribute.String("term_id", id)))
	defer span.End()

	_, err := s.guard(func() (interface{}, error) {
		tag, err := s.pool.Exec(ctx, "DELETE FROM medical_terms WHERE id = $1", id)
		if err != nil {
			return nil, &store.Error{Op: "delete", Err: err}
		}
		if tag.RowsAffected() == 0 {
			return nil, store.ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// nullable maps empty strings to NULL for the optional columns.
func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTerm(row rowScanner) (*term.Term, error) {
	var (
		t                         term.Term
		code, codeSystem          *string
		createdEmail, createdUser *string
		updatedEmail, updatedUser *string
		createdAt, updatedAt      *time.Time
	)
	err := row.Scan(
		&t.ID, &t.Term, &t.Definition, &t.Category, &code, &codeSystem,
		&createdEmail, &createdUser, &createdAt,
		&updatedEmail, &updatedUser, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if code != nil {
		t.Code = *code
	}
	if codeSystem != nil {
		t.CodeSystem = term.CodeSystem(*codeSystem)
	}
	if createdEmail != nil && createdAt != nil {
		t.CreatedBy = &term.AuditStamp{Email: *createdEmail, Timestamp: *createdAt}
		if createdUser != nil {
			t.CreatedBy.Username = *createdUser
		}
	}
	if updatedEmail != nil && updatedAt != nil {
		t.UpdatedBy = &term.AuditStamp{Email: *updatedEmail, Timestamp: *updatedAt}
		if updatedUser != nil {
			t.UpdatedBy.Username = *updatedUser
		}
	}
	return &t, nil
}

func scanTerms(rows pgx.Rows) ([]term.Term, error) {
	terms := []term.Term{}
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		terms = append(terms, *t)
	}
	return terms, rows.Err()
}
