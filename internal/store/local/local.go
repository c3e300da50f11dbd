// Package local implements a file-backed term store for demo and offline
// use. The whole dictionary is kept as one serialized JSON collection under a
// single well-known path, read at open and rewritten on every successful
// mutation. Query semantics mirror the Postgres store.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/store"
)

// DefaultFileName is the well-known storage key for the serialized
// dictionary.
const DefaultFileName = "medical-dictionary-terms.json"

// Store is a mutable, file-persisted term store seeded with the built-in
// dictionary when the file does not exist yet.
type Store struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	terms []term.Term
}

// Open loads the dictionary from path, seeding it with the built-in term set
// when the file is absent.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{path: path, logger: logger}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.terms); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case os.IsNotExist(err):
		s.terms = term.SeedTerms()
		if err := s.persist(); err != nil {
			return nil, err
		}
		logger.Info("seeded local dictionary", zap.String("path", path), zap.Int("terms", len(s.terms)))
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return s, nil
}

// persist writes the full collection back to disk. Callers hold the lock.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.terms, "", "  ")
	if err != nil {
		return fmt.Errorf("encode terms: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) ListPage(_ context.Context, q term.Query) (*term.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Select(s.terms, q), nil
}

func (s *Store) ListAll(_ context.Context) ([]term.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := term.DefaultQuery()
	q.PageSize = len(s.terms)
	if q.PageSize == 0 {
		return []term.Term{}, nil
	}
	return store.Select(s.terms, q).Terms, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*term.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.terms {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Create(_ context.Context, d term.Draft, audit *term.AuditStamp) (*term.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := term.Term{
		ID:         uuid.New().String(),
		Term:       d.Term,
		Definition: d.Definition,
		Category:   d.Category,
		Code:       d.Code,
		CodeSystem: d.CodeSystem,
		CreatedBy:  audit,
	}
	s.terms = append(s.terms, t)

	if err := s.persist(); err != nil {
		s.terms = s.terms[:len(s.terms)-1]
		return nil, &store.Error{Op: "create", Err: err}
	}
	return &t, nil
}

func (s *Store) Update(_ context.Context, id string, p term.Patch, audit *term.AuditStamp) (*term.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.terms {
		if s.terms[i].ID != id {
			continue
		}
		prev := s.terms[i]
		p.Apply(&s.terms[i])
		if audit != nil {
			s.terms[i].UpdatedBy = audit
		}
		if err := s.persist(); err != nil {
			s.terms[i] = prev
			return nil, &store.Error{Op: "update", Err: err}
		}
		updated := s.terms[i]
		return &updated, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.terms {
		if s.terms[i].ID != id {
			continue
		}
		removed := s.terms[i]
		s.terms = append(s.terms[:i], s.terms[i+1:]...)
		if err := s.persist(); err != nil {
			s.terms = append(s.terms[:i], append([]term.Term{removed}, s.terms[i:]...)...)
			return &store.Error{Op: "delete", Err: err}
		}
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) Close() {}
