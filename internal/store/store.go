// Package store defines the term repository contract: a paged
// filtered/sorted read plus row-level CRUD against a backing data store.
// Implementations translate between the domain Term shape and their own row
// representation and hold no query state of their own.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/trendingvenues/termdict/internal/domain/term"
)

// ErrNotConfigured is returned by every mutation when no backing store is
// available. Read paths fall back to the built-in seed dictionary instead.
var ErrNotConfigured = errors.New("store not configured")

// ErrNotFound is returned when a term id does not exist.
var ErrNotFound = errors.New("term not found")

// Store is the term repository. All operations return result-or-error pairs;
// expected failure modes (network, store rejection) never panic past this
// boundary.
type Store interface {
	// ListPage executes a paged filtered/sorted read. Search text matches
	// case-insensitively against term, definition and code. Category and
	// code-system filters are exact matches unless set to "All" or empty.
	ListPage(ctx context.Context, q term.Query) (*term.Page, error)

	// ListAll returns every term sorted by name ascending.
	ListAll(ctx context.Context) ([]term.Term, error)

	// GetByID returns a single term or ErrNotFound.
	GetByID(ctx context.Context, id string) (*term.Term, error)

	// Create inserts a new term and returns it with its assigned id. The
	// audit stamp, when present, becomes the creation stamp.
	Create(ctx context.Context, d term.Draft, audit *term.AuditStamp) (*term.Term, error)

	// Update applies a partial update by id and returns the updated term.
	// The audit stamp becomes the modification stamp; the creation stamp is
	// never touched.
	Update(ctx context.Context, id string, p term.Patch, audit *term.AuditStamp) (*term.Term, error)

	// Delete removes a term by id. Deletion is final.
	Delete(ctx context.Context, id string) error

	// Close releases any held connections.
	Close()
}

// Error wraps a store-level failure with the backend's message so callers
// can surface it verbatim.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
