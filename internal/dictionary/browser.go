// Package dictionary wires the query controller, the query cache and the
// auth gate into one browsing session: user intents go in, a consistent view
// of the current page comes out. This is the programmatic surface a
// rendering layer sits on top of.
package dictionary

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/auth"
	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/query"
)

// View is a snapshot of everything a rendering layer needs: the visible
// page (possibly stale while a fetch is outstanding), the committed query
// parameters, the raw search echo, and the activity flags.
type View struct {
	Terms      []term.Term
	TotalCount int
	TotalPages int
	Page       int
	PageSize   int
	Query      term.Query
	RawSearch  string
	Loading    bool
	Mutating   bool
	Err        string
}

// Browser is an authenticated dictionary session. Every intent is refused
// until the gate reports an identity, and signing out tears down the cached
// view so late fetch responses cannot resurface it.
type Browser struct {
	gate   *auth.Gate
	ctrl   *query.Controller
	coord  *query.Coordinator
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	lastErr error
}

// NewBrowser creates a session over the given auth service and coordinator.
// A zero debounce selects the default search window.
func NewBrowser(svc *auth.Service, coord *query.Coordinator, debounce time.Duration, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Browser{
		coord:  coord,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	b.ctrl = query.NewController(debounce, b.onQueryChange)
	b.gate = auth.NewGate(svc, b.onAuthChange)
	return b
}

// Gate exposes the auth gate, for rendering the checking/login surfaces.
func (b *Browser) Gate() *auth.Gate { return b.gate }

func (b *Browser) onQueryChange(q term.Query) {
	if !b.gate.Authenticated() {
		return
	}
	go b.fetch(q)
}

func (b *Browser) onAuthChange(state auth.GateState, _ *auth.Identity) {
	switch state {
	case auth.GateAuthenticated:
		go b.fetch(b.ctrl.Query())
	default:
		// Sign-out or failed resume: drop the cache and detach in-flight
		// fetches so nothing authenticated leaks into this view.
		b.coord.Reset()
	}
}

func (b *Browser) fetch(q term.Query) {
	_, err := b.coord.Fetch(b.ctx, q)
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
	if err != nil {
		b.logger.Warn("fetch failed", zap.Error(err))
	}
}

// Refresh re-issues the current query, bypassing nothing: a fresh cache
// entry is still served from cache.
func (b *Browser) Refresh() {
	if !b.gate.Authenticated() {
		return
	}
	go b.fetch(b.ctrl.Query())
}

// SetSearchText forwards a keystroke. The committed query follows after the
// debounce window.
func (b *Browser) SetSearchText(text string) {
	if !b.gate.Authenticated() {
		return
	}
	b.ctrl.SetSearchText(text)
}

// SetCategoryFilter applies a category filter.
func (b *Browser) SetCategoryFilter(value string) {
	if !b.gate.Authenticated() {
		return
	}
	b.ctrl.SetCategoryFilter(value)
}

// SetCodeSystemFilter applies a code-system filter.
func (b *Browser) SetCodeSystemFilter(value string) {
	if !b.gate.Authenticated() {
		return
	}
	b.ctrl.SetCodeSystemFilter(value)
}

// ToggleSort handles a sort-header click.
func (b *Browser) ToggleSort(field term.SortField) {
	if !b.gate.Authenticated() {
		return
	}
	b.ctrl.ToggleSort(field)
}

// SetPage navigates to a page, refusing out-of-range targets the way a
// disabled pager button would.
func (b *Browser) SetPage(n int) {
	if !b.gate.Authenticated() || n < 1 {
		return
	}
	if _, page, ok := b.coord.Visible(); ok && n > page.TotalPages {
		return
	}
	b.ctrl.SetPage(n)
}

// SetPageSize switches the page size, returning to page 1.
func (b *Browser) SetPageSize(n int) {
	if !b.gate.Authenticated() {
		return
	}
	valid := false
	for _, s := range term.PageSizes {
		if s == n {
			valid = true
			break
		}
	}
	if !valid {
		return
	}
	b.ctrl.SetPageSize(n)
}

func (b *Browser) audit() *term.AuditStamp {
	id := b.gate.Identity()
	if id == nil {
		return nil
	}
	return term.NewAuditStamp(id.Email, id.Username)
}

// AddTerm validates the entry form and creates the term. Validation
// failures are returned per-field and never reach the store.
func (b *Browser) AddTerm(ctx context.Context, d term.Draft) (*term.Term, term.ValidationErrors, error) {
	if !b.gate.Authenticated() {
		return nil, nil, auth.ErrNoSession
	}
	d = term.NormalizeDraft(d)
	if errs := term.ValidateDraft(d); errs != nil {
		return nil, errs, nil
	}
	created, err := b.coord.Create(ctx, d, b.audit())
	return created, nil, err
}

// UpdateTerm validates the entry form and applies a full-field update.
func (b *Browser) UpdateTerm(ctx context.Context, id string, d term.Draft) (*term.Term, term.ValidationErrors, error) {
	if !b.gate.Authenticated() {
		return nil, nil, auth.ErrNoSession
	}
	d = term.NormalizeDraft(d)
	if errs := term.ValidateDraft(d); errs != nil {
		return nil, errs, nil
	}
	updated, err := b.coord.Update(ctx, id, term.PatchFromDraft(d), b.audit())
	return updated, nil, err
}

// DeleteTerm removes a term after the confirm dialog.
func (b *Browser) DeleteTerm(ctx context.Context, id string) error {
	if !b.gate.Authenticated() {
		return auth.ErrNoSession
	}
	actor := ""
	if identity := b.gate.Identity(); identity != nil {
		actor = identity.Email
	}
	return b.coord.Delete(ctx, id, actor)
}

// State snapshots the current view.
func (b *Browser) State() View {
	q := b.ctrl.Query()
	v := View{
		Query:     q,
		Page:      q.Page,
		PageSize:  q.PageSize,
		RawSearch: b.ctrl.RawSearch(),
		Loading:   b.coord.Loading(),
		Mutating:  b.coord.Mutating(),
	}
	if _, page, ok := b.coord.Visible(); ok {
		v.Terms = page.Terms
		v.TotalCount = page.TotalCount
		v.TotalPages = page.TotalPages
	}
	b.mu.Lock()
	if b.lastErr != nil {
		v.Err = b.lastErr.Error()
	}
	b.mu.Unlock()
	return v
}

// Close tears the session down: pending debounce timers stop, the gate
// subscription is released and in-flight fetches are cancelled.
func (b *Browser) Close() {
	b.cancel()
	b.ctrl.Close()
	b.gate.Close()
}
