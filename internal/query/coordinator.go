package query

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/observability/metrics"
	"github.com/trendingvenues/termdict/internal/store"
)

// ChangeKind names a successful term mutation.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change describes a committed mutation, for the change-event hook.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	TermID string     `json:"term_id"`
	Actor  string     `json:"actor,omitempty"`
}

// Coordinator maps query parameter tuples to cached result pages and keeps
// that cache consistent across mutations. It owns the cache exclusively.
//
// Reads: a cached entry is served directly; otherwise the store is hit
// and the result cached under its parameters. The previously visible page
// stays displayable while a fetch is outstanding, and a response is applied
// to the visible state only when its parameters are still the
// latest-requested ones at resolution time, so a slow response for an old
// query can never overwrite a newer result.
//
// Writes: on success the whole cache is dropped. Filter, sort and
// pagination make in-place cache patching unsound (a new row may belong on
// another page or fail a filter), so the next read for any parameters hits
// the store. A failed mutation leaves the cache untouched.
type Coordinator struct {
	store   store.Store
	logger  *zap.Logger
	metrics *metrics.Metrics

	// onChange, when set, receives every committed mutation. Used to fan
	// invalidation out to peer instances.
	onChange func(Change)

	mu         sync.Mutex
	entries    map[term.Query]*term.Page
	gen        uint64
	current    term.Query
	hasCurrent bool
	visible    *term.Page
	visibleFor term.Query
	hasVisible bool
	loading    int
	mutating   int
}

// maxCacheEntries bounds the cache. Every distinct search string a user
// commits is its own entry, so a long-lived coordinator would otherwise
// accumulate them forever. The cache is only an optimization; dropping it
// wholesale when full costs one store round-trip per parameter tuple.
const maxCacheEntries = 256

// NewCoordinator creates a coordinator over the given store. Metrics may be
// nil.
func NewCoordinator(st store.Store, m *metrics.Metrics, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:   st,
		logger:  logger,
		metrics: m,
		entries: make(map[term.Query]*term.Page),
	}
}

// OnChange registers the mutation hook. Must be called before concurrent use.
func (c *Coordinator) OnChange(fn func(Change)) {
	c.onChange = fn
}

// Fetch resolves the page for q, serving a fresh cached entry when present.
// The caller always gets its own result; whether that result also becomes
// the visible state depends on the staleness guard described on Coordinator.
func (c *Coordinator) Fetch(ctx context.Context, q term.Query) (*term.Page, error) {
	c.mu.Lock()
	c.current = q
	c.hasCurrent = true
	if page, ok := c.entries[q]; ok {
		c.visible = page
		c.visibleFor = q
		c.hasVisible = true
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.QueryCacheHits.Inc()
		}
		return page, nil
	}
	gen := c.gen
	c.loading++
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.QueryCacheMisses.Inc()
	}

	start := time.Now()
	page, err := c.store.ListPage(ctx, q)

	c.mu.Lock()
	c.loading--
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("paged read failed", zap.Error(err))
		return nil, err
	}

	// A fetch that started before an invalidation still returns usable data
	// to its caller, but it must not repopulate the cache.
	if gen == c.gen {
		if len(c.entries) >= maxCacheEntries {
			c.entries = make(map[term.Query]*term.Page)
		}
		c.entries[q] = page
	}

	applied := gen == c.gen && c.hasCurrent && q == c.current
	if applied {
		c.visible = page
		c.visibleFor = q
		c.hasVisible = true
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
		if !applied {
			c.metrics.StaleResponses.Inc()
		}
	}
	return page, nil
}

// Visible returns the currently presented page and the parameters it was
// fetched for. While a newer fetch is outstanding this is the previous
// result, stale but displayable, so pagination does not blank the view.
func (c *Coordinator) Visible() (term.Query, *term.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleFor, c.visible, c.hasVisible
}

// Loading reports whether any fetch is outstanding.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// Mutating reports whether any mutation is in flight. Mutations are not
// serialized against each other; invalidation is idempotent, so last
// response winning is safe.
func (c *Coordinator) Mutating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutating > 0
}

// InvalidateAll drops every cached entry, forcing the next fetch for any
// parameters back to the store. The visible page stays displayable until
// that fetch resolves.
func (c *Coordinator) InvalidateAll() {
	c.mu.Lock()
	c.gen++
	c.entries = make(map[term.Query]*term.Page)
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.CacheInvalidations.Inc()
	}
}

// Reset drops the cache and the visible state entirely and detaches any
// in-flight fetches. Called on sign-out so a late response cannot leak data
// into an unauthenticated view.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.gen++
	c.entries = make(map[term.Query]*term.Page)
	c.visible = nil
	c.hasVisible = false
	c.hasCurrent = false
	c.mu.Unlock()
}

func (c *Coordinator) beginMutation() {
	c.mu.Lock()
	c.mutating++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.MutationsInFlight.Inc()
	}
}

func (c *Coordinator) endMutation() {
	c.mu.Lock()
	c.mutating--
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.MutationsInFlight.Dec()
	}
}

func (c *Coordinator) committed(ch Change) {
	c.InvalidateAll()
	if c.onChange != nil {
		c.onChange(ch)
	}
}

func actorEmail(audit *term.AuditStamp) string {
	if audit == nil {
		return ""
	}
	return audit.Email
}

// Create inserts a new term. The cache is invalidated only on success.
func (c *Coordinator) Create(ctx context.Context, d term.Draft, audit *term.AuditStamp) (*term.Term, error) {
	c.beginMutation()
	defer c.endMutation()

	created, err := c.store.Create(ctx, d, audit)
	if err != nil {
		if c.metrics != nil {
			c.metrics.MutationsFailed.Inc()
		}
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.TermsCreated.Inc()
	}
	c.committed(Change{Kind: ChangeCreated, TermID: created.ID, Actor: actorEmail(audit)})
	return created, nil
}

// Update applies a partial update. The cache is invalidated only on success.
func (c *Coordinator) Update(ctx context.Context, id string, p term.Patch, audit *term.AuditStamp) (*term.Term, error) {
	c.beginMutation()
	defer c.endMutation()

	updated, err := c.store.Update(ctx, id, p, audit)
	if err != nil {
		if c.metrics != nil {
			c.metrics.MutationsFailed.Inc()
		}
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.TermsUpdated.Inc()
	}
	c.committed(Change{Kind: ChangeUpdated, TermID: updated.ID, Actor: actorEmail(audit)})
	return updated, nil
}

// Delete removes a term. The cache is invalidated only on success.
func (c *Coordinator) Delete(ctx context.Context, id string, actor string) error {
	c.beginMutation()
	defer c.endMutation()

	if err := c.store.Delete(ctx, id); err != nil {
		if c.metrics != nil {
			c.metrics.MutationsFailed.Inc()
		}
		return err
	}
	if c.metrics != nil {
		c.metrics.TermsDeleted.Inc()
	}
	c.committed(Change{Kind: ChangeDeleted, TermID: id, Actor: actor})
	return nil
}
