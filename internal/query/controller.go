// Package query owns the user-driven query state and the cached results it
// resolves to: a filter/sort/pagination controller with debounced search on
// one side, and a cache-and-invalidate coordinator over the term store on
// the other.
package query

import (
	"sync"
	"time"

	"github.com/trendingvenues/termdict/internal/domain/term"
)

// DefaultDebounce is the quiet window search input must survive before a
// query is issued.
const DefaultDebounce = 300 * time.Millisecond

// Controller is the single source of truth for the current query
// parameters. Reading its state is synchronous and always reflects the
// latest applied change; the debounce delay only gates when the committed
// search value changes, never what RawSearch echoes back.
//
// Any committed change to search text, filters or sort resets the page to 1
// so the user is never stranded past the new result set's bounds. SetPage is
// taken at face value: out-of-range navigation is the presentation layer's
// job to prevent.
type Controller struct {
	mu        sync.Mutex
	debounce  time.Duration
	onChange  func(term.Query)
	query     term.Query
	rawSearch string
	timer     *time.Timer
	searchGen uint64
	closed    bool
}

// NewController creates a controller starting from the default query.
// onChange fires after every committed parameter change; a zero debounce
// selects the default window.
func NewController(debounce time.Duration, onChange func(term.Query)) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Controller{
		debounce: debounce,
		onChange: onChange,
		query:    term.DefaultQuery(),
	}
}

// Query returns a snapshot of the committed query parameters.
func (c *Controller) Query() term.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// RawSearch returns the uncommitted search text, for the input field's echo.
func (c *Controller) RawSearch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawSearch
}

// SetSearchText updates the raw search text immediately and (re)arms the
// debounce timer. Rapid keystrokes within the window coalesce into a single
// committed change carrying the final value.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.rawSearch = text
	c.searchGen++
	gen := c.searchGen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() { c.commitSearch(gen) })
}

// commitSearch applies the pending search value unless a newer keystroke
// rearmed the timer in the meantime.
func (c *Controller) commitSearch(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.searchGen {
		c.mu.Unlock()
		return
	}
	if c.rawSearch == c.query.Search {
		c.mu.Unlock()
		return
	}
	c.query.Search = c.rawSearch
	c.query.Page = 1
	c.fireLocked()
}

// SetCategoryFilter applies a category filter immediately.
func (c *Controller) SetCategoryFilter(value string) {
	c.mu.Lock()
	if c.closed || c.query.Category == value {
		c.mu.Unlock()
		return
	}
	c.query.Category = value
	c.query.Page = 1
	c.fireLocked()
}

// SetCodeSystemFilter applies a code-system filter immediately.
func (c *Controller) SetCodeSystemFilter(value string) {
	c.mu.Lock()
	if c.closed || c.query.CodeSystem == value {
		c.mu.Unlock()
		return
	}
	c.query.CodeSystem = value
	c.query.Page = 1
	c.fireLocked()
}

// SetSort applies an explicit sort order.
func (c *Controller) SetSort(field term.SortField, dir term.SortDirection) {
	if !field.Valid() {
		return
	}
	c.mu.Lock()
	if c.closed || (c.query.SortField == field && c.query.SortDir == dir) {
		c.mu.Unlock()
		return
	}
	c.query.SortField = field
	c.query.SortDir = dir
	c.query.Page = 1
	c.fireLocked()
}

// ToggleSort implements header-click semantics: clicking the current sort
// field flips the direction, clicking a new field sorts it ascending.
func (c *Controller) ToggleSort(field term.SortField) {
	if !field.Valid() {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.query.SortField == field {
		if c.query.SortDir == term.SortAsc {
			c.query.SortDir = term.SortDesc
		} else {
			c.query.SortDir = term.SortAsc
		}
	} else {
		c.query.SortField = field
		c.query.SortDir = term.SortAsc
	}
	c.query.Page = 1
	c.fireLocked()
}

// SetPage navigates to a page. The value is not clamped here.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	if c.closed || c.query.Page == n {
		c.mu.Unlock()
		return
	}
	c.query.Page = n
	c.fireLocked()
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(n int) {
	c.mu.Lock()
	if c.closed || c.query.PageSize == n {
		c.mu.Unlock()
		return
	}
	c.query.PageSize = n
	c.query.Page = 1
	c.fireLocked()
}

// fireLocked snapshots the query, releases the lock and notifies. Callers
// hold the lock on entry.
func (c *Controller) fireLocked() {
	q := c.query
	cb := c.onChange
	c.mu.Unlock()
	if cb != nil {
		cb(q)
	}
}

// Close stops any pending debounce timer. Further intents are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
