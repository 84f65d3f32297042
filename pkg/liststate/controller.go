package liststate

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Phase is the controller's lifecycle state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseErrored Phase = "errored"
)

// ErrStale marks a fetch whose response arrived after a newer fetch had
// already been started; its data was discarded.
var ErrStale = errors.New("liststate: stale fetch discarded")

// Filters are the list-screen filter values. Empty fields do not filter.
type Filters struct {
	Search     string
	Status     string
	Speciality string
	Country    string
	Category   string
}

// Facets are the filterable attributes of one entity, matched against the
// corresponding Filters fields.
type Facets struct {
	Status     string
	Speciality string
	Country    string
	Category   string
}

// Pagination mirrors the server's page metadata plus what the controller
// infers when the server provides none.
type Pagination struct {
	CurrentPage  int
	TotalPages   int
	TotalRecords int
	Limit        int
}

// Page is one fetched page of entities.
type Page[T any] struct {
	Items []T
	// TotalKnown reports whether the server provided totals; when false
	// the controller infers hasMore from the page fill.
	TotalKnown   bool
	TotalPages   int
	TotalRecords int
}

// FetchFunc retrieves one page from the backend. Implementations pass the
// filters through as query parameters; the controller re-applies them
// locally regardless, tolerating servers that ignore them.
type FetchFunc[T any] func(ctx context.Context, page, limit int, f Filters) (Page[T], error)

// Config wires a controller to one entity type.
type Config[T any] struct {
	PageSize int
	Fetch    FetchFunc[T]
	// KeyOf returns a stable identifier per item. Required; NewController
	// panics without it.
	KeyOf func(T) string
	// SearchText returns the fields matched (case-insensitive substring)
	// by the search filter. Nil disables client-side search.
	SearchText func(T) []string
	// FacetsOf returns the entity's filterable attributes. Nil disables
	// client-side facet matching.
	FacetsOf func(T) Facets
}

// Controller runs the Idle -> Loading -> Loaded/Errored machine for one
// list screen instance. All methods are safe for concurrent use; a fetch
// superseded by a newer one is canceled and its late response discarded.
type Controller[T any] struct {
	cfg   Config[T]
	store *Store[T]

	mu       sync.Mutex
	phase    Phase
	filters  Filters
	page     Pagination
	lastErr  error
	lastLen  int // raw size of the most recently fetched page, pre-refilter
	gen      uint64
	cancel   context.CancelFunc
}

// NewController builds a controller in the Idle phase. A nil KeyOf is a
// programming error and panics here rather than on the first store write.
func NewController[T any](cfg Config[T]) *Controller[T] {
	if cfg.KeyOf == nil {
		panic("liststate: Config.KeyOf is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Controller[T]{
		cfg:   cfg,
		store: NewStore[T](cfg.KeyOf),
		phase: PhaseIdle,
	}
}

// Fetch loads page 1 with the current filters, replacing the list. It is
// called on mount, on explicit refresh/retry, and after every filter
// change. A Fetch started while another is in flight supersedes it: the
// older request is canceled and, if its response still arrives, dropped.
func (c *Controller[T]) Fetch(ctx context.Context) error {
	fctx, gen, filters := c.beginFetch(ctx)
	defer c.endFetch(gen)

	page, err := c.cfg.Fetch(fctx, 1, c.cfg.PageSize, filters)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrStale
	}
	if err != nil {
		c.phase = PhaseErrored
		c.lastErr = err
		return err
	}

	kept := c.refilter(page.Items, filters)
	c.store.SetPage(kept)
	c.applyPageMeta(1, page)
	c.lastLen = len(page.Items)
	c.phase = PhaseLoaded
	c.lastErr = nil
	return nil
}

// LoadMore appends the next page. A failure keeps the existing items and
// the Loaded phase; the caller decides how loudly to surface the error.
func (c *Controller[T]) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseLoaded {
		c.mu.Unlock()
		return errors.New("liststate: load more before a successful fetch")
	}
	next := c.page.CurrentPage + 1
	gen := c.gen
	filters := c.filters
	c.mu.Unlock()

	page, err := c.cfg.Fetch(ctx, next, c.cfg.PageSize, filters)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrStale
	}
	if err != nil {
		// Existing items stay; this is a transient failure.
		return err
	}
	c.store.Append(c.refilter(page.Items, filters))
	c.applyPageMeta(next, page)
	c.lastLen = len(page.Items)
	return nil
}

// SetFilters stores new filter values and refetches from page 1.
func (c *Controller[T]) SetFilters(ctx context.Context, f Filters) error {
	c.mu.Lock()
	c.filters = f
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// RemoveLocal performs the optimistic delete: the item disappears from the
// local list and the tracked total decreases by one, without a refetch.
func (c *Controller[T]) RemoveLocal(key string) bool {
	removed := c.store.Remove(key)
	if removed {
		c.mu.Lock()
		if c.page.TotalRecords > 0 {
			c.page.TotalRecords--
		}
		c.mu.Unlock()
	}
	return removed
}

// UpsertLocal replaces the item in place after a successful update (or
// appends it when absent). Creations go through Fetch instead, so
// server-assigned fields are never guessed locally.
func (c *Controller[T]) UpsertLocal(item T) {
	c.store.Upsert(item)
}

// HasMore reports whether another page is available: from server totals
// when known, otherwise inferred — a full page implies more.
func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page.TotalPages > 0 {
		return c.page.CurrentPage < c.page.TotalPages
	}
	if c.page.TotalRecords > 0 {
		return c.page.CurrentPage*c.page.Limit < c.page.TotalRecords
	}
	return c.lastLen == c.cfg.PageSize
}

// Items returns the current list.
func (c *Controller[T]) Items() []T { return c.store.Items() }

// Phase returns the lifecycle phase.
func (c *Controller[T]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the error from the last failed initial fetch.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Pagination returns the current page metadata.
func (c *Controller[T]) Pagination() Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Filters returns the active filter values.
func (c *Controller[T]) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// ---------------------------------------------------------------------------
// internals
// ---------------------------------------------------------------------------

func (c *Controller[T]) beginFetch(ctx context.Context) (context.Context, uint64, Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.phase = PhaseLoading
	return fctx, c.gen, c.filters
}

func (c *Controller[T]) endFetch(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller[T]) applyPageMeta(current int, page Page[T]) {
	c.page.CurrentPage = current
	c.page.Limit = c.cfg.PageSize
	if page.TotalKnown {
		c.page.TotalPages = page.TotalPages
		c.page.TotalRecords = page.TotalRecords
	} else {
		c.page.TotalPages = 0
		c.page.TotalRecords = 0
	}
}

// refilter re-applies the active filters on top of server results. This is
// redundant when the backend honors its query parameters, and load-bearing
// when it does not.
func (c *Controller[T]) refilter(items []T, f Filters) []T {
	if c.cfg.SearchText == nil && c.cfg.FacetsOf == nil {
		return items
	}
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if f.Search != "" && c.cfg.SearchText != nil && !matchesSearch(c.cfg.SearchText(item), f.Search) {
			continue
		}
		if c.cfg.FacetsOf != nil {
			facets := c.cfg.FacetsOf(item)
			if !matchesFacet(facets.Status, f.Status) ||
				!matchesFacet(facets.Speciality, f.Speciality) ||
				!matchesFacet(facets.Country, f.Country) ||
				!matchesFacet(facets.Category, f.Category) {
				continue
			}
		}
		kept = append(kept, item)
	}
	return kept
}

func matchesSearch(fields []string, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// matchesFacet compares a facet value against a filter value after
// replacing dashes with spaces and lowercasing both, accepting exact or
// containment matches. Filter values arriving from URL-ish sources use
// dashes ("under-observation") where entities use spaces.
func matchesFacet(value, filter string) bool {
	f := normalizeFacet(filter)
	if f == "" {
		return true
	}
	v := normalizeFacet(value)
	return v == f || strings.Contains(v, f)
}

func normalizeFacet(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", " ")))
}
