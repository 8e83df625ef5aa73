// Package listing drives a list screen: it owns the rows, the pagination
// holder and the filter set, composes the list query and fetches through a
// data-access hook.
package listing

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"freightdesk/internal/access"
	"freightdesk/internal/listquery"
	"freightdesk/internal/model"
	"freightdesk/internal/pagination"
)

// Preferences persists the per-screen tab and page size.
type Preferences interface {
	Tab() string
	SetTab(tab string) error
	Limit() int
	SetLimit(limit int) error
}

// Config describes one list screen. SearchField and DateField are the
// defaults used when a filter is set without naming a field.
type Config struct {
	// Service is the hook service name the controller fetches through.
	Service     string
	SearchField string
	DateField   string
	Limit       int
	Prefs       Preferences
}

type filters struct {
	status      string
	search      string
	searchField string
	dates       listquery.DateRange
	sort        listquery.Sort
	extra       []listquery.Param
}

type Controller[T any] struct {
	hook    *access.Hook[T]
	service string
	holder  *pagination.Holder
	prefs   Preferences
	cfg     Config
	logger  *slog.Logger

	mu         sync.Mutex
	filters    filters
	rows       []T
	generation uint64
	cancel     context.CancelFunc
}

func New[T any](hook *access.Hook[T], cfg Config) *Controller[T] {
	limit := cfg.Limit
	var status string
	if cfg.Prefs != nil {
		if saved := cfg.Prefs.Limit(); saved > 0 {
			limit = saved
		}
		status = cfg.Prefs.Tab()
	}

	return &Controller[T]{
		hook:    hook,
		service: cfg.Service,
		holder:  pagination.New(limit),
		prefs:   cfg.Prefs,
		cfg:     cfg,
		logger:  slog.Default().With("component", "listing", "service", cfg.Service),
		filters: filters{status: status},
	}
}

// Fetch requests the current page. Only the newest fetch may change rows or
// pagination; starting a fetch cancels the one before it.
func (c *Controller[T]) Fetch(ctx context.Context) model.Envelope[[]T] {
	c.mu.Lock()
	state := c.holder.State()
	page := pagination.ClampPage(state.Page, state.TotalPages)
	if page != state.Page {
		c.holder.Update(pagination.Patch{Page: pagination.Int(page)})
	}
	query := c.queryLocked().Encode()

	c.generation++
	gen := c.generation
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	env := c.hook.GetData(fetchCtx, c.service, query)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding stale list response", "generation", gen, "current", c.generation)
		return env
	}
	c.cancel = nil

	if env.Success {
		c.rows = env.Data
		if env.Meta != nil {
			c.holder.Update(pagination.FromMeta(env.Meta))
		}
	}

	return env
}

func (c *Controller[T]) SetPage(ctx context.Context, page int) model.Envelope[[]T] {
	c.holder.Update(pagination.Patch{Page: pagination.Int(c.holder.Clamp(page))})
	return c.Fetch(ctx)
}

func (c *Controller[T]) NextPage(ctx context.Context) model.Envelope[[]T] {
	return c.SetPage(ctx, c.holder.State().Page+1)
}

func (c *Controller[T]) PrevPage(ctx context.Context) model.Envelope[[]T] {
	return c.SetPage(ctx, c.holder.State().Page-1)
}

// SetLimit changes the page size and always returns to the first page.
func (c *Controller[T]) SetLimit(ctx context.Context, limit int) model.Envelope[[]T] {
	if limit <= 0 {
		limit = model.DefaultLimit
	}
	c.holder.Update(pagination.Patch{Page: pagination.Int(1), Limit: pagination.Int(limit)})
	if c.prefs != nil {
		if err := c.prefs.SetLimit(limit); err != nil {
			c.logger.Warn("persist page size", "error", err)
		}
	}
	return c.Fetch(ctx)
}

func (c *Controller[T]) ToggleSort(ctx context.Context, key string) model.Envelope[[]T] {
	c.mu.Lock()
	c.filters.sort = c.filters.sort.Toggle(key)
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// SetSort replaces the sort outright, e.g. from a --sort flag.
func (c *Controller[T]) SetSort(ctx context.Context, sort listquery.Sort) model.Envelope[[]T] {
	c.mu.Lock()
	c.filters.sort = sort
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// SetSearch applies a search on field; an empty field falls back to the
// configured default.
func (c *Controller[T]) SetSearch(ctx context.Context, field, text string) model.Envelope[[]T] {
	if strings.TrimSpace(field) == "" {
		field = c.cfg.SearchField
	}

	c.mu.Lock()
	c.filters.searchField = field
	c.filters.search = text
	c.mu.Unlock()

	return c.firstPage(ctx)
}

func (c *Controller[T]) SetDateRange(ctx context.Context, field string, from, to *time.Time) model.Envelope[[]T] {
	if strings.TrimSpace(field) == "" {
		field = c.cfg.DateField
	}

	c.mu.Lock()
	c.filters.dates = listquery.DateRange{Field: field, From: from, To: to}
	c.mu.Unlock()

	return c.firstPage(ctx)
}

// SetStatus switches the tab and remembers it for the screen.
func (c *Controller[T]) SetStatus(ctx context.Context, status string) model.Envelope[[]T] {
	c.mu.Lock()
	c.filters.status = status
	c.mu.Unlock()

	if c.prefs != nil {
		if err := c.prefs.SetTab(status); err != nil {
			c.logger.Warn("persist tab", "error", err)
		}
	}

	return c.firstPage(ctx)
}

// SetExtra sets a collection-specific filter; an empty value removes it.
func (c *Controller[T]) SetExtra(ctx context.Context, key, value string) model.Envelope[[]T] {
	c.mu.Lock()
	extra := make([]listquery.Param, 0, len(c.filters.extra)+1)
	replaced := false
	for _, p := range c.filters.extra {
		if p.Key == key {
			replaced = true
			if value == "" {
				continue
			}
			p.Value = value
		}
		extra = append(extra, p)
	}
	if !replaced && value != "" {
		extra = append(extra, listquery.Param{Key: key, Value: value})
	}
	c.filters.extra = extra
	c.mu.Unlock()

	return c.firstPage(ctx)
}

// Filter is a complete filter set applied in one step, e.g. from
// command-line flags.
type Filter struct {
	// Status replaces the tab when non-nil.
	Status      *string
	Limit       int
	Search      string
	SearchField string
	Dates       listquery.DateRange
	Sort        listquery.Sort
	Extra       []listquery.Param
}

// Apply replaces every filter at once and fetches the first page. Empty
// field names fall back to the configured defaults.
func (c *Controller[T]) Apply(ctx context.Context, f Filter) model.Envelope[[]T] {
	if strings.TrimSpace(f.SearchField) == "" {
		f.SearchField = c.cfg.SearchField
	}
	if strings.TrimSpace(f.Dates.Field) == "" {
		f.Dates.Field = c.cfg.DateField
	}

	extra := make([]listquery.Param, 0, len(f.Extra))
	for _, p := range f.Extra {
		if strings.TrimSpace(p.Value) != "" {
			extra = append(extra, p)
		}
	}

	c.mu.Lock()
	status := c.filters.status
	if f.Status != nil {
		status = *f.Status
	}
	c.filters = filters{
		status:      status,
		search:      f.Search,
		searchField: f.SearchField,
		dates:       f.Dates,
		sort:        f.Sort,
		extra:       extra,
	}
	c.mu.Unlock()

	if f.Status != nil && c.prefs != nil {
		if err := c.prefs.SetTab(status); err != nil {
			c.logger.Warn("persist tab", "error", err)
		}
	}

	patch := pagination.Patch{Page: pagination.Int(1)}
	if f.Limit > 0 {
		patch.Limit = pagination.Int(f.Limit)
		if c.prefs != nil {
			if err := c.prefs.SetLimit(f.Limit); err != nil {
				c.logger.Warn("persist page size", "error", err)
			}
		}
	}
	c.holder.Update(patch)

	return c.Fetch(ctx)
}

// ClearFilters drops search, dates, sort and extras and resets pagination.
// The tab is a screen preference and survives.
func (c *Controller[T]) ClearFilters(ctx context.Context) model.Envelope[[]T] {
	c.mu.Lock()
	c.filters = filters{status: c.filters.status}
	c.mu.Unlock()

	c.holder.Reset()
	return c.Fetch(ctx)
}

func (c *Controller[T]) Rows() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, len(c.rows))
	copy(out, c.rows)
	return out
}

func (c *Controller[T]) Pagination() model.Pagination {
	return c.holder.State()
}

// Query is the query the next Fetch would send.
func (c *Controller[T]) Query() listquery.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

func (c *Controller[T]) Loading() bool {
	return c.hook.Loading()
}

func (c *Controller[T]) firstPage(ctx context.Context) model.Envelope[[]T] {
	c.holder.Update(pagination.Patch{Page: pagination.Int(1)})
	return c.Fetch(ctx)
}

func (c *Controller[T]) queryLocked() listquery.Query {
	state := c.holder.State()
	extra := make([]listquery.Param, len(c.filters.extra))
	copy(extra, c.filters.extra)

	return listquery.Query{
		Page:        state.Page,
		Limit:       state.Limit,
		Status:      c.filters.status,
		Search:      c.filters.search,
		SearchField: c.filters.searchField,
		Dates:       c.filters.dates,
		Sort:        c.filters.sort,
		Extra:       extra,
	}
}
