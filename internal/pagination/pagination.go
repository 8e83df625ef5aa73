// Package pagination holds the page/limit/totals record that drives a list.
package pagination

import (
	"sync"

	"freightdesk/internal/model"
)

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Page       *int
	Limit      *int
	TotalPages *int
	TotalItems *int
}

func Int(v int) *int {
	return &v
}

// FromMeta builds a patch carrying every field of a list envelope's meta.
func FromMeta(meta *model.Pagination) Patch {
	if meta == nil {
		return Patch{}
	}

	return Patch{
		Page:       Int(meta.Page),
		Limit:      Int(meta.Limit),
		TotalPages: Int(meta.TotalPages),
		TotalItems: Int(meta.TotalItems),
	}
}

type Holder struct {
	mu       sync.RWMutex
	defaults model.Pagination
	state    model.Pagination
}

// New returns a holder whose defaults are page 1 and the given limit.
// A non-positive limit falls back to model.DefaultLimit.
func New(limit int) *Holder {
	if limit <= 0 {
		limit = model.DefaultLimit
	}

	defaults := model.Pagination{Page: model.DefaultPage, Limit: limit}
	return &Holder{defaults: defaults, state: defaults}
}

// NewWithState seeds both the defaults and the current state.
func NewWithState(state model.Pagination) *Holder {
	return &Holder{defaults: state, state: state}
}

func (h *Holder) State() model.Pagination {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Update shallow-merges p into the current state. No validation is done.
func (h *Holder) Update(p Patch) model.Pagination {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p.Page != nil {
		h.state.Page = *p.Page
	}
	if p.Limit != nil {
		h.state.Limit = *p.Limit
	}
	if p.TotalPages != nil {
		h.state.TotalPages = *p.TotalPages
	}
	if p.TotalItems != nil {
		h.state.TotalItems = *p.TotalItems
	}

	return h.state
}

func (h *Holder) Reset() model.Pagination {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = h.defaults
	return h.state
}

// Clamp bounds page to [1, max(totalPages, 1)] using the current totals.
func (h *Holder) Clamp(page int) int {
	h.mu.RLock()
	totalPages := h.state.TotalPages
	h.mu.RUnlock()

	return ClampPage(page, totalPages)
}

func ClampPage(page int, totalPages int) int {
	upper := totalPages
	if upper < 1 {
		upper = 1
	}

	if page < 1 {
		return 1
	}
	if page > upper {
		return upper
	}
	return page
}

func (h *Holder) HasNext() bool {
	s := h.State()
	return s.Page < s.TotalPages
}

func (h *Holder) HasPrev() bool {
	return h.State().Page > 1
}
