// Package listquery turns list filter, sort and paging state into the query
// string the backend list endpoints accept.
package listquery

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"freightdesk/internal/model"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is inactive while Key is empty.
type Sort struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

func (s Sort) Active() bool {
	return strings.TrimSpace(s.Key) != ""
}

// Toggle applies a column click: the same column flips direction, another
// column starts ascending.
func (s Sort) Toggle(key string) Sort {
	if s.Active() && s.Key == key {
		if s.Direction == Asc {
			return Sort{Key: key, Direction: Desc}
		}
		return Sort{Key: key, Direction: Asc}
	}

	return Sort{Key: key, Direction: Asc}
}

func (s Sort) String() string {
	if !s.Active() {
		return ""
	}

	return strings.TrimSpace(s.Key) + ":" + string(s.direction())
}

func (s Sort) direction() Direction {
	if s.Direction == Desc {
		return Desc
	}
	return Asc
}

// ParseSort reads "key:dir"; a missing direction means ascending.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Sort{}, nil
	}

	key, dir, found := strings.Cut(raw, ":")
	key = strings.TrimSpace(key)
	if key == "" {
		return Sort{}, fmt.Errorf("sort %q: missing key: %w", raw, model.ErrInvalidInput)
	}
	if !found {
		return Sort{Key: key, Direction: Asc}, nil
	}

	switch Direction(strings.ToLower(strings.TrimSpace(dir))) {
	case Asc:
		return Sort{Key: key, Direction: Asc}, nil
	case Desc:
		return Sort{Key: key, Direction: Desc}, nil
	default:
		return Sort{}, fmt.Errorf("sort %q: direction must be asc or desc: %w", raw, model.ErrInvalidInput)
	}
}

// DateRange is applied when Field is set and at least one bound is present.
type DateRange struct {
	Field string
	From  *time.Time
	To    *time.Time
}

func (d DateRange) Active() bool {
	return strings.TrimSpace(d.Field) != "" && (d.From != nil || d.To != nil)
}

type Param struct {
	Key   string
	Value string
}

var reserved = map[string]struct{}{
	"page": {}, "limit": {}, "status": {}, "search": {}, "searchField": {},
	"dateField": {}, "fromDate": {}, "toDate": {}, "sort": {},
}

// Reserved reports whether key is written by Encode itself and so cannot be
// an extra param.
func Reserved(key string) bool {
	_, ok := reserved[strings.TrimSpace(key)]
	return ok
}

type Query struct {
	Page        int
	Limit       int
	Status      string
	Search      string
	SearchField string
	Dates       DateRange
	Sort        Sort
	Extra       []Param
}

// Encode renders the query with a leading "?". Optional filters that are not
// set emit no key at all.
func (q Query) Encode() string {
	page := q.Page
	if page < 1 {
		page = model.DefaultPage
	}
	limit := q.Limit
	if limit < 1 {
		limit = model.DefaultLimit
	}

	b := builder{}
	b.add("page", strconv.Itoa(page))
	b.add("limit", strconv.Itoa(limit))

	if status := strings.TrimSpace(q.Status); status != "" {
		b.add("status", status)
	}

	search := strings.TrimSpace(q.Search)
	field := strings.TrimSpace(q.SearchField)
	if search != "" && field != "" {
		b.add("search", search)
		b.add("searchField", field)
	}

	if q.Dates.Active() {
		b.add("dateField", strings.TrimSpace(q.Dates.Field))
		if q.Dates.From != nil {
			b.add("fromDate", FormatTime(*q.Dates.From))
		}
		if q.Dates.To != nil {
			b.add("toDate", FormatTime(*q.Dates.To))
		}
	}

	if q.Sort.Active() {
		// the colon separator stays literal
		b.addRaw("sort", url.QueryEscape(strings.TrimSpace(q.Sort.Key))+":"+string(q.Sort.direction()))
	}

	for _, p := range q.Extra {
		if strings.TrimSpace(p.Key) == "" || strings.TrimSpace(p.Value) == "" {
			continue
		}
		b.add(p.Key, p.Value)
	}

	return "?" + b.String()
}

// FormatTime renders t the way browsers serialize dates: UTC, millisecond
// precision, trailing Z.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

type builder struct {
	parts []string
}

func (b *builder) add(key string, value string) {
	b.parts = append(b.parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
}

func (b *builder) addRaw(key string, value string) {
	b.parts = append(b.parts, url.QueryEscape(key)+"="+value)
}

func (b *builder) String() string {
	return strings.Join(b.parts, "&")
}
