package service

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"freightdesk/internal/listquery"
	"freightdesk/internal/model"
	"freightdesk/pkg/apierror"
)

// ListParams is a parsed list query as the backend applies it.
type ListParams struct {
	Page        int
	Limit       int
	Status      string
	Search      string
	SearchField string
	DateField   string
	From        *time.Time
	To          *time.Time
	Sort        listquery.Sort
	// Filters are any other query keys, matched by case-insensitive equality.
	Filters []listquery.Param
}

// ParseListParams reads the list query keys. limit is capped at maxLimit.
func ParseListParams(values url.Values, maxLimit int) (ListParams, error) {
	p := ListParams{
		Page:        positiveInt(values.Get("page"), model.DefaultPage),
		Limit:       positiveInt(values.Get("limit"), model.DefaultLimit),
		Status:      strings.TrimSpace(values.Get("status")),
		Search:      strings.TrimSpace(values.Get("search")),
		SearchField: strings.TrimSpace(values.Get("searchField")),
		DateField:   strings.TrimSpace(values.Get("dateField")),
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	sort, err := listquery.ParseSort(values.Get("sort"))
	if err != nil {
		return ListParams{}, apierror.BadRequest("Invalid sort parameter", err.Error())
	}
	p.Sort = sort

	if p.From, err = parseBound(values.Get("fromDate")); err != nil {
		return ListParams{}, apierror.BadRequest("Invalid fromDate", err.Error())
	}
	if p.To, err = parseBound(values.Get("toDate")); err != nil {
		return ListParams{}, apierror.BadRequest("Invalid toDate", err.Error())
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if !listquery.Reserved(key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	for _, key := range keys {
		if value := strings.TrimSpace(values.Get(key)); value != "" {
			p.Filters = append(p.Filters, listquery.Param{Key: key, Value: value})
		}
	}

	return p, nil
}

func positiveInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func parseBound(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	t = t.UTC()
	return &t, nil
}

// Apply filters then sorts records. It does not page.
func (p ListParams) Apply(records []model.Record, now time.Time) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if p.matches(rec) {
			out = append(out, rec)
		}
	}

	if p.Sort.Active() {
		key := p.Sort.Key
		desc := p.Sort.Direction == listquery.Desc
		slices.SortStableFunc(out, func(a, b model.Record) int {
			c := compareField(a, b, key, now)
			if desc {
				return -c
			}
			return c
		})
	}

	return out
}

// PageOf slices the filtered records and describes the slice. Pages past
// the end are empty; the bound is checked before multiplying so a huge page
// cannot overflow.
func (p ListParams) PageOf(records []model.Record) ([]model.Record, model.Pagination) {
	meta := model.NewPagination(p.Page, p.Limit, len(records))

	if p.Page < 1 || p.Limit < 1 || p.Page > meta.TotalPages {
		return []model.Record{}, meta
	}

	start := (p.Page - 1) * p.Limit
	end := min(start+p.Limit, len(records))

	return records[start:end], meta
}

func (p ListParams) matches(rec model.Record) bool {
	if p.Status != "" && !strings.EqualFold(rec.String("status"), p.Status) {
		return false
	}

	if p.Search != "" && p.SearchField != "" {
		if !strings.Contains(strings.ToLower(rec.String(p.SearchField)), strings.ToLower(p.Search)) {
			return false
		}
	}

	if p.DateField != "" && (p.From != nil || p.To != nil) {
		t, ok := rec.Time(p.DateField)
		if !ok {
			return false
		}
		if p.From != nil && t.Before(*p.From) {
			return false
		}
		if p.To != nil && t.After(*p.To) {
			return false
		}
	}

	for _, f := range p.Filters {
		if !strings.EqualFold(rec.String(f.Key), f.Value) {
			return false
		}
	}

	return true
}

// compareField orders numbers numerically, timestamps chronologically and
// everything else as case-insensitive text. "age" on a load is derived from
// postedAt.
func compareField(a, b model.Record, key string, now time.Time) int {
	if key == "age" {
		return compareFloat(ageOf(a, now), ageOf(b, now))
	}

	av, bv := a[key], b[key]
	if an, ok := av.(float64); ok {
		if bn, ok := bv.(float64); ok {
			return compareFloat(an, bn)
		}
	}

	if at, ok := a.Time(key); ok {
		if bt, ok := b.Time(key); ok {
			return at.Compare(bt)
		}
	}

	return strings.Compare(strings.ToLower(a.String(key)), strings.ToLower(b.String(key)))
}

func ageOf(rec model.Record, now time.Time) float64 {
	posted, ok := rec.Time("postedAt")
	if !ok {
		return math.Inf(-1)
	}
	return now.Sub(posted).Seconds()
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
