package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"freightdesk/internal/listing"
	"freightdesk/internal/listquery"
)

const dateOnly = "2006-01-02"

// filterFlags are the list-screen controls shared by list and export.
type filterFlags struct {
	sort        string
	search      string
	searchField string
	status      string
	dateField   string
	from        string
	to          string
	extra       []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.sort, "sort", "", "sort as key or key:asc|desc, e.g. age:desc")
	fs.StringVarP(&f.search, "search", "s", "", "case-insensitive text to search for")
	fs.StringVar(&f.searchField, "search-field", "", "field to search (defaults per collection)")
	fs.StringVar(&f.status, "status", "", "status tab; remembered per collection, pass \"\" to clear")
	fs.StringVar(&f.dateField, "date-field", "", "field the date range applies to (defaults per collection)")
	fs.StringVar(&f.from, "from", "", "range start, YYYY-MM-DD or RFC3339")
	fs.StringVar(&f.to, "to", "", "range end, YYYY-MM-DD (inclusive) or RFC3339")
	fs.StringArrayVarP(&f.extra, "filter", "f", nil, "extra key=value filter, repeatable")
}

// filter converts the flags; only a --status given on the command line
// replaces the remembered tab.
func (f *filterFlags) filter(cmd *cobra.Command) (listing.Filter, error) {
	sort, err := listquery.ParseSort(f.sort)
	if err != nil {
		return listing.Filter{}, err
	}

	from, err := parseDate(f.from, false)
	if err != nil {
		return listing.Filter{}, fmt.Errorf("--from: %w", err)
	}
	to, err := parseDate(f.to, true)
	if err != nil {
		return listing.Filter{}, fmt.Errorf("--to: %w", err)
	}

	extra, err := parseParams(f.extra)
	if err != nil {
		return listing.Filter{}, err
	}

	filter := listing.Filter{
		Search:      strings.TrimSpace(f.search),
		SearchField: strings.TrimSpace(f.searchField),
		Dates:       listquery.DateRange{Field: strings.TrimSpace(f.dateField), From: from, To: to},
		Sort:        sort,
		Extra:       extra,
	}
	if cmd.Flags().Changed("status") {
		status := strings.TrimSpace(f.status)
		filter.Status = &status
	}

	return filter, nil
}

// query builds a list query without a screen, filling field defaults from sc.
// tab is the remembered status used when --status is not given.
func (f *filterFlags) query(cmd *cobra.Command, sc screen, tab string) (listquery.Query, error) {
	filter, err := f.filter(cmd)
	if err != nil {
		return listquery.Query{}, err
	}

	if filter.SearchField == "" {
		filter.SearchField = sc.searchField
	}
	if filter.Dates.Field == "" {
		filter.Dates.Field = sc.dateField
	}

	q := listquery.Query{
		Search:      filter.Search,
		SearchField: filter.SearchField,
		Dates:       filter.Dates,
		Sort:        filter.Sort,
		Extra:       filter.Extra,
		Status:      tab,
	}
	if filter.Status != nil {
		q.Status = *filter.Status
	}
	return q, nil
}

// parseDate accepts RFC3339 or a calendar day in UTC. A day used as the end
// of a range covers the whole day.
func parseDate(raw string, end bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}

	day, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC3339", raw)
	}
	if end {
		day = day.Add(24*time.Hour - time.Millisecond)
	}
	return &day, nil
}

func parseParams(pairs []string) ([]listquery.Param, error) {
	params := make([]listquery.Param, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("filter %q must look like key=value", pair)
		}
		if listquery.Reserved(key) {
			return nil, fmt.Errorf("filter %q: %s has its own flag", pair, key)
		}
		params = append(params, listquery.Param{Key: key, Value: strings.TrimSpace(value)})
	}
	return params, nil
}
