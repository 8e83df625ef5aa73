package listing

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/access"
	"freightdesk/internal/listquery"
	"freightdesk/internal/model"
)

type row struct {
	ID string `json:"_id"`
}

type fakePrefs struct {
	tab   string
	limit int
}

func (p *fakePrefs) Tab() string              { return p.tab }
func (p *fakePrefs) SetTab(tab string) error  { p.tab = tab; return nil }
func (p *fakePrefs) Limit() int               { return p.limit }
func (p *fakePrefs) SetLimit(limit int) error { p.limit = limit; return nil }

type backend struct {
	mu         sync.Mutex
	queries    []string
	totalPages int
}

func (b *backend) list(ctx context.Context, query string) model.Envelope[[]row] {
	b.mu.Lock()
	b.queries = append(b.queries, query)
	totalPages := b.totalPages
	b.mu.Unlock()

	env := model.Success([]row{{ID: query}}, "")
	limit := paramOf(query, "limit")
	meta := model.Pagination{Page: paramOf(query, "page"), Limit: limit, TotalPages: totalPages, TotalItems: totalPages * limit}
	env.Meta = &meta
	return env
}

func (b *backend) last() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[len(b.queries)-1]
}

func paramOf(query, key string) int {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(values.Get(key))
	return n
}

func newController(t *testing.T, list access.ListFunc[row], cfg Config) *Controller[row] {
	t.Helper()
	if cfg.Service == "" {
		cfg.Service = "load"
	}
	hook := access.New(map[string]access.Operations[row]{cfg.Service: {GetAll: list}}, nil)
	return New(hook, cfg)
}

func TestController_FirstFetch(t *testing.T) {
	b := &backend{totalPages: 3}
	c := newController(t, b.list, Config{})

	env := c.Fetch(context.Background())

	require.True(t, env.Success)
	assert.Equal(t, "?page=1&limit=10", b.last())
	assert.Equal(t, []row{{ID: "?page=1&limit=10"}}, c.Rows())
	assert.Equal(t, 3, c.Pagination().TotalPages)
	assert.False(t, c.Loading())
}

func TestController_SetLimitResetsPage(t *testing.T) {
	b := &backend{totalPages: 10}
	c := newController(t, b.list, Config{})
	ctx := context.Background()

	c.Fetch(ctx)
	c.SetPage(ctx, 7)
	require.Equal(t, "?page=7&limit=10", b.last())

	c.SetLimit(ctx, 25)

	assert.Equal(t, "?page=1&limit=25", b.last())
}

func TestController_PageIsClamped(t *testing.T) {
	b := &backend{totalPages: 4}
	c := newController(t, b.list, Config{})
	ctx := context.Background()

	c.Fetch(ctx)
	c.SetPage(ctx, 99)
	assert.Equal(t, "?page=4&limit=10", b.last())

	c.NextPage(ctx)
	assert.Equal(t, "?page=4&limit=10", b.last())

	c.SetPage(ctx, -3)
	assert.Equal(t, "?page=1&limit=10", b.last())

	c.PrevPage(ctx)
	assert.Equal(t, "?page=1&limit=10", b.last())
}

func TestController_FiltersComposeAndReset(t *testing.T) {
	b := &backend{totalPages: 5}
	c := newController(t, b.list, Config{SearchField: "loadNumber", DateField: "pickupDate"})
	ctx := context.Background()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	c.Fetch(ctx)
	c.SetPage(ctx, 3)
	c.SetSearch(ctx, "", "FD-10")
	assert.Equal(t, "?page=1&limit=10&search=FD-10&searchField=loadNumber", b.last())

	c.ToggleSort(ctx, "age")
	c.ToggleSort(ctx, "age")
	c.SetDateRange(ctx, "", &from, nil)
	c.SetExtra(ctx, "carrierId", "c-1")
	assert.Equal(t,
		"?page=1&limit=10&search=FD-10&searchField=loadNumber&dateField=pickupDate&fromDate=2026-03-01T00%3A00%3A00.000Z&sort=age:desc&carrierId=c-1",
		b.last())

	c.SetExtra(ctx, "carrierId", "")
	assert.NotContains(t, b.last(), "carrierId")

	c.ClearFilters(ctx)
	assert.Equal(t, "?page=1&limit=10", b.last())
	assert.Equal(t, "?page=1&limit=10", c.Query().Encode())
}

func TestController_ApplyFetchesOnce(t *testing.T) {
	prefs := &fakePrefs{tab: "booked"}
	b := &backend{totalPages: 4}
	c := newController(t, b.list, Config{SearchField: "loadNumber", DateField: "pickupDate", Prefs: prefs})
	ctx := context.Background()
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	status := "delivered"

	env := c.Apply(ctx, Filter{
		Status: &status,
		Limit:  20,
		Search: "FD",
		Dates:  listquery.DateRange{To: &to},
		Sort:   listquery.Sort{Key: "age", Direction: listquery.Desc},
		Extra:  []listquery.Param{{Key: "carrierId", Value: "c-1"}, {Key: "customerId"}},
	})

	require.True(t, env.Success)
	assert.Len(t, b.queries, 1)
	assert.Equal(t,
		"?page=1&limit=20&status=delivered&search=FD&searchField=loadNumber&dateField=pickupDate&toDate=2026-03-31T00%3A00%3A00.000Z&sort=age:desc&carrierId=c-1",
		b.last())
	assert.Equal(t, "delivered", prefs.tab)
	assert.Equal(t, 20, prefs.limit)

	c.Apply(ctx, Filter{})
	assert.Equal(t, "?page=1&limit=20&status=delivered", b.last(), "a nil status keeps the tab")
}

func TestController_StatusAndLimitPersist(t *testing.T) {
	prefs := &fakePrefs{tab: "booked", limit: 50}
	b := &backend{totalPages: 1}
	c := newController(t, b.list, Config{Prefs: prefs})
	ctx := context.Background()

	c.Fetch(ctx)
	assert.Equal(t, "?page=1&limit=50&status=booked", b.last())

	c.SetStatus(ctx, "in_transit")
	c.SetLimit(ctx, 25)
	assert.Equal(t, "in_transit", prefs.tab)
	assert.Equal(t, 25, prefs.limit)

	c.ClearFilters(ctx)
	assert.Equal(t, "?page=1&limit=50&status=in_transit", b.last(), "tab survives, pagination returns to defaults")
}

func TestController_StaleResponseIsNotApplied(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	list := func(ctx context.Context, query string) model.Envelope[[]row] {
		if strings.Contains(query, "search=old") {
			close(started)
			<-release
			return model.Success([]row{{ID: "old"}}, "")
		}
		return model.Success([]row{{ID: "new"}}, "")
	}
	c := newController(t, list, Config{SearchField: "name"})
	ctx := context.Background()

	staleDone := make(chan model.Envelope[[]row])
	go func() {
		staleDone <- c.SetSearch(ctx, "", "old")
	}()
	<-started

	fresh := c.SetSearch(ctx, "", "new")
	require.True(t, fresh.Success)

	close(release)
	stale := <-staleDone

	assert.Equal(t, []row{{ID: "old"}}, stale.Data, "the stale caller still gets its response")
	assert.Equal(t, []row{{ID: "new"}}, c.Rows())
}

func TestController_SupersededFetchIsCanceled(t *testing.T) {
	started := make(chan struct{})
	canceled := make(chan struct{})

	list := func(ctx context.Context, query string) model.Envelope[[]row] {
		if strings.Contains(query, "search=slow") {
			close(started)
			<-ctx.Done()
			close(canceled)
			return model.Failure[[]row]("request canceled")
		}
		return model.Success([]row{{ID: "fast"}}, "")
	}
	c := newController(t, list, Config{SearchField: "name"})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.SetSearch(ctx, "", "slow")
	}()
	<-started

	c.SetSearch(ctx, "", "fast")

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch was not canceled")
	}
	<-done

	assert.Equal(t, []row{{ID: "fast"}}, c.Rows())
}

func TestController_FailureKeepsLastGoodRows(t *testing.T) {
	fail := false
	list := func(ctx context.Context, query string) model.Envelope[[]row] {
		if fail {
			return model.Failure[[]row]("backend down")
		}
		return model.Success([]row{{ID: "1"}}, "")
	}
	c := newController(t, list, Config{})
	ctx := context.Background()

	c.Fetch(ctx)
	fail = true
	env := c.Fetch(ctx)

	assert.False(t, env.Success)
	assert.Equal(t, []row{{ID: "1"}}, c.Rows())
}
