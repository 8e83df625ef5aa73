package session

import (
	"strconv"
	"strings"
)

// Preferences are the persisted tab and page size of one screen.
type Preferences struct {
	store  Store
	screen string
}

func (p *Preferences) key(name string) string {
	return "screen." + strings.ToLower(p.screen) + "." + name
}

func (p *Preferences) Tab() string {
	v, _ := p.store.Get(p.key("tab"))
	return v
}

func (p *Preferences) SetTab(tab string) error {
	if tab == "" {
		return p.store.Delete(p.key("tab"))
	}
	return p.store.Set(p.key("tab"), tab)
}

// Limit is the saved page size, or 0 when none is saved.
func (p *Preferences) Limit() int {
	raw, ok := p.store.Get(p.key("limit"))
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (p *Preferences) SetLimit(limit int) error {
	return p.store.Set(p.key("limit"), strconv.Itoa(limit))
}
