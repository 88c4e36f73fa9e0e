// Package catalog provides menu items and keyword lookup over them.
package catalog

import (
	"context"
	"strings"

	"github.com/teslashibe/go-kiosk/pkg/intent"
)

// Category groups menu items by how they are ordered.
type Category string

// Categories.
const (
	CategoryBurger Category = "burger"
	CategoryDrink  Category = "drink"
	CategorySide   Category = "side"
)

// MenuItem is one orderable product. Items are not modified once loaded.
type MenuItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int      `json:"price"`
	Keywords []string `json:"keywords"`
	Category Category `json:"category"`
}

// Catalog is the menu source. Implementations may be remote.
type Catalog interface {
	Menu(ctx context.Context) ([]MenuItem, error)
	Search(ctx context.Context, keyword string) ([]MenuItem, error)
}

// Snapshot is an immutable, indexed copy of a menu.
type Snapshot struct {
	items []MenuItem
	byID  map[string]int
	terms [][]string // normalized name and keywords per item
}

// NewSnapshot copies items into a snapshot. Later duplicates of an id are
// dropped.
func NewSnapshot(items []MenuItem) *Snapshot {
	s := &Snapshot{byID: make(map[string]int, len(items))}
	for _, it := range items {
		if _, dup := s.byID[it.ID]; dup {
			continue
		}
		it.Keywords = append([]string(nil), it.Keywords...)
		terms := []string{intent.Normalize(it.Name)}
		for _, k := range it.Keywords {
			if n := intent.Normalize(k); n != "" {
				terms = append(terms, n)
			}
		}
		s.byID[it.ID] = len(s.items)
		s.items = append(s.items, it)
		s.terms = append(s.terms, terms)
	}
	return s
}

// Load fetches the menu from c and snapshots it.
func Load(ctx context.Context, c Catalog) (*Snapshot, error) {
	items, err := c.Menu(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(items), nil
}

// Items returns the menu in catalog order.
func (s *Snapshot) Items() []MenuItem {
	out := make([]MenuItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len is the number of items.
func (s *Snapshot) Len() int { return len(s.items) }

// Get looks up an item by id.
func (s *Snapshot) Get(id string) (MenuItem, bool) {
	i, ok := s.byID[id]
	if !ok {
		return MenuItem{}, false
	}
	return s.items[i], true
}

// ByCategory returns the items of one category in catalog order.
func (s *Snapshot) ByCategory(c Category) []MenuItem {
	var out []MenuItem
	for _, it := range s.items {
		if it.Category == c {
			out = append(out, it)
		}
	}
	return out
}

// Search returns items whose name or any keyword contains keyword, compared
// after normalization. An empty keyword matches every item.
func (s *Snapshot) Search(keyword string) []MenuItem {
	kw := intent.Normalize(keyword)
	var out []MenuItem
	for i, it := range s.items {
		for _, term := range s.terms[i] {
			if strings.Contains(term, kw) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// BestMatch finds the item mentioned in normalized text. The longest name or
// keyword contained in text wins; ties go to the earlier item.
func (s *Snapshot) BestMatch(normalized string) (MenuItem, bool) {
	best, bestLen := -1, 0
	for i := range s.items {
		for _, term := range s.terms[i] {
			if len(term) > bestLen && strings.Contains(normalized, term) {
				best, bestLen = i, len(term)
			}
		}
	}
	if best < 0 {
		return MenuItem{}, false
	}
	return s.items[best], true
}

// Static serves a fixed snapshot through the Catalog interface.
type Static struct {
	snap *Snapshot
}

// NewStatic wraps items as a Catalog.
func NewStatic(items []MenuItem) *Static {
	return &Static{snap: NewSnapshot(items)}
}

// Menu implements Catalog.
func (s *Static) Menu(context.Context) ([]MenuItem, error) {
	return s.snap.Items(), nil
}

// Search implements Catalog.
func (s *Static) Search(_ context.Context, keyword string) ([]MenuItem, error) {
	return s.snap.Search(keyword), nil
}

var _ Catalog = (*Static)(nil)
