// Package order holds the cart value types. A Cart is immutable: every
// operation returns a new Cart and leaves the receiver untouched.
package order

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidCart is returned by Validate when a cart breaks its invariants.
var ErrInvalidCart = errors.New("order: invalid cart")

// Component is one part of a set, such as the drink or the side.
type Component struct {
	Name  string `json:"name"`
	Size  Size   `json:"size,omitempty"`
	Price int    `json:"price"`
}

// Variant qualifies a line with a size or a set composition.
type Variant struct {
	Size       Size        `json:"size,omitempty"`
	Components []Component `json:"components,omitempty"`
}

func (v *Variant) clone() *Variant {
	if v == nil {
		return nil
	}
	out := &Variant{Size: v.Size}
	if v.Components != nil {
		out.Components = append([]Component(nil), v.Components...)
	}
	return out
}

// Line is one distinct orderable entry, keyed by ItemID.
type Line struct {
	ItemID      string   `json:"id"`
	DisplayName string   `json:"name"`
	UnitPrice   int      `json:"price"`
	Quantity    int      `json:"quantity"`
	Variant     *Variant `json:"variant,omitempty"`
}

// Subtotal is UnitPrice times Quantity.
func (l Line) Subtotal() int { return l.UnitPrice * l.Quantity }

func (l Line) clone() Line {
	l.Variant = l.Variant.clone()
	return l
}

// Cart is an ordered list of lines. The zero value is an empty cart.
type Cart struct {
	lines []Line
}

// New builds a cart from lines as given, then validates it.
func New(lines ...Line) (Cart, error) {
	c := Cart{lines: cloneLines(lines)}
	if err := c.Validate(); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Lines returns a copy of the lines in insertion order.
func (c Cart) Lines() []Line { return cloneLines(c.lines) }

// Len is the number of distinct lines.
func (c Cart) Len() int { return len(c.lines) }

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Total sums UnitPrice times Quantity over all lines. It is recomputed on
// every call.
func (c Cart) Total() int {
	total := 0
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Find returns the line with id.
func (c Cart) Find(id string) (Line, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i].clone(), true
	}
	return Line{}, false
}

// Quantity returns the quantity of id, zero when absent.
func (c Cart) Quantity(id string) int {
	if i := c.index(id); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c Cart) index(id string) int {
	for i, l := range c.lines {
		if l.ItemID == id {
			return i
		}
	}
	return -1
}

// Add increments the quantity of an existing line with the same ItemID, or
// appends l with quantity 1.
func (c Cart) Add(l Line) Cart {
	lines := cloneLines(c.lines)
	if i := c.index(l.ItemID); i >= 0 {
		lines[i].Quantity++
		return Cart{lines: lines}
	}
	l = l.clone()
	l.Quantity = 1
	return Cart{lines: append(lines, l)}
}

// Remove decrements the quantity of id, deleting the line when it reaches
// zero. The boolean reports whether a line was found.
func (c Cart) Remove(id string) (Cart, bool) {
	i := c.index(id)
	if i < 0 {
		return c, false
	}
	lines := cloneLines(c.lines)
	if lines[i].Quantity > 1 {
		lines[i].Quantity--
		return Cart{lines: lines}, true
	}
	return Cart{lines: append(lines[:i], lines[i+1:]...)}, true
}

// Clear returns an empty cart.
func (c Cart) Clear() Cart { return Cart{} }

// Validate checks that quantities are positive, the total is not negative
// and ids are unique.
func (c Cart) Validate() error {
	seen := make(map[string]bool, len(c.lines))
	for _, l := range c.lines {
		if l.ItemID == "" {
			return fmt.Errorf("%w: line without id", ErrInvalidCart)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: %s has quantity %d", ErrInvalidCart, l.ItemID, l.Quantity)
		}
		if l.UnitPrice < 0 {
			return fmt.Errorf("%w: %s has negative price", ErrInvalidCart, l.ItemID)
		}
		if seen[l.ItemID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidCart, l.ItemID)
		}
		seen[l.ItemID] = true
	}
	if c.Total() < 0 {
		return fmt.Errorf("%w: negative total", ErrInvalidCart)
	}
	return nil
}

// Equal reports whether both carts hold the same lines in the same order.
func (c Cart) Equal(o Cart) bool {
	if len(c.lines) != len(o.lines) {
		return false
	}
	for i := range c.lines {
		a, b := c.lines[i], o.lines[i]
		if a.ItemID != b.ItemID || a.DisplayName != b.DisplayName ||
			a.UnitPrice != b.UnitPrice || a.Quantity != b.Quantity ||
			!variantEqual(a.Variant, b.Variant) {
			return false
		}
	}
	return true
}

func variantEqual(a, b *Variant) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Size != b.Size || len(a.Components) != len(b.Components) {
		return false
	}
	for i := range a.Components {
		if a.Components[i] != b.Components[i] {
			return false
		}
	}
	return true
}

type wireCart struct {
	Items []Line `json:"items"`
	Total int    `json:"total"`
}

// MarshalJSON encodes the cart as {"items": [...], "total": n}.
func (c Cart) MarshalJSON() ([]byte, error) {
	items := c.lines
	if items == nil {
		items = []Line{}
	}
	return json.Marshal(wireCart{Items: items, Total: c.Total()})
}

// UnmarshalJSON decodes {"items": [...]}. Any total in the input is ignored
// and recomputed from the lines.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var w wireCart
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	nc, err := New(w.Items...)
	if err != nil {
		return err
	}
	*c = nc
	return nil
}

func cloneLines(lines []Line) []Line {
	if len(lines) == 0 {
		return nil
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.clone()
	}
	return out
}
