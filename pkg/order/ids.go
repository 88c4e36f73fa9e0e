package order

import "strings"

// Size of a drink or side.
type Size string

// Sizes.
const (
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Label is the Korean name spoken back to the customer.
func (s Size) Label() string {
	switch s {
	case SizeMedium:
		return "미디움"
	case SizeLarge:
		return "라지"
	}
	return string(s)
}

// ParseSize accepts "medium" or "large".
func ParseSize(s string) (Size, bool) {
	switch Size(strings.ToLower(s)) {
	case SizeMedium:
		return SizeMedium, true
	case SizeLarge:
		return SizeLarge, true
	}
	return "", false
}

// Set component prices.
const (
	DrinkMediumPrice = 2000
	DrinkLargePrice  = 2500
	SideMediumPrice  = 3000
	SideLargePrice   = 4000
)

// DrinkPrice is the set surcharge for a drink of size s.
func DrinkPrice(s Size) int {
	if s == SizeLarge {
		return DrinkLargePrice
	}
	return DrinkMediumPrice
}

// SidePrice is the set surcharge for a side of size s.
func SidePrice(s Size) int {
	if s == SizeLarge {
		return SideLargePrice
	}
	return SideMediumPrice
}

// SizedID is the line id of a drink or side ordered on its own.
func SizedID(itemID string, s Size) string {
	return itemID + "_" + string(s)
}

// DefaultSetID is the line id of the default set of a menu item.
func DefaultSetID(menuID string) string {
	return menuID + "_set_default"
}

// SetID is the line id of a composed set. Identical compositions share an
// id, so ordering the same set twice increments its quantity.
func SetID(menuID, drink string, drinkSize Size, side string, sideSize Size) string {
	return strings.Join([]string{menuID, "set", drink, string(drinkSize), side, string(sideSize)}, "_")
}
