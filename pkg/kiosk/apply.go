package kiosk

import (
	"fmt"

	"github.com/teslashibe/go-kiosk/pkg/order"
)

// Apply returns the cart that results from action. The input cart is never
// modified. Actions that do not touch the cart return it unchanged.
func Apply(cart order.Cart, action Action) (order.Cart, error) {
	var next order.Cart
	switch action.Kind {
	case ActionAdd:
		if action.Line.ItemID == "" {
			return cart, fmt.Errorf("%w: add without item id", order.ErrInvalidCart)
		}
		next = cart.Add(action.Line)
	case ActionRemove:
		next, _ = cart.Remove(action.ItemID)
	case ActionClear:
		next = cart.Clear()
	default:
		return cart, nil
	}
	if err := next.Validate(); err != nil {
		return cart, err
	}
	return next, nil
}
