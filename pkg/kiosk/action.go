package kiosk

import (
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

// ActionKind says what an Action does to the cart and the flow.
type ActionKind string

// Action kinds.
const (
	// ActionAdd adds Line to the cart.
	ActionAdd ActionKind = "add"
	// ActionRemove removes one unit of ItemID.
	ActionRemove ActionKind = "remove"
	// ActionClear empties the cart.
	ActionClear ActionKind = "clear"
	// ActionNone leaves the cart alone. It may still navigate or update
	// session state, and always carries Speech.
	ActionNone ActionKind = "none"
	// ActionClarify asks the customer again. Err says why. It never
	// navigates.
	ActionClarify ActionKind = "clarify"
	// ActionRepeat is the response to unrecognized speech.
	ActionRepeat ActionKind = "repeat"
	// ActionBack returns to the previous screen.
	ActionBack ActionKind = "back"
	// ActionComplete finishes the order with Payment.
	ActionComplete ActionKind = "complete"
)

// Action is the resolved effect of one intent. It is a description only;
// Apply changes the cart and the Engine changes the session.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Line   order.Line `json:"line,omitempty"`
	ItemID string     `json:"itemId,omitempty"`
	Target Screen     `json:"target,omitempty"`
	Speech string     `json:"speech,omitempty"`
	Err    error      `json:"-"`

	// Session updates. Nil or empty means unchanged.
	Pending         *Pending           `json:"-"`
	OrderType       OrderType          `json:"-"`
	Phone           *string            `json:"-"`
	Recommendations []catalog.MenuItem `json:"-"`
	Payment         PaymentMethod      `json:"payment,omitempty"`

	// Rewind returns to Target's earlier visit, if any, instead of pushing
	// a new history entry.
	Rewind bool `json:"-"`
}

// Navigates reports whether the action moves to another screen.
func (a Action) Navigates() bool {
	return a.Kind == ActionBack || (a.Target != "" && a.Kind != ActionClarify && a.Kind != ActionRepeat)
}

// Pending holds the menu item being configured and its set choices.
type Pending struct {
	MenuID    string     `json:"menuId,omitempty"`
	MenuName  string     `json:"menuName,omitempty"`
	MenuPrice int        `json:"menuPrice,omitempty"`
	Drink     string     `json:"drink,omitempty"`
	DrinkSize order.Size `json:"drinkSize,omitempty"`
	Side      string     `json:"side,omitempty"`
	SideSize  order.Size `json:"sideSize,omitempty"`
}

// ScreenContext is what the resolver knows about the current screen.
type ScreenContext struct {
	Screen          Screen
	Pending         Pending
	Phone           string
	OrderType       OrderType
	Recommendations []catalog.MenuItem
}

// AwaitingSize reports whether a drink or side has been chosen on the
// current screen and now needs a size.
func (sc ScreenContext) AwaitingSize() bool {
	switch sc.Screen {
	case ScreenDrinkSelect:
		return sc.Pending.Drink != ""
	case ScreenSideSelect:
		return sc.Pending.Side != ""
	}
	return false
}

func clarify(err error, speech string) Action {
	return Action{Kind: ActionClarify, Err: err, Speech: speech}
}

func none(speech string) Action {
	return Action{Kind: ActionNone, Speech: speech}
}

func strPtr(s string) *string { return &s }
