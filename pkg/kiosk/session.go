package kiosk

import (
	"slices"
	"time"

	"github.com/teslashibe/go-kiosk/pkg/assistant"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

// Snapshot is the state of a screen when the customer left it.
type Snapshot struct {
	Screen          Screen             `json:"screen"`
	Cart            order.Cart         `json:"cart"`
	Pending         Pending            `json:"pending"`
	Phone           string             `json:"phone,omitempty"`
	Recommendations []catalog.MenuItem `json:"recommendations,omitempty"`
}

// Session is one customer's progress through the kiosk. It is a value:
// Engine methods return an updated copy and never modify their input.
type Session struct {
	ID              string              `json:"id"`
	Screen          Screen              `json:"screen"`
	OrderType       OrderType           `json:"orderType,omitempty"`
	Cart            order.Cart          `json:"cart"`
	Pending         Pending             `json:"pending"`
	Phone           string              `json:"phone,omitempty"`
	Recommendations []catalog.MenuItem  `json:"recommendations,omitempty"`
	LastPrompt      string              `json:"lastPrompt,omitempty"`
	History         []Snapshot          `json:"history,omitempty"`
	Turns           []assistant.Message `json:"turns,omitempty"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// NewSession returns a session on the home screen with an empty cart.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:         id,
		Screen:     ScreenHome,
		LastPrompt: Prompt(ScreenHome, ScreenContext{Screen: ScreenHome}, nil),
		UpdatedAt:  now,
	}
}

// Context is the resolver's view of the session.
func (s Session) Context() ScreenContext {
	return ScreenContext{
		Screen:          s.Screen,
		Pending:         s.Pending,
		Phone:           s.Phone,
		OrderType:       s.OrderType,
		Recommendations: s.Recommendations,
	}
}

func (s Session) snapshot() Snapshot {
	return Snapshot{
		Screen:          s.Screen,
		Cart:            s.Cart,
		Pending:         s.Pending,
		Phone:           s.Phone,
		Recommendations: s.Recommendations,
	}
}

func (s Session) restore(snap Snapshot) Session {
	s.Screen = snap.Screen
	s.Cart = snap.Cart
	s.Pending = snap.Pending
	s.Phone = snap.Phone
	s.Recommendations = snap.Recommendations
	return s
}

// Back returns to the previous screen, restoring the state it had when the
// customer left it. Changes made since are dropped. It reports false when
// there is no previous screen.
func (s Session) Back() (Session, bool) {
	n := len(s.History)
	if n == 0 {
		return s, false
	}
	prev := s.History[n-1]
	s.History = slices.Clip(s.History[:n-1])
	return s.restore(prev), true
}

// rewind pops history back to the most recent visit of target.
func (s Session) rewind(target Screen) (Session, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Screen == target {
			snap := s.History[i]
			s.History = slices.Clip(s.History[:i])
			return s.restore(snap), true
		}
	}
	return s, false
}

// forward moves to target, remembering the state of prev for Back.
func (s Session) forward(prev Session, target Screen) Session {
	s.History = append(slices.Clip(prev.History), prev.snapshot())
	s.Screen = target
	return s
}

// withTurns appends msgs to the conversation, keeping at most max messages.
func (s Session) withTurns(max int, msgs ...assistant.Message) Session {
	turns := append(slices.Clip(s.Turns), msgs...)
	if max > 0 && len(turns) > max {
		turns = slices.Clone(turns[len(turns)-max:])
	}
	s.Turns = turns
	return s
}
