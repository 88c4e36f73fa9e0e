package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-kiosk/pkg/assistant"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/intent"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

// Assistant answers speech the rule tables do not cover.
type Assistant interface {
	Reply(ctx context.Context, sessionID string, msgs []assistant.Message) (string, error)
}

// CartSaver persists a session's cart.
type CartSaver interface {
	SaveCart(ctx context.Context, sessionID string, cart order.Cart) error
}

// Observer receives engine measurements.
type Observer interface {
	ObserveIntent(ctx intent.Context, kind intent.Kind)
	ObserveUpstreamFailure(service string)
	ObserveOrder(paymentMethod string, total int)
}

// Upstream service names reported to Observer.
const (
	ServiceAssistant = "assistant"
	ServiceCatalog   = "catalog"
	ServiceStore     = "store"
	ServiceEvents    = "events"
)

// DefaultMaxTurns caps the conversation kept per session.
const DefaultMaxTurns = 20

// Outcome is the result of one utterance or touch.
type Outcome struct {
	Intent    intent.Intent
	Action    Action
	Cart      order.Cart
	Screen    Screen
	Speech    string
	Navigated bool
	Assisted  bool
	Completed *events.OrderCompleted
}

// Engine runs the ordering flow: normalize, match, resolve, apply and
// transition. It holds no per-session state and is safe for concurrent use;
// callers serialize calls for the same session.
type Engine struct {
	matcher   *intent.Matcher
	resolver  Resolver
	snap      atomic.Pointer[catalog.Snapshot]
	assistant Assistant
	carts     CartSaver
	publisher events.Publisher
	observer  Observer
	logger    *slog.Logger
	maxTurns  int
	now       func() time.Time
	newID     func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithAssistant consults a for unrecognized speech while browsing the menu or
// confirming the order.
func WithAssistant(a Assistant) EngineOption {
	return func(e *Engine) { e.assistant = a }
}

// WithCartSaver persists carts after every change.
func WithCartSaver(c CartSaver) EngineOption {
	return func(e *Engine) { e.carts = c }
}

// WithPublisher publishes completed orders.
func WithPublisher(p events.Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

// WithObserver reports intents and failures.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// WithEngineLogger sets the logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithSearch serves recommendations from c instead of the menu snapshot.
func WithSearch(c catalog.Catalog) EngineOption {
	return func(e *Engine) { e.resolver.Search = c }
}

// WithRecommendLimit caps recommendation results.
func WithRecommendLimit(n int) EngineOption {
	return func(e *Engine) { e.resolver.Limit = n }
}

// WithMaxTurns caps the assistant conversation kept per session.
func WithMaxTurns(n int) EngineOption {
	return func(e *Engine) { e.maxTurns = n }
}

// WithClock overrides time.Now and the id generator, for tests.
func WithClock(now func() time.Time, newID func() string) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine creates an engine over the given menu. A nil matcher uses the
// embedded rule tables.
func NewEngine(m *intent.Matcher, menu *catalog.Snapshot, opts ...EngineOption) *Engine {
	if m == nil {
		m = intent.DefaultMatcher()
	}
	if menu == nil {
		menu = catalog.NewSnapshot(nil)
	}
	e := &Engine{
		matcher:   m,
		resolver:  Resolver{Limit: DefaultRecommendLimit},
		publisher: events.Discard,
		logger:    slog.Default(),
		maxTurns:  DefaultMaxTurns,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "kiosk.engine")
	e.snap.Store(menu)
	return e
}

// Menu returns the current menu snapshot.
func (e *Engine) Menu() *catalog.Snapshot { return e.snap.Load() }

// Refresh reloads the menu from c. Sessions in flight keep working with
// whichever snapshot they started resolving against.
func (e *Engine) Refresh(ctx context.Context, c catalog.Catalog) error {
	snap, err := catalog.Load(ctx, c)
	if err != nil {
		e.fail(ServiceCatalog)
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	e.snap.Store(snap)
	e.logger.Info("menu refreshed", "items", snap.Len())
	return nil
}

// NewSession starts a session on the home screen.
func (e *Engine) NewSession() Session {
	return NewSession(e.newID(), e.now())
}

// Handle processes one speech transcript.
func (e *Engine) Handle(ctx context.Context, s Session, transcript string) (Session, Outcome) {
	in := e.matcher.Primary(intent.Normalize(transcript), s.Screen.Context())
	return e.run(ctx, s, in, transcript)
}

// Touch processes a button press expressed as an intent.
func (e *Engine) Touch(ctx context.Context, s Session, in intent.Intent) (Session, Outcome, error) {
	if !in.Kind.Valid() {
		return s, Outcome{}, fmt.Errorf("%w: %q", ErrInvalidTouch, in.Kind)
	}
	in.Context = s.Screen.Context()
	next, out := e.run(ctx, s, in, "")
	return next, out, nil
}

// Back returns to the previous screen.
func (e *Engine) Back(ctx context.Context, s Session) (Session, Outcome) {
	in := intent.Navigate(TargetBack)
	in.Context = s.Screen.Context()
	return e.run(ctx, s, in, "")
}

func (e *Engine) run(ctx context.Context, s Session, in intent.Intent, transcript string) (Session, Outcome) {
	snap := e.snap.Load()
	e.observeIntent(in)

	act := e.resolver.Resolve(ctx, in, s.Cart, snap, s.Context())
	if errors.Is(act.Err, ErrUpstream) {
		e.logger.Warn("catalog search failed", "session_id", s.ID, "error", act.Err)
		e.fail(ServiceCatalog)
	}

	var (
		assisted bool
		turns    []assistant.Message
	)
	if act.Kind == ActionRepeat && transcript != "" && e.assistant != nil &&
		(s.Screen == ScreenMenuBrowsing || s.Screen == ScreenOrderConfirm) {
		act, turns, assisted = e.assist(ctx, s, transcript, act)
	}

	cart, err := Apply(s.Cart, act)
	if err != nil {
		e.logger.Error("cart update rejected", "session_id", s.ID, "action", act.Kind, "error", err)
		act = clarify(err, "주문을 처리하지 못했어요. 다시 말씀해주세요.")
		cart = s.Cart
	}

	next := e.transition(s, act, cart)
	if assisted {
		next = next.withTurns(e.maxTurns, turns...)
	}
	navigated := next.Screen != s.Screen || len(next.History) != len(s.History) || act.Kind == ActionComplete
	if navigated {
		next.Turns = nil
	}

	speech := act.Speech
	switch {
	case act.Kind == ActionBack || (navigated && speech == ""):
		speech = Prompt(next.Screen, next.Context(), snap)
	case act.Target == ScreenHome && act.Kind == ActionClear:
		speech += " " + Prompt(ScreenHome, next.Context(), snap)
	}
	if !assisted && speech != "" {
		next.LastPrompt = speech
	}
	next.UpdatedAt = e.now()

	out := Outcome{
		Intent:    in,
		Action:    act,
		Cart:      next.Cart,
		Screen:    next.Screen,
		Speech:    speech,
		Navigated: navigated,
		Assisted:  assisted,
	}

	if act.Kind == ActionComplete {
		ev := e.complete(ctx, s, cart, act.Payment)
		out.Completed = &ev
	} else if !cart.Equal(s.Cart) {
		e.saveCart(ctx, s.ID, cart)
	}

	e.logger.Debug("utterance handled",
		"session_id", s.ID,
		"screen", s.Screen,
		"intent", in.Kind,
		"action", act.Kind,
		"next_screen", next.Screen,
		"total", next.Cart.Total(),
	)
	return next, out
}

// transition applies the session updates carried by act.
func (e *Engine) transition(prev Session, act Action, cart order.Cart) Session {
	next := prev
	next.Cart = cart
	if act.Pending != nil {
		next.Pending = *act.Pending
	}
	if act.OrderType != "" {
		next.OrderType = act.OrderType
	}
	if act.Phone != nil {
		next.Phone = *act.Phone
	}
	if act.Recommendations != nil {
		next.Recommendations = act.Recommendations
	}

	switch {
	case act.Kind == ActionBack:
		if back, ok := prev.Back(); ok {
			return back
		}
		return next
	case act.Target == ScreenHome && (act.Kind == ActionClear || act.Kind == ActionComplete):
		return NewSession(prev.ID, e.now())
	case act.Navigates():
		if act.Rewind {
			if back, ok := prev.rewind(act.Target); ok {
				return back
			}
		}
		return next.forward(prev, act.Target)
	}
	return next
}

func (e *Engine) assist(ctx context.Context, s Session, transcript string, repeat Action) (Action, []assistant.Message, bool) {
	user := assistant.Message{Role: assistant.RoleUser, Content: transcript}
	msgs := s.withTurns(e.maxTurns, user).Turns

	reply, err := e.assistant.Reply(ctx, s.ID, msgs)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			return repeat, nil, false
		}
		e.logger.Warn("assistant failed, repeating prompt", "session_id", s.ID, "error", err)
		e.fail(ServiceAssistant)
		speech := s.LastPrompt
		if speech == "" {
			speech = repeat.Speech
		}
		return Action{Kind: ActionRepeat, Err: fmt.Errorf("%w: assistant: %v", ErrUpstream, err), Speech: speech}, nil, false
	}
	return none(reply), []assistant.Message{user, {Role: assistant.RoleAssistant, Content: reply}}, true
}

func (e *Engine) complete(ctx context.Context, s Session, cart order.Cart, method PaymentMethod) events.OrderCompleted {
	ev := events.OrderCompleted{
		OrderID:       e.newID(),
		SessionID:     s.ID,
		OrderType:     string(s.OrderType),
		PaymentMethod: string(method),
		Phone:         s.Phone,
		Lines:         cart.Lines(),
		Total:         cart.Total(),
		CompletedAt:   e.now(),
	}

	e.saveCart(ctx, s.ID, cart)
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.Warn("failed to publish order", "order_id", ev.OrderID, "error", err)
		e.fail(ServiceEvents)
	}
	if e.observer != nil {
		e.observer.ObserveOrder(ev.PaymentMethod, ev.Total)
	}

	e.logger.Info("order completed",
		"order_id", ev.OrderID,
		"session_id", s.ID,
		"payment", method,
		"items", len(ev.Lines),
		"total", ev.Total,
	)
	return ev
}

func (e *Engine) saveCart(ctx context.Context, sessionID string, cart order.Cart) {
	if e.carts == nil {
		return
	}
	if err := e.carts.SaveCart(ctx, sessionID, cart); err != nil {
		e.logger.Error("failed to save cart", "session_id", sessionID, "error", err)
		e.fail(ServiceStore)
	}
}

func (e *Engine) observeIntent(in intent.Intent) {
	if e.observer != nil {
		e.observer.ObserveIntent(in.Context, in.Kind)
	}
}

func (e *Engine) fail(service string) {
	if e.observer != nil {
		e.observer.ObserveUpstreamFailure(service)
	}
}
