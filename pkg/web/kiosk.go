package web

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/intent"
	"github.com/teslashibe/go-kiosk/pkg/kiosk"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

// wsTimeout bounds the handling of one websocket message.
const wsTimeout = 30 * time.Second

// SessionView is the JSON form of a kiosk session.
type SessionView struct {
	ID              string             `json:"id"`
	Screen          kiosk.Screen       `json:"screen"`
	OrderType       kiosk.OrderType    `json:"orderType,omitempty"`
	Cart            order.Cart         `json:"cart"`
	Pending         kiosk.Pending      `json:"pending"`
	Phone           string             `json:"phone,omitempty"`
	Recommendations []catalog.MenuItem `json:"recommendations,omitempty"`
	Prompt          string             `json:"prompt,omitempty"`
	CanGoBack       bool               `json:"canGoBack"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// OutcomeView is the JSON form of one handled utterance or touch.
type OutcomeView struct {
	Session   SessionView            `json:"session"`
	Intent    intent.Intent          `json:"intent"`
	Action    kiosk.Action           `json:"action"`
	Speech    string                 `json:"speech"`
	Navigated bool                   `json:"navigated"`
	Assisted  bool                   `json:"assisted,omitempty"`
	Completed *events.OrderCompleted `json:"completed,omitempty"`
}

func sessionView(s kiosk.Session) SessionView {
	return SessionView{
		ID:              s.ID,
		Screen:          s.Screen,
		OrderType:       s.OrderType,
		Cart:            s.Cart,
		Pending:         s.Pending,
		Phone:           s.Phone,
		Recommendations: s.Recommendations,
		Prompt:          s.LastPrompt,
		CanGoBack:       len(s.History) > 0,
		UpdatedAt:       s.UpdatedAt,
	}
}

func outcomeView(s kiosk.Session, out kiosk.Outcome) OutcomeView {
	return OutcomeView{
		Session:   sessionView(s),
		Intent:    out.Intent,
		Action:    out.Action,
		Speech:    out.Speech,
		Navigated: out.Navigated,
		Assisted:  out.Assisted,
		Completed: out.Completed,
	}
}

// CreateSessionRequest is the body of POST /api/kiosk/sessions.
type CreateSessionRequest struct {
	OrderType kiosk.OrderType `json:"orderType"`
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body", err)
		}
	}

	sess := s.engine.NewSession()
	if req.OrderType != "" {
		next, out, err := s.engine.Touch(c.UserContext(), sess, intent.Choose(string(req.OrderType)))
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid order type", err)
		}
		if !out.Navigated {
			return fail(c, fiber.StatusBadRequest, "invalid order type", nil)
		}
		sess = next
	}
	s.sessions.Put(sess)
	s.logger.Info("session started", "session_id", sess.ID, "order_type", sess.OrderType)
	return c.Status(fiber.StatusCreated).JSON(sessionView(sess))
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(sessionView(sess))
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	s.sessions.Delete(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// UtteranceRequest is the body of POST /api/kiosk/sessions/:id/utterances.
type UtteranceRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleUtterance(c *fiber.Ctx) error {
	var req UtteranceRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return fail(c, fiber.StatusBadRequest, "text required", nil)
	}
	view, err := s.utterance(c.UserContext(), c.Params("id"), req.Text)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) handleTouch(c *fiber.Ctx) error {
	var in intent.Intent
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body", err)
	}
	view, err := s.touch(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) handleBack(c *fiber.Ctx) error {
	view, err := s.back(c.UserContext(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(view.Session)
}

func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, kiosk.ErrSessionNotFound):
		return fail(c, fiber.StatusNotFound, "session not found", nil)
	case errors.Is(err, kiosk.ErrInvalidTouch):
		return fail(c, fiber.StatusBadRequest, "invalid touch intent", err)
	}
	return fail(c, fiber.StatusInternalServerError, "failed to handle request", err)
}

func (s *Server) utterance(ctx context.Context, id, text string) (OutcomeView, error) {
	var view OutcomeView
	_, err := s.sessions.Update(id, func(sess kiosk.Session) (kiosk.Session, error) {
		next, out := s.engine.Handle(ctx, sess, text)
		view = outcomeView(next, out)
		return next, nil
	})
	return view, err
}

func (s *Server) touch(ctx context.Context, id string, in intent.Intent) (OutcomeView, error) {
	var view OutcomeView
	_, err := s.sessions.Update(id, func(sess kiosk.Session) (kiosk.Session, error) {
		next, out, err := s.engine.Touch(ctx, sess, in)
		if err != nil {
			return sess, err
		}
		view = outcomeView(next, out)
		return next, nil
	})
	return view, err
}

func (s *Server) back(ctx context.Context, id string) (OutcomeView, error) {
	var view OutcomeView
	_, err := s.sessions.Update(id, func(sess kiosk.Session) (kiosk.Session, error) {
		next, out := s.engine.Back(ctx, sess)
		view = outcomeView(next, out)
		return next, nil
	})
	return view, err
}

// WSMessage is a client message on /ws/kiosk/:id. Type is "utterance",
// "touch" or "back".
type WSMessage struct {
	Type string      `json:"type"`
	Text string      `json:"text,omitempty"`
	Kind intent.Kind `json:"kind,omitempty"`
	Ref  string      `json:"ref,omitempty"`
	Arg  string      `json:"arg,omitempty"`
}

// handleKioskWS drives one session over a websocket: every message is
// answered with an outcome view or {error}.
func (s *Server) handleKioskWS(c *websocket.Conn) {
	id := c.Params("id")
	logger := s.logger.With("session_id", id)

	sess, err := s.sessions.Get(id)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "session not found"})
		return
	}
	if err := c.WriteJSON(sessionView(sess)); err != nil {
		return
	}

	for {
		var msg WSMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("kiosk websocket closed", "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsTimeout)
		var view OutcomeView
		switch msg.Type {
		case "utterance":
			view, err = s.utterance(ctx, id, msg.Text)
		case "touch":
			view, err = s.touch(ctx, id, intent.Intent{Kind: msg.Kind, Ref: msg.Ref, Arg: msg.Arg})
		case "back":
			view, err = s.back(ctx, id)
		default:
			err = errors.New("unknown message type " + msg.Type)
		}
		cancel()

		if err != nil {
			if werr := c.WriteJSON(fiber.Map{"error": err.Error()}); werr != nil {
				return
			}
			continue
		}
		if err := c.WriteJSON(view); err != nil {
			return
		}
	}
}
