package web

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-kiosk/pkg/assistant"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/order"
	"github.com/teslashibe/go-kiosk/pkg/store"
	"github.com/teslashibe/go-kiosk/pkg/tts"
)

func fail(c *fiber.Ctx, status int, msg string, err error) error {
	body := fiber.Map{"error": msg}
	if err != nil {
		body["detail"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type menuResponse struct {
	Menus []catalog.MenuItem `json:"menus"`
}

func menus(items []catalog.MenuItem) menuResponse {
	if items == nil {
		items = []catalog.MenuItem{}
	}
	return menuResponse{Menus: items}
}

func (s *Server) handleMenu(c *fiber.Ctx) error {
	items, err := s.menu.Menu(c.UserContext())
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch menu", err)
	}
	return c.JSON(menus(items))
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if keyword == "" {
		return fail(c, fiber.StatusBadRequest, "keyword parameter required", nil)
	}
	items, err := s.menu.Search(c.UserContext(), keyword)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to search menu", err)
	}
	return c.JSON(menus(items))
}

// SaveCartRequest is the body of POST /api/cart. Total is ignored and
// recomputed from the items.
type SaveCartRequest struct {
	SessionID string        `json:"sessionId"`
	Items     *[]order.Line `json:"items"`
	Total     int           `json:"total"`
}

func (s *Server) handleSaveCart(c *fiber.Ctx) error {
	var req SaveCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body", err)
	}
	if req.SessionID == "" || req.Items == nil {
		return fail(c, fiber.StatusBadRequest, "sessionId and items array required", nil)
	}
	cart, err := order.New(*req.Items...)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid cart", err)
	}
	if s.carts == nil {
		return fail(c, fiber.StatusServiceUnavailable, "cart storage not configured", nil)
	}
	if err := s.carts.SaveCart(c.UserContext(), req.SessionID, cart); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to save cart", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleGetCart(c *fiber.Ctx) error {
	if s.carts == nil {
		return c.JSON(order.Cart{})
	}
	cart, err := s.carts.LoadCart(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch cart", err)
	}
	return c.JSON(cart)
}

// VoiceOrderRequest is the body of POST /api/voice-order.
type VoiceOrderRequest struct {
	Messages  []assistant.Message `json:"messages"`
	SessionID string              `json:"sessionId"`
}

func (s *Server) handleVoiceOrder(c *fiber.Ctx) error {
	var req VoiceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body", err)
	}
	if len(req.Messages) == 0 {
		return fail(c, fiber.StatusBadRequest, "messages array required", nil)
	}
	if s.assistant == nil {
		return fail(c, fiber.StatusInternalServerError, "assistant API key not configured", nil)
	}

	reply, err := s.assistant.Reply(c.UserContext(), req.SessionID, req.Messages)
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		return fail(c, fiber.StatusInternalServerError, "assistant API key not configured", nil)
	case errors.Is(err, assistant.ErrNoMessages):
		return fail(c, fiber.StatusBadRequest, "messages array required", nil)
	case err != nil:
		s.logger.Warn("assistant failed", "session_id", req.SessionID, "error", err)
		return fail(c, fiber.StatusBadGateway, "failed to get reply", err)
	}
	return c.JSON(fiber.Map{"reply": reply})
}

// TTSRequest is the body of POST /api/tts.
type TTSRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTTS(c *fiber.Ctx) error {
	var req TTSRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return fail(c, fiber.StatusBadRequest, "text required", nil)
	}
	if s.tts == nil {
		return fail(c, fiber.StatusServiceUnavailable, "TTS not configured", nil)
	}

	res, err := s.tts.Synthesize(c.UserContext(), req.Text)
	if err != nil {
		if errors.Is(err, tts.ErrEmptyText) {
			return fail(c, fiber.StatusBadRequest, "text required", nil)
		}
		s.logger.Warn("tts failed", "chars", len([]rune(req.Text)), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to synthesize speech", err)
	}
	return c.JSON(fiber.Map{
		"audio":  base64.StdEncoding.EncodeToString(res.Audio),
		"format": res.Format,
	})
}

func (s *Server) handleGetOrder(c *fiber.Ctx) error {
	if s.orders == nil {
		return fail(c, fiber.StatusNotFound, "order not found", nil)
	}
	ev, err := s.orders.Order(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "order not found", nil)
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch order", err)
	}
	return c.JSON(ev)
}
