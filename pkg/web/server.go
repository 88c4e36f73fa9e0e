// Package web serves the kiosk HTTP API and its websocket endpoints.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-kiosk/pkg/assistant"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/hub"
	"github.com/teslashibe/go-kiosk/pkg/kiosk"
	"github.com/teslashibe/go-kiosk/pkg/metrics"
	"github.com/teslashibe/go-kiosk/pkg/store"
	"github.com/teslashibe/go-kiosk/pkg/tts"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Minute
)

// Assistant answers free-form customer messages.
type Assistant interface {
	Reply(ctx context.Context, sessionID string, msgs []assistant.Message) (string, error)
}

// OrderFinder looks up completed orders.
type OrderFinder interface {
	Order(ctx context.Context, orderID string) (events.OrderCompleted, error)
}

// Server is the kiosk API server.
type Server struct {
	app  *fiber.App
	addr string

	engine    *kiosk.Engine
	sessions  *kiosk.Registry
	menu      catalog.Catalog
	carts     store.CartStore
	orders    OrderFinder
	assistant Assistant
	tts       tts.Provider
	orderHub  *hub.Hub
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMenu serves the menu endpoints from c instead of the engine's snapshot.
func WithMenu(c catalog.Catalog) Option { return func(s *Server) { s.menu = c } }

// WithCarts stores carts posted by the front end.
func WithCarts(c store.CartStore) Option { return func(s *Server) { s.carts = c } }

// WithOrders enables the order lookup endpoint.
func WithOrders(o OrderFinder) Option { return func(s *Server) { s.orders = o } }

// WithAssistant answers /api/voice-order.
func WithAssistant(a Assistant) Option { return func(s *Server) { s.assistant = a } }

// WithTTS synthesizes /api/tts.
func WithTTS(p tts.Provider) Option { return func(s *Server) { s.tts = p } }

// WithOrderHub streams completed orders on /ws/orders. Run starts the hub.
func WithOrderHub(h *hub.Hub) Option { return func(s *Server) { s.orderHub = h } }

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer builds the app listening on addr, such as ":3001".
func NewServer(addr string, engine *kiosk.Engine, sessions *kiosk.Registry, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		engine:   engine,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	if s.menu == nil {
		s.menu = engineMenu{engine}
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-kiosk",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(s.observe)

	app.Get("/health", s.handleHealth)
	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	api := app.Group("/api")
	api.Get("/menu", s.handleMenu)
	api.Get("/menu/search", s.handleSearch)
	api.Post("/cart", s.handleSaveCart)
	api.Get("/cart/:sessionId", s.handleGetCart)
	api.Post("/voice-order", s.handleVoiceOrder)
	api.Post("/tts", s.handleTTS)
	api.Get("/orders/:id", s.handleGetOrder)

	ks := api.Group("/kiosk/sessions")
	ks.Post("/", s.handleCreateSession)
	ks.Get("/:id", s.handleGetSession)
	ks.Delete("/:id", s.handleDeleteSession)
	ks.Post("/:id/utterances", s.handleUtterance)
	ks.Post("/:id/touch", s.handleTouch)
	ks.Post("/:id/back", s.handleBack)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/kiosk/:id", websocket.New(s.handleKioskWS))
	if s.orderHub != nil {
		app.Get("/ws/orders", websocket.New(func(c *websocket.Conn) { s.orderHub.Serve(c) }))
	}

	s.app = app
	return s
}

// App returns the fiber app, for tests.
func (s *Server) App() *fiber.App { return s.app }

// Run listens on the server's address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("web: listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. It also runs the order hub and expires idle sessions.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	if s.orderHub != nil {
		g.Go(func() error {
			s.orderHub.Run(ctx)
			return nil
		})
	}
	g.Go(func() error {
		s.sweep(ctx)
		return nil
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		return s.app.Listener(ln)
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sessions.Sweep(now); n > 0 {
				s.logger.Info("expired idle sessions", "count", n)
			}
		}
	}
}

// observe records metrics and logs every request.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveRequest(c.Route().Path, c.Method(), status, elapsed)
	}
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
	)
	return err
}

// handleError renders errors as {error, detail}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// engineMenu serves the engine's current snapshot as a Catalog.
type engineMenu struct{ e *kiosk.Engine }

func (m engineMenu) Menu(context.Context) ([]catalog.MenuItem, error) {
	return m.e.Menu().Items(), nil
}

func (m engineMenu) Search(_ context.Context, keyword string) ([]catalog.MenuItem, error) {
	return m.e.Menu().Search(keyword), nil
}
