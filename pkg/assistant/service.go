package assistant

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
)

// TurnStore persists answered turns.
type TurnStore interface {
	SaveTurn(ctx context.Context, sessionID, userMessage, assistantMessage string) error
}

// DefaultSessionID is used when a caller sends no session id.
const DefaultSessionID = "default"

// Service answers kiosk conversations. Persistence runs in the background
// and never fails a reply.
type Service struct {
	provider Provider
	menu     catalog.Catalog
	turns    TurnStore
	logger   *slog.Logger

	maxTurns       int
	persistTimeout time.Duration

	wg sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithMaxTurns caps how many trailing messages are sent to the provider.
func WithMaxTurns(n int) ServiceOption {
	return func(s *Service) { s.maxTurns = n }
}

// NewService builds a Service. provider may be nil, in which case Reply
// returns ErrNotConfigured. menu and turns are optional.
func NewService(provider Provider, menu catalog.Catalog, turns TurnStore, opts ...ServiceOption) *Service {
	s := &Service{
		provider:       provider,
		menu:           menu,
		turns:          turns,
		logger:         slog.Default(),
		maxTurns:       20,
		persistTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "assistant.service")
	return s
}

// Configured reports whether a provider is set.
func (s *Service) Configured() bool {
	return s != nil && s.provider != nil
}

// Reply answers msgs for sessionID.
func (s *Service) Reply(ctx context.Context, sessionID string, msgs []Message) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	if len(msgs) == 0 {
		return "", ErrNoMessages
	}
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if s.maxTurns > 0 && len(msgs) > s.maxTurns {
		msgs = msgs[len(msgs)-s.maxTurns:]
	}

	var menu []catalog.MenuItem
	if s.menu != nil {
		items, err := s.menu.Menu(ctx)
		if err != nil {
			s.logger.Warn("menu unavailable for prompt", "error", err)
		} else {
			menu = items
		}
	}

	reply, err := s.provider.Complete(ctx, Request{System: BuildSystemPrompt(menu), Messages: msgs})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		reply = FallbackReply
	}

	s.persist(sessionID, LastUserMessage(msgs), reply)
	return reply, nil
}

func (s *Service) persist(sessionID, user, reply string) {
	if s.turns == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		if err := s.turns.SaveTurn(ctx, sessionID, user, reply); err != nil {
			s.logger.Error("failed to save conversation", "session_id", sessionID, "error", err)
		}
	}()
}

// Wait blocks until background persistence has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
