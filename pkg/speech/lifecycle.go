package speech

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-kiosk/pkg/kiosk"
)

// Lifecycle ties the capture session and the playback queue to the visible
// screen: entering a screen replaces the capture session and flushes
// playback, hiding the page releases both.
type Lifecycle struct {
	capture  *CaptureSession
	playback *PlaybackQueue
	logger   *slog.Logger

	mu     sync.Mutex
	screen kiosk.Screen
}

// NewLifecycle creates a lifecycle over c and q.
func NewLifecycle(c *CaptureSession, q *PlaybackQueue, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{capture: c, playback: q, logger: logger.With("component", "speech.lifecycle")}
}

// Enter releases the previous screen's capture session and playback and
// starts listening for screen. It may be called from a Handler.
func (l *Lifecycle) Enter(ctx context.Context, screen kiosk.Screen, h Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.capture.abort()
	l.playback.CancelCurrent()
	l.screen = screen
	l.logger.Debug("screen entered", "screen", screen)
	return l.capture.Start(ctx, h)
}

// Hide releases capture and playback without starting a new session and
// waits for capture to exit. It must not be called from a Handler.
func (l *Lifecycle) Hide() {
	l.mu.Lock()
	l.capture.abort()
	l.playback.CancelCurrent()
	l.screen = ""
	l.mu.Unlock()

	l.capture.Wait()
}

// Screen is the screen currently listening, empty when hidden.
func (l *Lifecycle) Screen() kiosk.Screen {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.screen
}
