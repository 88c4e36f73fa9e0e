// Package speech manages the kiosk's microphone and speaker: one capture
// session per screen, and a single-slot playback queue.
package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Language is the recognition language of every capture session.
const Language = "ko-KR"

// DefaultRestartDelay is the pause before listening again after an utterance.
const DefaultRestartDelay = 250 * time.Millisecond

var (
	// ErrAlreadyActive is returned by Start while a session is running.
	ErrAlreadyActive = errors.New("speech: capture already active")

	// ErrClosed is returned by a closed playback queue.
	ErrClosed = errors.New("speech: playback queue closed")

	// ErrNoVoice is returned by a Speaker with neither TTS nor a local voice.
	ErrNoVoice = errors.New("speech: no voice output configured")
)

// Recognizer turns one spoken utterance into text. Listen blocks until an
// utterance ends or ctx is done. io.EOF means no further input will arrive.
type Recognizer interface {
	Listen(ctx context.Context, lang string) (string, error)
}

// Handler receives final transcripts.
type Handler func(transcript string)

// CaptureSession owns a Recognizer and keeps it listening until stopped.
// After every utterance it waits RestartDelay and listens again.
type CaptureSession struct {
	rec          Recognizer
	restartDelay time.Duration
	logger       *slog.Logger

	mu  sync.Mutex
	cur *captureRun
	wg  sync.WaitGroup
}

type captureRun struct {
	cancel   context.CancelFunc
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewCaptureSession creates an idle session over rec. A non-positive delay
// uses DefaultRestartDelay.
func NewCaptureSession(rec Recognizer, delay time.Duration, logger *slog.Logger) *CaptureSession {
	if delay <= 0 {
		delay = DefaultRestartDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureSession{
		rec:          rec,
		restartDelay: delay,
		logger:       logger.With("component", "speech.capture"),
	}
}

// Start begins listening and calls h with every non-empty transcript.
func (c *CaptureSession) Start(ctx context.Context, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur != nil && !c.cur.finished() {
		return ErrAlreadyActive
	}

	ctx, cancel := context.WithCancel(ctx)
	run := &captureRun{
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	c.cur = run
	c.wg.Add(1)
	go c.loop(ctx, run, h)
	return nil
}

// Stop ends the session after the utterance in flight, which is still
// delivered. It does not wait.
func (c *CaptureSession) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		c.cur.stopOnce.Do(func() { close(c.cur.stop) })
	}
}

// Cancel aborts the session, dropping the utterance in flight, and waits
// for it to exit. It must not be called from a Handler.
func (c *CaptureSession) Cancel() {
	c.abort()
	c.wg.Wait()
}

// Wait blocks until no session is running.
func (c *CaptureSession) Wait() {
	c.wg.Wait()
}

// Active reports whether a session is running.
func (c *CaptureSession) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur != nil && !c.cur.finished()
}

// abort cancels the running session without waiting, so that a Handler can
// replace the session it runs on.
func (c *CaptureSession) abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		c.cur.cancel()
		c.cur = nil
	}
}

func (c *CaptureSession) loop(ctx context.Context, run *captureRun, h Handler) {
	defer c.wg.Done()
	defer close(run.done)
	defer run.cancel()

	for {
		select {
		case <-run.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		text, err := c.rec.Listen(ctx, Language)
		if ctx.Err() != nil {
			return
		}
		switch {
		case errors.Is(err, io.EOF):
			c.logger.Debug("recognizer exhausted")
			return
		case err != nil:
			c.logger.Warn("recognition failed, restarting", "error", err)
		case strings.TrimSpace(text) != "":
			h(text)
		}

		select {
		case <-run.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(c.restartDelay):
		}
	}
}

func (r *captureRun) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
