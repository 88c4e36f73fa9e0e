package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Utterance is one prompt to be spoken.
type Utterance struct {
	ID   string
	Text string
}

// Player speaks one utterance, returning when it finishes or ctx is done.
type Player interface {
	Play(ctx context.Context, u Utterance) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, u Utterance) error

// Play implements Player.
func (f PlayerFunc) Play(ctx context.Context, u Utterance) error { return f(ctx, u) }

// PlaybackQueue plays utterances one at a time from a single slot. A newer
// utterance replaces anything waiting and preempts the one playing.
type PlaybackQueue struct {
	player Player
	logger *slog.Logger

	mu       sync.Mutex
	slot     *Utterance
	playing  *Utterance
	stopPlay context.CancelFunc
	closed   bool

	wake      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewPlaybackQueue starts a queue playing through p. Close releases it.
func NewPlaybackQueue(p Player, logger *slog.Logger) *PlaybackQueue {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &PlaybackQueue{
		player: p,
		logger: logger.With("component", "speech.playback"),
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// EnqueueReplacing clears the slot, stops the utterance playing and queues u.
func (q *PlaybackQueue) EnqueueReplacing(u Utterance) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.slot = &u
	if q.stopPlay != nil {
		q.stopPlay()
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// CancelCurrent stops the utterance playing and clears the slot.
func (q *PlaybackQueue) CancelCurrent() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.slot = nil
	if q.stopPlay != nil {
		q.stopPlay()
	}
}

// Playing returns the utterance being played, if any.
func (q *PlaybackQueue) Playing() (Utterance, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.playing == nil {
		return Utterance{}, false
	}
	return *q.playing, true
}

// Close stops playback and waits for the worker to exit.
func (q *PlaybackQueue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.slot = nil
		q.mu.Unlock()
		q.cancel()
	})
	<-q.done
	return nil
}

func (q *PlaybackQueue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.ctx.Done():
			return
		case <-q.wake:
		}
		for q.playNext() {
		}
	}
}

// playNext plays the slot's utterance and reports whether one was played.
func (q *PlaybackQueue) playNext() bool {
	q.mu.Lock()
	u := q.slot
	if u == nil || q.ctx.Err() != nil {
		q.mu.Unlock()
		return false
	}
	q.slot = nil
	ctx, cancel := context.WithCancel(q.ctx)
	q.playing, q.stopPlay = u, cancel
	q.mu.Unlock()

	err := q.player.Play(ctx, *u)
	cancel()

	q.mu.Lock()
	q.playing, q.stopPlay = nil, nil
	q.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		q.logger.Warn("playback failed", "utterance_id", u.ID, "error", err)
	}
	return true
}
