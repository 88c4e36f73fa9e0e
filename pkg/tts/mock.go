package tts

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// SynthesizeFunc is called by Synthesize. If nil, Synthesize returns a
	// short fake mp3 frame.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// CloseFunc is called by Close.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// fakeMP3 is an ID3 header followed by a silent MPEG frame header.
var fakeMP3 = []byte{'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0xFB, 0x90, 0x00}

// NewMock creates a mock that answers every request with fake mp3 audio.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(_ context.Context, text string) (*AudioResult, error) {
			return &AudioResult{
				Audio:     append([]byte(nil), fakeMP3...),
				Format:    EncodingMP3,
				CharCount: len([]rune(text)),
			}, nil
		},
	}
}

// WithError returns a mock whose Synthesize always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) {
			return nil, err
		},
	}
}

// WithLatency delays every Synthesize call of m by delay.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	next := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text string) (*AudioResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next == nil {
			return nil, WrapError("mock", ErrProviderUnavailable)
		}
		return next(ctx, text)
	}
	return m
}

// Synthesize records the call and runs SynthesizeFunc.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record("Synthesize", text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Close records the call and runs CloseFunc.
func (m *Mock) Close() error {
	m.record("Close", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) record(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Time: time.Now()})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of times method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var _ Provider = (*Mock)(nil)
