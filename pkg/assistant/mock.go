package assistant

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
type Mock struct {
	// CompleteFunc is called by Complete. If nil, Complete echoes the last
	// user message.
	CompleteFunc func(ctx context.Context, req Request) (string, error)

	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	mu    sync.Mutex
	calls []Request
}

// NewMock returns a mock that replies with reply.
func NewMock(reply string) *Mock {
	return &Mock{
		CompleteFunc: func(context.Context, Request) (string, error) {
			return reply, nil
		},
	}
}

// WithError returns a mock whose Complete always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		CompleteFunc: func(context.Context, Request) (string, error) {
			return "", err
		},
	}
}

// Name implements Provider.
func (m *Mock) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

// Complete records req and calls CompleteFunc.
func (m *Mock) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return LastUserMessage(req.Messages), nil
}

// Calls returns the recorded requests.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount is the number of Complete calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var _ Provider = (*Mock)(nil)
