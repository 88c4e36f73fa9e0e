package assistant

import (
	"context"
	"log/slog"
)

// Chain implements Provider by trying providers in order. The first
// successful provider wins.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a provider chain. Nil providers are skipped; at least one
// provider is required.
func NewChain(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	var ps []Provider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if len(ps) == 0 {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: ps, logger: logger.With("component", "assistant.chain")}, nil
}

// Name implements Provider.
func (c *Chain) Name() string { return "chain" }

// Len is the number of providers in the chain.
func (c *Chain) Len() int { return len(c.providers) }

// Complete tries each provider until one succeeds.
func (c *Chain) Complete(ctx context.Context, req Request) (string, error) {
	var errs []error

	for i, p := range c.providers {
		reply, err := p.Complete(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded", "provider", p.Name())
			}
			return reply, nil
		}

		errs = append(errs, err)
		c.logger.Warn("provider failed, trying next", "provider", p.Name(), "error", err)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", &ChainError{Errors: errs}
}

var _ Provider = (*Chain)(nil)
