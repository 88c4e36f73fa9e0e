package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Chain implements Provider by trying multiple providers in order.
// The first successful provider wins; if all fail, returns an aggregate error.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a provider chain that tries providers in order. Nil
// providers are skipped; at least one provider is required.
func NewChain(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	var ps []Provider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if len(ps) == 0 {
		return nil, ErrProviderUnavailable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: ps, logger: logger.With("component", "tts.chain")}, nil
}

// Synthesize tries each provider until one succeeds.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	var errs []error

	for i, p := range c.providers {
		result, err := p.Synthesize(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded", "provider_index", i, "chars", len(text))
			}
			return result, nil
		}
		if errors.Is(err, ErrEmptyText) {
			return nil, err
		}

		errs = append(errs, err)
		c.logger.Warn("provider failed, trying next", "provider_index", i, "error", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errs}
}

// Close closes all providers.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len is the number of providers.
func (c *Chain) Len() int { return len(c.providers) }

// ChainError aggregates errors from all providers in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("tts chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("tts chain: all %d providers failed, last error: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap exposes every provider failure to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

var _ Provider = (*Chain)(nil)
