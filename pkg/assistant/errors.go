package assistant

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoAPIKey is returned when a provider is built without a key.
	ErrNoAPIKey = errors.New("assistant: API key required")

	// ErrNotConfigured is returned by Service when no provider is set.
	ErrNotConfigured = errors.New("assistant: no provider configured")

	// ErrNoMessages is returned for an empty conversation.
	ErrNoMessages = errors.New("assistant: messages required")

	// ErrEmptyReply is returned when a provider answers with no text.
	ErrEmptyReply = errors.New("assistant: empty reply")
)

// APIError is an error response from a chat API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Provider   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("assistant [%s]: API error %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("assistant [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable reports whether the request may succeed when repeated.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("assistant [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError collects the failures of every provider in a Chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "assistant: all providers failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}
