package tts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("tts: API key required")

	// ErrInvalidSpeed is returned for a speed outside MinSpeed..MaxSpeed.
	ErrInvalidSpeed = errors.New("tts: speed out of range")

	// ErrInvalidFormat is returned for an unsupported encoding.
	ErrInvalidFormat = errors.New("tts: unsupported format")

	// ErrEmptyText is returned when there is nothing to say.
	ErrEmptyText = errors.New("tts: text required")

	// ErrProviderUnavailable is returned when no providers are available.
	ErrProviderUnavailable = errors.New("tts: no providers available")
)

// APIError represents an error response from a TTS API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Provider   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tts [%s]: API error %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("tts [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited returns true if this is a rate limit error (HTTP 429).
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsUnauthorized returns true if this is an authentication error (HTTP 401).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts [%s]: %v", e.Provider, e.Err)
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
