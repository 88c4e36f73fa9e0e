package assistant

import (
	"log/slog"
	"time"
)

// Config holds provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey  string
	BaseURL string

	Model       string
	Temperature float64

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the kiosk defaults.
func DefaultConfig() *Config {
	return &Config{
		Temperature: 0.3,
		Timeout:     20 * time.Second,
		MaxRetries:  2,
		RetryDelay:  200 * time.Millisecond,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
