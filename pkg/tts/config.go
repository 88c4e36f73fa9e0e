package tts

import (
	"log/slog"
	"time"
)

// Speed bounds accepted by the speech API.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey  string
	BaseURL string

	Voice  string
	Model  string
	Speed  float64
	Format Encoding

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithVoice sets the voice.
func WithVoice(voice string) Option {
	return func(c *Config) {
		c.Voice = voice
	}
}

// WithModel sets the model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithSpeed sets the speaking rate. 1.0 is normal speed.
func WithSpeed(speed float64) Option {
	return func(c *Config) {
		c.Speed = speed
	}
}

// WithFormat sets the audio output format.
func WithFormat(format Encoding) Option {
	return func(c *Config) {
		c.Format = format
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

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the kiosk voice: a slightly slow nova in mp3.
func DefaultConfig() *Config {
	return &Config{
		Voice:      VoiceNova,
		Model:      ModelTTS1,
		Speed:      0.95,
		Format:     EncodingMP3,
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RetryDelay: 200 * time.Millisecond,
		Logger:     slog.Default(),
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
	if c.Speed < MinSpeed || c.Speed > MaxSpeed {
		return ErrInvalidSpeed
	}
	if !c.Format.Valid() {
		return ErrInvalidFormat
	}
	return nil
}
