// Package config loads kiosk configuration from .env, an optional YAML file
// and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Cart backends.
const (
	CartBackendSQL   = "sql"
	CartBackendRedis = "redis"
)

// Config holds all kiosk configuration.
type Config struct {
	HTTPPort string `yaml:"http_port"`
	LogLevel string `yaml:"log_level"`
	Env      string `yaml:"env"`

	Database DatabaseConfig  `yaml:"database"`
	Redis    RedisConfig     `yaml:"redis"`
	LLM      LLMConfig       `yaml:"llm"`
	TTS      TTSConfig       `yaml:"tts"`
	Kafka    KafkaConfig     `yaml:"kafka"`
	Intent   IntentConfig    `yaml:"intent"`
	Client   KioskClientConf `yaml:"client"`
}

// DatabaseConfig selects and locates the SQL store.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	URL         string `yaml:"url"`
	SQLitePath  string `yaml:"sqlite_path"`
	CartBackend string `yaml:"cart_backend"`
}

// RedisConfig configures the Redis cart store.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CartTTL  time.Duration `yaml:"cart_ttl"`
}

// LLMConfig configures the conversational assistant providers.
type LLMConfig struct {
	OpenAIKey   string        `yaml:"openai_api_key"`
	ChatModel   string        `yaml:"chat_model"`
	Temperature float64       `yaml:"temperature"`
	GeminiKey   string        `yaml:"gemini_api_key"`
	GeminiModel string        `yaml:"gemini_model"`
	ChatTimeout time.Duration `yaml:"chat_timeout"`
	MaxTurns    int           `yaml:"max_turns"`
}

// TTSConfig configures server-side speech synthesis.
type TTSConfig struct {
	Voice string  `yaml:"voice"`
	Model string  `yaml:"model"`
	Speed float64 `yaml:"speed"`

	// FallbackModel is tried when Model fails. Empty disables the fallback.
	FallbackModel string `yaml:"fallback_model"`
}

// KafkaConfig configures order event publishing. Empty brokers disables it.
type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

// IntentConfig configures the keyword matcher and resolver.
type IntentConfig struct {
	RulesPath      string `yaml:"rules_path"`
	RecommendLimit int    `yaml:"recommend_limit"`
}

// KioskClientConf configures the remote client used by `kiosk simulate`.
type KioskClientConf struct {
	BaseURL string `yaml:"base_url"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		HTTPPort: "3001",
		LogLevel: "info",
		Env:      "development",
		Database: DatabaseConfig{
			Driver:      DriverSQLite,
			SQLitePath:  "kiosk.db",
			CartBackend: CartBackendSQL,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			CartTTL: 2 * time.Hour,
		},
		LLM: LLMConfig{
			ChatModel:   "gpt-4o-mini",
			Temperature: 0.3,
			GeminiModel: "gemini-2.0-flash",
			ChatTimeout: 20 * time.Second,
			MaxTurns:    20,
		},
		TTS: TTSConfig{
			Voice: "nova",
			Model: "tts-1",
			Speed: 0.95,

			FallbackModel: "tts-1-hd",
		},
		Kafka: KafkaConfig{
			Topic: "kiosk.orders",
		},
		Intent: IntentConfig{
			RecommendLimit: 2,
		},
		Client: KioskClientConf{
			BaseURL: "http://localhost:3001",
		},
	}
}

// Load builds the configuration. A missing .env file is not an error; a
// missing YAML file is, when path is non-empty.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("HTTP_PORT", &c.HTTPPort)
	str("LOG_LEVEL", &c.LogLevel)
	str("GO_ENV", &c.Env)

	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("SQLITE_PATH", &c.Database.SQLitePath)
	str("CART_BACKEND", &c.Database.CartBackend)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	integer("REDIS_DB", &c.Redis.DB)
	duration("CART_TTL", &c.Redis.CartTTL)

	str("OPENAI_API_KEY", &c.LLM.OpenAIKey)
	str("CHAT_MODEL", &c.LLM.ChatModel)
	float("CHAT_TEMPERATURE", &c.LLM.Temperature)
	str("GEMINI_API_KEY", &c.LLM.GeminiKey)
	str("GEMINI_MODEL", &c.LLM.GeminiModel)
	duration("CHAT_TIMEOUT", &c.LLM.ChatTimeout)

	str("TTS_VOICE", &c.TTS.Voice)
	str("TTS_MODEL", &c.TTS.Model)
	float("TTS_SPEED", &c.TTS.Speed)
	str("TTS_FALLBACK_MODEL", &c.TTS.FallbackModel)

	str("KAFKA_BROKERS", &c.Kafka.Brokers)
	str("KAFKA_TOPIC", &c.Kafka.Topic)

	str("RULES_PATH", &c.Intent.RulesPath)
	integer("RECOMMEND_LIMIT", &c.Intent.RecommendLimit)

	str("KIOSK_API_URL", &c.Client.BaseURL)

	return errors.Join(errs...)
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("config: http port required")
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("config: sqlite path required")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("config: DATABASE_URL required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	switch c.Database.CartBackend {
	case CartBackendSQL, CartBackendRedis:
	default:
		return fmt.Errorf("config: unknown cart backend %q", c.Database.CartBackend)
	}
	if c.Intent.RecommendLimit < 1 {
		return errors.New("config: recommend limit must be positive")
	}
	if c.TTS.Speed < 0.25 || c.TTS.Speed > 4.0 {
		return fmt.Errorf("config: tts speed %.2f out of range 0.25-4.0", c.TTS.Speed)
	}
	return nil
}

// KafkaBrokers splits the comma separated broker list.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Production reports whether the kiosk runs in production mode.
func (c Config) Production() bool {
	return c.Env == "production"
}
