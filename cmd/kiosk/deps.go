package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/teslashibe/go-kiosk/internal/config"
	"github.com/teslashibe/go-kiosk/pkg/assistant"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/intent"
	"github.com/teslashibe/go-kiosk/pkg/store"
	"github.com/teslashibe/go-kiosk/pkg/tts"
)

// openStore connects, migrates and seeds the configured database.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	dsn := cfg.Database.URL
	if cfg.Database.Driver == config.DriverSQLite {
		dsn = cfg.Database.SQLitePath
	}
	db, err := store.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	seeded, err := store.Seed(ctx, db, catalog.Seed())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seed menu: %w", err)
	}
	if seeded {
		logger.Info("menu seeded", "items", len(catalog.Seed()))
	}
	return db, nil
}

// openCarts returns the cart store selected by configuration and a close
// function for it.
func openCarts(ctx context.Context, cfg config.Config, db store.Store) (store.CartStore, func() error, error) {
	if cfg.Database.CartBackend != config.CartBackendRedis {
		return db, func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}
	carts := store.NewRedisCarts(client, cfg.Redis.CartTTL)
	return carts, carts.Close, nil
}

// loadMatcher uses the rules file when configured, else the embedded tables.
func loadMatcher(cfg config.Config) (*intent.Matcher, error) {
	if cfg.Intent.RulesPath == "" {
		return intent.DefaultMatcher(), nil
	}
	rs, err := intent.LoadRulesFile(cfg.Intent.RulesPath)
	if err != nil {
		return nil, err
	}
	return intent.NewMatcher(rs)
}

// newAssistantProvider chains OpenAI then Gemini, whichever have keys.
// It returns nil when neither is configured.
func newAssistantProvider(ctx context.Context, cfg config.Config, logger *slog.Logger) (assistant.Provider, error) {
	var providers []assistant.Provider
	if cfg.LLM.OpenAIKey != "" {
		p, err := assistant.NewOpenAI(
			assistant.WithAPIKey(cfg.LLM.OpenAIKey),
			assistant.WithModel(cfg.LLM.ChatModel),
			assistant.WithTemperature(cfg.LLM.Temperature),
			assistant.WithTimeout(cfg.LLM.ChatTimeout),
			assistant.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if cfg.LLM.GeminiKey != "" {
		p, err := assistant.NewGemini(ctx,
			assistant.WithAPIKey(cfg.LLM.GeminiKey),
			assistant.WithModel(cfg.LLM.GeminiModel),
			assistant.WithTemperature(cfg.LLM.Temperature),
			assistant.WithTimeout(cfg.LLM.ChatTimeout),
			assistant.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	switch len(providers) {
	case 0:
		return nil, nil
	case 1:
		return providers[0], nil
	}
	chain, err := assistant.NewChain(logger, providers...)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// newTTS returns the OpenAI voice, chained to the fallback model when one is
// configured, or nil without a key.
func newTTS(cfg config.Config, logger *slog.Logger) (tts.Provider, error) {
	if cfg.LLM.OpenAIKey == "" {
		return nil, nil
	}
	voice := func(model string) (*tts.OpenAI, error) {
		return tts.NewOpenAI(
			tts.WithAPIKey(cfg.LLM.OpenAIKey),
			tts.WithVoice(cfg.TTS.Voice),
			tts.WithModel(model),
			tts.WithSpeed(cfg.TTS.Speed),
			tts.WithLogger(logger),
		)
	}
	primary, err := voice(cfg.TTS.Model)
	if err != nil {
		return nil, err
	}
	if cfg.TTS.FallbackModel == "" || cfg.TTS.FallbackModel == cfg.TTS.Model {
		return primary, nil
	}
	fallback, err := voice(cfg.TTS.FallbackModel)
	if err != nil {
		return nil, err
	}
	chain, err := tts.NewChain(logger, primary, fallback)
	if err != nil {
		return nil, err
	}
	return chain, nil
}
