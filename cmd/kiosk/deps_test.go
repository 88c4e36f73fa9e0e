package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-kiosk/internal/config"
	"github.com/teslashibe/go-kiosk/internal/log"
	"github.com/teslashibe/go-kiosk/pkg/tts"
)

func TestOpenStoreSeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "kiosk.db")

	for i := 0; i < 2; i++ {
		db, err := openStore(ctx, cfg, log.Discard())
		require.NoError(t, err)
		menu, err := db.Menu(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, menu)
		require.NoError(t, db.Close())
	}

	db, err := openStore(ctx, cfg, log.Discard())
	require.NoError(t, err)
	defer db.Close()
	carts, closeCarts, err := openCarts(ctx, cfg, db)
	require.NoError(t, err)
	require.NoError(t, closeCarts())
	require.Equal(t, db, carts)
}

func TestProvidersNeedKeys(t *testing.T) {
	cfg := config.Default()

	p, err := newAssistantProvider(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	require.Nil(t, p)

	v, err := newTTS(cfg, log.Discard())
	require.NoError(t, err)
	require.Nil(t, v)

	cfg.LLM.OpenAIKey = "sk-test"
	p, err = newAssistantProvider(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name())
}

func TestTTSFallbackChain(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.OpenAIKey = "sk-test"

	v, err := newTTS(cfg, log.Discard())
	require.NoError(t, err)
	chain, ok := v.(*tts.Chain)
	require.True(t, ok, "got %T", v)
	require.Equal(t, 2, chain.Len())

	cfg.TTS.FallbackModel = ""
	v, err = newTTS(cfg, log.Discard())
	require.NoError(t, err)
	_, ok = v.(*tts.OpenAI)
	require.True(t, ok, "got %T", v)
}

func TestLoadMatcher(t *testing.T) {
	cfg := config.Default()
	m, err := loadMatcher(cfg)
	require.NoError(t, err)
	require.NotNil(t, m)

	cfg.Intent.RulesPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = loadMatcher(cfg)
	require.Error(t, err)
}
