package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-kiosk/internal/log"
	"github.com/teslashibe/go-kiosk/pkg/assistant"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/hub"
	"github.com/teslashibe/go-kiosk/pkg/kiosk"
	"github.com/teslashibe/go-kiosk/pkg/metrics"
	"github.com/teslashibe/go-kiosk/pkg/web"
)

var (
	port       string
	sessionTTL time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kiosk HTTP and websocket API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "override HTTP_PORT")
	serveCmd.Flags().DurationVar(&sessionTTL, "session-ttl", 30*time.Minute, "drop sessions idle longer than this")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != "" {
		cfg.HTTPPort = port
	}
	logger := log.Component("kiosk.serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	carts, closeCarts, err := openCarts(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeCarts()

	menu, err := catalog.Load(ctx, db)
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}
	matcher, err := loadMatcher(cfg)
	if err != nil {
		return err
	}

	provider, err := newAssistantProvider(ctx, cfg, log.L())
	if err != nil {
		return err
	}
	svc := assistant.NewService(provider, db, db,
		assistant.WithServiceLogger(log.L()),
		assistant.WithMaxTurns(cfg.LLM.MaxTurns),
	)
	defer svc.Wait()

	voice, err := newTTS(cfg, log.L())
	if err != nil {
		return err
	}

	orderHub := hub.New("orders", log.L())
	publishers := events.Multi{db, events.NewBroadcaster(orderHub)}
	kafka, err := events.NewKafka(cfg.KafkaBrokers(), cfg.Kafka.Topic)
	switch {
	case errors.Is(err, events.ErrKafkaDisabled):
		logger.Info("kafka disabled")
	case err != nil:
		return err
	default:
		defer kafka.Close()
		publishers = append(publishers, kafka)
	}

	m := metrics.New()
	engine := kiosk.NewEngine(matcher, menu,
		kiosk.WithAssistant(svc),
		kiosk.WithCartSaver(carts),
		kiosk.WithPublisher(publishers),
		kiosk.WithObserver(m),
		kiosk.WithSearch(db),
		kiosk.WithRecommendLimit(cfg.Intent.RecommendLimit),
		kiosk.WithMaxTurns(cfg.LLM.MaxTurns),
		kiosk.WithEngineLogger(log.L()),
	)
	sessions := kiosk.NewRegistry(sessionTTL)
	m.TrackSessions(sessions.Len)

	opts := []web.Option{
		web.WithMenu(db),
		web.WithCarts(carts),
		web.WithOrders(db),
		web.WithAssistant(svc),
		web.WithOrderHub(orderHub),
		web.WithMetrics(m),
		web.WithLogger(log.L()),
	}
	if voice != nil {
		defer voice.Close()
		opts = append(opts, web.WithTTS(voice))
	}
	srv := web.NewServer(":"+cfg.HTTPPort, engine, sessions, opts...)

	fmt.Println()
	fmt.Println("🍔 Kiosk v" + version)
	fmt.Printf("   API:       http://localhost:%s/api\n", cfg.HTTPPort)
	fmt.Printf("   Sessions:  ws://localhost:%s/ws/kiosk/:id\n", cfg.HTTPPort)
	fmt.Printf("   Orders:    ws://localhost:%s/ws/orders\n", cfg.HTTPPort)
	fmt.Printf("   Metrics:   http://localhost:%s/metrics\n", cfg.HTTPPort)
	fmt.Println()

	logger.Info("starting",
		"port", cfg.HTTPPort,
		"database", cfg.Database.Driver,
		"carts", cfg.Database.CartBackend,
		"menu_items", menu.Len(),
		"assistant", provider != nil,
		"tts", voice != nil,
	)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}
