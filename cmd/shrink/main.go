package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bnema/shrink/config"
	ffmpegadapter "github.com/bnema/shrink/internal/adapter/encoder/ffmpeg"
	sqlitestore "github.com/bnema/shrink/internal/adapter/storage/sqlite"
	"github.com/bnema/shrink/internal/adapter/transport/telegram"
	"github.com/bnema/shrink/internal/infrastructure/logger"
	"github.com/bnema/shrink/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting shrink (target=%dp, preset=%s, crf=%d)",
		cfg.TargetHeight, cfg.Preset, cfg.CRF)

	for _, dir := range []string{cfg.TempDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error.Printf("failed to create directory %s: %v", dir, err)
			os.Exit(1)
		}
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to create store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	transport, err := telegram.New(cfg.BotToken, cfg.ChunkSize)
	if err != nil {
		logger.Error.Printf("failed to connect transport: %v", err)
		os.Exit(1)
	}

	encoder := ffmpegadapter.NewEncoder()
	workspaces := service.NewWorkspaceManager(cfg.TempDir)
	tracker := service.NewTracker()
	queue := service.NewQueue()

	pipeline := service.NewPipeline(transport, encoder, workspaces, tracker, cfg)
	driver := service.NewDriver(queue, pipeline, tracker, transport, store)
	bot := service.NewBot(queue, driver, transport, store, cfg)
	transport.Attach(bot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	driver.Start(ctx)

	// Graceful shutdown: stop polling, let the in-flight run finish its
	// cleanup through the driver loop.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)
		transport.Stop()
		cancel()
	}()

	logger.Info.Printf("bot is running, waiting for events")
	transport.Start()
	logger.Info.Printf("shutdown complete")
}
