package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/xpanvictor/aria/internal/app"
	"github.com/xpanvictor/aria/internal/config"
	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/audio/device"
)

// Entry point for the voice assistant.
// Loads configuration, wires the audio and model stack, runs the loop.
func main() {
	// fetch cfg
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// load global logger
	logger := Logger.New(cfg.Debug)
	logger.Info("Logger initialized")

	// stop on Ctrl-C or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, device.ErrNoUsableInputDevice) {
			logger.Fatalf("Cannot start without a microphone: %v", err)
		}
		logger.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Conversation ended with error: %v", err)
	}
	logger.Info("Shutdown system")
}
