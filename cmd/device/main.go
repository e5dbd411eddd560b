package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/app"
	"github.com/contactbook/backend/internal/client/fallback"
	"github.com/contactbook/backend/internal/client/ledger"
	"github.com/contactbook/backend/internal/client/navigation"
	"github.com/contactbook/backend/internal/client/platform"
	"github.com/contactbook/backend/internal/client/registration"
	"github.com/contactbook/backend/internal/client/serverapi"
	"github.com/contactbook/backend/internal/client/session"
	"github.com/contactbook/backend/internal/client/socket"
	"github.com/contactbook/backend/internal/config"
)

// device runs the client notification core headless: local notifications
// and navigation are logged, chat events come from the server websocket.
func main() {
	_ = godotenv.Load()

	cfg := config.LoadDevice()

	logger, err := initLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting device runtime",
		zap.String("server", cfg.ServerURL),
		zap.String("platform", cfg.Platform),
	)

	store := session.NewFileStore(cfg.SessionFile)
	server := serverapi.New(cfg.ServerURL, store, logger)
	console := platform.NewConsole(platform.ConsoleOptions{
		Platform:   cfg.Platform,
		PushToken:  cfg.PushToken,
		Emulator:   cfg.Emulator,
		LaunchData: launchData(cfg),
	}, logger)

	seen := ledger.New(cfg.LedgerCapacity)
	coord := navigation.NewCoordinator(console, cfg.LockDuration, logger)
	events := app.NewEvents(64)

	core := app.New(app.Deps{
		Ledger: seen,
		Registrar: registration.New(registration.Deps{
			Device:      console,
			Permissions: console,
			Tokens:      console,
			Channels:    console,
			Uploader:    server,
		}, logger),
		Fallback:    fallback.New(seen, console, console, logger),
		Coordinator: coord,
		Sequencer:   navigation.NewSequencer(coord, console, logger),
		Navigator:   console,
		Launch:      console,
		Identity:    store,
		Validator:   server,
		Sessions:    store,
	}, events, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go socket.New(cfg.ServerURL, store, cfg.ReconnectDelay, logger).Run(ctx, events.Socket)
	if cfg.Commands {
		go feedCommands(ctx, os.Stdin, events, logger)
	}

	// the headless shell has nothing to load and mounts at once
	events.FontsLoaded <- struct{}{}
	console.SetReady()
	events.NavigatorReady <- struct{}{}

	core.Run(ctx)
	logger.Info("Device runtime stopped",
		zap.Int("local_notifications", len(console.Shown())),
		zap.Int("seen_messages", seen.Len()),
	)
}

func initLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
