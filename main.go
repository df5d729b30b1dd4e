package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/hunterjsb/warwatch/internal/city"
	"github.com/hunterjsb/warwatch/internal/discord"
	"github.com/hunterjsb/warwatch/internal/store"
)

func main() {
	// Layered config. godotenv never overrides what is already set, so the
	// precedence is OS environment, then .env.secret, then .env.
	for _, name := range []string{".env.secret", ".env"} {
		if err := godotenv.Load(name); err != nil {
			fmt.Printf("Warning: error loading %s: %v\n", name, err)
			fmt.Println("Continuing with environment variables from system...")
		}
	}

	config, err := discord.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(config)
	if err != nil {
		fmt.Printf("Could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("logger initialized")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := store.New(ctx, config.AWSRegion, config.EventTablePrefix, config.SiegeTableName)
	if err != nil {
		logger.Error("failed to initialize store session", "err", err)
		os.Exit(1)
	}
	logger.Debug("initialized store session", "region", config.AWSRegion)

	registry := city.NewRegistry()
	refresher := city.NewRefresher(registry, db, logger.With("component", "refresh"))

	// First pass so commands have data before the first scheduled refresh.
	refresher.RefreshEvents(ctx)
	refresher.RefreshSiegeWindows(ctx)

	bot, err := discord.NewBot(config, registry, refresher, logger.With("component", "bot"))
	if err != nil {
		logger.Error("error creating bot", "err", err)
		os.Exit(1)
	}
	if err := bot.Start(); err != nil {
		logger.Error("error starting bot", "err", err)
		os.Exit(1)
	}

	setupCloseHandler(logger, func() error {
		logger.Info("shutting down bot")
		return bot.Stop()
	})

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	select {}
}

// setupCloseHandler catches SIGINT and SIGTERM and runs the cleanup before
// exiting.
func setupCloseHandler(logger *log.Logger, cleanup func() error) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		if err := cleanup(); err != nil {
			logger.Error("error during cleanup", "err", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
}

// newLogger builds the file-backed logger every component shares.
func newLogger(config *discord.Config) (*log.Logger, error) {
	out := os.Stderr
	if config.LogFileName != "" {
		f, err := os.OpenFile(config.LogFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", config.LogFileName, err)
		}
		out = f
	}
	return log.NewWithOptions(out, log.Options{
		Prefix:          config.LoggerName,
		Level:           log.DebugLevel,
		ReportTimestamp: true,
	}), nil
}
