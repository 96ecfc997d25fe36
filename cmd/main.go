package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"traktsync/internal/services"
	"traktsync/internal/shared"
)

// legacyConfigFile is the original newline-delimited config format, still
// read when no TOML config exists.
const legacyConfigFile = "trakt_config.txt"

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		}
	} else if _, err := os.Stat(legacyConfigFile); err == nil {
		if loaded, err := shared.ParseLegacyConfig(legacyConfigFile); err == nil {
			logger.Info("using legacy configuration, consider 'traktsync setup import'", "path", legacyConfigFile)
			config = loaded
		}
	}

	var watchlist services.WatchlistClient
	var library services.LibraryClient
	var notifier services.Notifier

	if config.Trakt.ClientID != "" && config.Trakt.ClientSecret != "" {
		store := services.NewTokenStore(config.Trakt.TokenPath)
		if svc, err := services.NewTraktService(config.Trakt, store, logger); err == nil {
			watchlist = svc
		}
	}

	if config.Plex.URL != "" && config.Plex.Token != "" {
		if svc, err := services.NewPlexService(config.Plex, logger); err == nil {
			library = svc
		}
	}

	if config.Telegram.Enabled() {
		if svc, err := services.NewTelegramService(config.Telegram, logger); err == nil {
			notifier = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Watchlist:  watchlist,
		Library:    library,
		Notifier:   notifier,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "traktsync",
		Usage:    "Sync Trakt list entries into Plex playlists",
		Version:  "1.0.0",
		Action:   runner.Sync, // bare invocation runs one full sync pass
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
