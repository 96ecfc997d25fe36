package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"traktsync/internal/shared"
)

// Setup creates the configuration file from the embedded template and
// initializes the history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlainln("✓ Setup complete")
	r.writePlain("Edit %s, then run 'traktsync auth login'.\n", configPath)
	return nil
}

// SetupImport converts a legacy trakt_config.txt into the TOML config.
func (r *Runner) SetupImport(ctx context.Context, cmd *cli.Command) error {
	legacyPath := cmd.StringArg("path")
	if legacyPath == "" {
		legacyPath = legacyConfigFile
	}
	configPath := cmd.String("config")

	config, err := shared.ParseLegacyConfig(legacyPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%w: %s already exists, remove it first", shared.ErrInvalidArgument, configPath)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return err
	}

	r.writePlainln("✓ Imported %s → %s", legacyPath, configPath)
	if config.Telegram.Enabled() {
		r.writePlain("Telegram credentials carried over.\n")
	}
	return nil
}
