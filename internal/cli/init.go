// Package cli consolidates the initialization shared by cmd/wealthwise and
// cmd/wealthwise-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"wealthwise/internal/config"
	applog "wealthwise/internal/log"
	"wealthwise/internal/remote"
)

// Bootstrap loads the .env file, configuration, and logger for a binary.
// Exits the process on invalid configuration.
func Bootstrap(component string) (*applog.Logger, *config.Config) {
	// .env is optional; production supplies real environment variables.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: component,
		JSON:      cfg.LogJSON,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	return logger, cfg
}

// ConnectRemote builds the configured remote backend or exits the process.
func ConnectRemote(logger *applog.Logger, cfg *config.Config) *remote.Result {
	result, err := remote.Connect(remote.Config{
		Kind:            remote.Kind(cfg.RemoteBackend),
		SupabaseURL:     cfg.SupabaseURL,
		SupabaseAnonKey: cfg.SupabaseAnonKey,
	}, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize remote backend", "error", err, "backend", cfg.RemoteBackend)
		os.Exit(1)
	}
	return result
}
