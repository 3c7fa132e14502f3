// Package cli provides common startup utilities shared by cmd/fintrack,
// cmd/recurring-worker, and cmd/sync-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/crypto"
)

// SetupLogger initializes structured logging with default settings and
// installs the logger as the process default.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// NewCipher derives the encryption key from configuration and builds the
// field cipher. Exits the process on failure.
func NewCipher(logger *slog.Logger, cfg *config.Config) *crypto.Cipher {
	key, err := cfg.EncryptionKey()
	if err != nil {
		logger.Error("Failed to derive encryption key", "error", err)
		os.Exit(1)
	}
	cipher, err := crypto.New(key)
	if err != nil {
		logger.Error("Failed to initialize cipher", "error", err)
		os.Exit(1)
	}
	return cipher
}

// OpenStore builds the configured document store backend.
// Exits the process on failure.
func OpenStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.Result {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize document store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// CleanupStore runs the backend cleanup function when one is set.
func CleanupStore(logger *slog.Logger, result *backend.Result) {
	if result.Cleanup == nil {
		return
	}
	if err := result.Cleanup(); err != nil {
		logger.Error("Store cleanup failed", "error", err)
	}
}

// OptionalAMQPClient connects to the broker when AMQP_URL is configured.
// A connection failure degrades to nil rather than aborting startup.
func OptionalAMQPClient(logger *slog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - document change events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, change events disabled", "error", err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
	return client
}

// NotifyShutdown cancels the returned context when SIGINT or SIGTERM
// arrives, logging the signal.
func NotifyShutdown(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
