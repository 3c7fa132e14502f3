package main

import (
	"context"
	"errors"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/docstore/memory"
	"fintrack/internal/services"
)

// sync-worker consumes document change events and mirrors the changed
// documents from the authoritative store into a local in-memory replica.
// Processes that want push-style updates subscribe to the replica.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting sync-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync-worker")
		os.Exit(1)
	}

	result := cli.OpenStore(context.Background(), logger, cfg)
	defer cli.CleanupStore(logger, result)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	replica := memory.New()
	processor := services.NewSyncProcessor(result.Store, replica)

	ctx, cancel := cli.NotifyShutdown(context.Background(), logger)
	defer cancel()

	// Cover any changes that happened while the consumer was down.
	logger.Info("Performing startup sync check")
	if err := processor.ReplayAll(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	logger.Info("Consuming document change events", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeDocumentChanges(ctx, func(msg *amqp.DocumentChangedMessage) error {
		return processor.HandleChange(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Sync-worker stopped gracefully")
}
