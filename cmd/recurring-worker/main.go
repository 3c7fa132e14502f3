package main

import (
	"context"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	cipher := cli.NewCipher(logger, cfg)
	result := cli.OpenStore(context.Background(), logger, cfg)
	defer cli.CleanupStore(logger, result)

	amqpClient := cli.OptionalAMQPClient(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	transactions := services.NewTransactionService(result.Store, cipher, amqpClient)
	processor := services.NewRecurringProcessor(result.Store, cipher, transactions, cfg.RecurringBatchSize)

	ctx, cancel := cli.NotifyShutdown(context.Background(), logger)
	defer cancel()

	logger.Info("Recurring transaction processor configured",
		"interval", cfg.RecurringInterval,
		"batch_size", cfg.RecurringBatchSize,
		"backend", cfg.DataBackend)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// Run an initial pass on startup so due templates are not delayed by
	// one full interval.
	if count, err := processor.ProcessDue(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "transactions_created", count)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker stopped gracefully")
			return
		case now := <-ticker.C:
			count, err := processor.ProcessDue(ctx, now)
			if err != nil {
				logger.Error("Processing failed", "error", err)
				continue
			}
			if count > 0 {
				logger.Info("Processing complete", "transactions_created", count)
			}
		}
	}
}
