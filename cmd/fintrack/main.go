package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	cipher := cli.NewCipher(logger, cfg)
	result := cli.OpenStore(context.Background(), logger, cfg)
	defer cli.CleanupStore(logger, result)

	amqpClient := cli.OptionalAMQPClient(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	transactions := services.NewTransactionService(result.Store, cipher, amqpClient)
	accounts := services.NewAccountService(result.Store, cipher, amqpClient)
	categories := services.NewCategoryService(result.Store, cipher, amqpClient)
	recurring := services.NewRecurringProcessor(result.Store, cipher, transactions, cfg.RecurringBatchSize)

	srv := apphttp.NewServer(":"+cfg.Port, transactions, accounts, categories, recurring)
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := cli.NotifyShutdown(context.Background(), logger)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cancel()
	<-shutdownDone
	logger.Info("Server stopped gracefully")
}
