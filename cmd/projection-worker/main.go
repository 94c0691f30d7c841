package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finplan/internal/cli"
	"finplan/internal/log"
	"finplan/internal/services"
	"finplan/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting projection-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the projection worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	exporter, err := cli.InitExporter(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err)
		os.Exit(1)
	}

	svc := services.NewProjectionService(repo, amqpClient, cli.ServiceConfig(cfg), logger)
	w := worker.NewProjectionWorker(svc, exporter, logger)

	logger.Info("Consuming projection requests", "queue", cfg.AMQPQueue, "export_backend", cfg.ExportBackend)
	if err := amqpClient.ConsumeProjectionRequests(ctx, w.HandleRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Projection worker stopped")
}
