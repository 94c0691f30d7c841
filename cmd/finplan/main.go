package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finplan/internal/cache"
	"finplan/internal/cli"
	apphttp "finplan/internal/http"
	"finplan/internal/log"
	"finplan/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	logger.Info("Starting finplan server", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, refresh requests disabled", log.FieldError, err)
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	svc := services.NewProjectionService(repo, cli.Publisher(amqpClient), cli.ServiceConfig(cfg), logger)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(svc.Cache())

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.ServerConfig{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              repo.Ping,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})
	cacheManager.StartCleanup(ctx, 10*time.Minute)

	logger.Info("Listening", "port", cfg.Port, "export_backend", cfg.ExportBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	cacheManager.Stop()
	logger.Info("Server stopped gracefully")
}
