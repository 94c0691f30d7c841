package main

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"finplan/internal/cli"
	"finplan/internal/log"
	"finplan/internal/services"
)

// cronLogger routes cron's own messages through the structured logger.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{log.FieldError, err}, keysAndValues...)...)
}

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentScheduler)
	logger.Info("Starting refresh-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, runs will not be announced", log.FieldError, err)
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	svc := services.NewProjectionService(repo, cli.Publisher(amqpClient), cli.ServiceConfig(cfg), logger)

	ctx, done := cli.GracefulShutdown(logger, time.Minute, nil)

	refresh := func() {
		start := time.Now()
		n, err := svc.RefreshAll(ctx)
		fields := []any{
			log.FieldOperation, log.OpRefresh,
			"households", n,
			"duration", time.Since(start).String(),
		}
		if err != nil {
			logger.Error("Scheduled refresh finished with failures", append(fields, log.FieldError, err)...)
			return
		}
		logger.Info("Scheduled refresh finished", fields...)
	}

	cl := cronLogger{logger: logger}
	scheduler := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := scheduler.AddFunc(cfg.RefreshSchedule, refresh); err != nil {
		logger.Error("Invalid refresh schedule", log.FieldError, err, "schedule", cfg.RefreshSchedule)
		os.Exit(1)
	}

	logger.Info("Running startup refresh")
	refresh()

	scheduler.Start()
	logger.Info("Refresh scheduled",
		"schedule", cfg.RefreshSchedule,
		"concurrency", cfg.RefreshConcurrency)

	cli.WaitForShutdown(ctx, done)
	<-scheduler.Stop().Done()
	logger.Info("Refresh worker stopped")
}
