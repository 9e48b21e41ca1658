package main

import (
	"context"
	"errors"
	"os"
	"time"

	"proyeksi/internal/amqp"
	"proyeksi/internal/cli"
	"proyeksi/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting proyeksi-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	activityWorker := worker.NewActivityWorker(repo, 0)

	go activityWorker.RunPruneLoop(ctx, 24*time.Hour)

	go func() {
		err := amqpClient.ConsumeEntityEvents(ctx, func(ev *amqp.EntityEvent) error {
			return activityWorker.HandleEntityEvent(ctx, ev)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
