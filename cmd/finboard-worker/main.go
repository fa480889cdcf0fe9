package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/cli"
	"finboard/internal/finance"
	"finboard/internal/log"
	"finboard/internal/worker"
)

const statsInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker",
			log.FieldOperation, log.OpStartup,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	repo, err := cli.OpenRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open repository",
			log.FieldOperation, log.OpStartup,
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := cli.DialAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldOperation, log.OpStartup, log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	summaries := worker.NewSummaryWorker(finance.NewService(repo, logger), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeRecordEvents(gctx, summaries.HandleRecordEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				stats := summaries.Stats()
				logger.Info("Worker stats",
					"refreshed", stats.Refreshed,
					"dropped", stats.Dropped,
					"failed", stats.Failed)
			}
		}
	})

	logger.Info("Starting finboard-worker", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldOperation, log.OpConsume, log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
