package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/auth"
	"finboard/internal/cli"
	"finboard/internal/finance"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
	"finboard/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

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

	// Events are optional. Keep the interface nil when the broker is
	// disabled so the record service skips publishing.
	var publisher services.Publisher
	amqpClient, err := cli.DialAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldOperation, log.OpStartup, log.FieldError, err)
		os.Exit(1)
	}
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	} else {
		logger.Info("AMQP disabled, record events will not be published")
	}

	srv, err := apphttp.NewServer(cfg, apphttp.Deps{
		Finance: finance.NewService(repo, logger),
		Records: services.NewRecordService(repo, publisher, logger),
		Gate:    auth.NewGate(repo, cfg.SessionTTL, logger),
		DB:      repo,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldOperation, log.OpStartup, log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finboard server", "port", cfg.Port, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
