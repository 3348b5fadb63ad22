package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/config"
	applog "budget/internal/log"
	gsheet "budget/internal/sheets/google"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.SlogLevel())
	if err := cfg.ValidateSync(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	logger.Info("Starting budget-sync", "backend", cfg.DataBackend, "spreadsheet_id", cfg.GoogleSpreadsheetID)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Sync worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Sync worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close backend", "error", err)
		}
	}()

	sheetsClient, err := gsheet.NewClient(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("init google sheets client: %w", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer amqpClient.Close()

	w := worker.NewSyncWorker(res.Store, sheetsClient, logger.WithComponent(applog.ComponentWorker).Logger)

	// Recovers events missed while the worker was down.
	if err := w.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cli.IgnoreCanceled(amqpClient.ConsumeTransactionEvents(gctx, w.HandleEvent))
	})
	g.Go(func() error {
		return w.Run(gctx, cfg.SyncInterval)
	})
	return g.Wait()
}
