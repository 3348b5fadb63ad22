package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/core"
	apphttp "budget/internal/http"
	"budget/internal/kv"
	"budget/internal/ledger"
	applog "budget/internal/log"
	"budget/internal/services"
)

const (
	viewCacheTTL       = 10 * time.Minute
	cacheSweepInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.SlogLevel())
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
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

	store := ledger.New(res.Store, ledger.WithLogger(logger.WithComponent(applog.ComponentLedger).Logger))
	views := cache.NewLRUCache[core.View](cfg.ViewCacheSize, viewCacheTTL)
	opts := []services.Option{
		services.WithLogger(logger.WithComponent(applog.ComponentTracker).Logger),
		services.WithViewCache(views),
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer client.Close()
		opts = append(opts, services.WithNotifier(client))
		logger.Info("Transaction events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Transaction events disabled - no AMQP_URL provided")
	}

	tracker := services.NewTracker(store, opts...)
	if err := tracker.Load(ctx); err != nil {
		return err
	}

	manager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	manager.Register(views)

	srv := apphttp.NewServer(":"+cfg.Port, tracker, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              backendReady(res.Store),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budget server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.RateLimiter().Run(gctx)
	})
	g.Go(func() error {
		return manager.Run(gctx, cacheSweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// backendReady reports the backend reachable when the ledger key can be read.
func backendReady(store kv.Store) apphttp.ReadyFunc {
	return func(ctx context.Context) error {
		_, err := store.Get(ctx, ledger.StorageKey)
		if err != nil && !errors.Is(err, kv.ErrNotFound) {
			return err
		}
		return nil
	}
}
