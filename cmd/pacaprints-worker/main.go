package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"pacaprints/internal/amqp"
	"pacaprints/internal/config"
	"pacaprints/internal/export"
	"pacaprints/internal/export/google"
	"pacaprints/internal/export/memory"
	applog "pacaprints/internal/log"
	"pacaprints/internal/storage"
	"pacaprints/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.Setup(applog.ParseLevel(os.Getenv("LOG_LEVEL")), "pacaprints-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ledger backend: Google Sheets when configured, in-memory otherwise so
	// local runs still exercise the full pipeline.
	var ledger export.LedgerWriter
	if cfg.LedgerSpreadsheetID != "" {
		client, err := google.New(ctx, cfg.LedgerSpreadsheetID, cfg.LedgerSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger", "error", err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.LedgerSpreadsheetID)
	} else {
		ledger = memory.New()
		logger.Info("Ledger export disabled - using in-memory writer (set LEDGER_SPREADSHEET_ID)")
	}

	ledgerWorker := worker.NewLedgerWorker(repo, ledger, cfg.SyncBatchSize)

	// Catch up on anything recorded while the worker was down.
	if err := ledgerWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup catch-up failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeLedgerSync(gctx, func(msg *amqp.LedgerSyncMessage) error {
				return ledgerWorker.HandleMessage(gctx, msg)
			})
		})
	} else {
		logger.Info("AMQP disabled - relying on the periodic catch-up scan only")
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := ledgerWorker.ProcessPending(gctx); err != nil {
					logger.Error("Periodic catch-up failed", "error", err)
				}
			}
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
	}()

	logger.Info("Worker started", "batch_size", cfg.SyncBatchSize, "interval", cfg.SyncInterval.String())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
