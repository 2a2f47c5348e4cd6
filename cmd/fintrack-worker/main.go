package main

import (
	"context"
	"errors"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker, nil)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.GracefulShutdown(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	// The SQLite mirror is always written; it deduplicates redelivered events.
	repo := cli.InitSQLite(logger, cfg.SQLiteMirrorPath)
	defer repo.Close()

	targets := []worker.Target{{Name: "sqlite", Writer: repo}}

	if cfg.SheetsEnabled() {
		sheetsClient, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return err
		}
		if err := sheetsClient.EnsureHeader(ctx); err != nil {
			logger.Warn("Failed to prepare Google Sheets mirror", log.FieldError, err)
		}
		targets = append(targets, worker.Target{Name: "sheets", Writer: sheetsClient})
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		checkDrift(ctx, logger, repo, sheetsClient)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	if n, err := repo.Count(ctx); err == nil {
		logger.Info("SQLite mirror ready", log.FieldCount, n, "path", cfg.SQLiteMirrorPath)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(logger, targets...)
	logger.Info("Mirroring entries", "targets", mirror.Targets())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeEntryRecorded(gctx, mirror.HandleEntryRecorded)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		return nil
	})

	return g.Wait()
}

// checkDrift compares the two mirrors at startup. Entries lost while the
// worker was down show up as a count mismatch.
func checkDrift(ctx context.Context, logger *log.Logger, repo *storage.SQLiteRepository, sheetsClient *gsheet.Client) {
	stored, err := repo.Count(ctx)
	if err != nil {
		logger.Warn("Failed to count SQLite mirror", log.FieldError, err)
		return
	}
	rows, err := sheetsClient.ListEntries(ctx)
	if err != nil {
		logger.Warn("Failed to read Google Sheets mirror", log.FieldError, err)
		return
	}
	if int64(len(rows)) != stored {
		logger.Warn("Mirrors out of sync", "sqlite", stored, "sheets", len(rows))
		return
	}
	logger.Info("Mirrors in sync", log.FieldCount, stored)
}
