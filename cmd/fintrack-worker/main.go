package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/persistence"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to this process; the report will only show seed data")
	}

	result := cli.InitBackend(context.Background(), logger, cfg)
	defer result.Close()
	loader := persistence.NewAdapter(result.Slot, cfg.StorageKey,
		logger.Logger.With(log.FieldComponent, log.ComponentStorage))

	writer, err := newReportWriter(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize report writer", log.FieldError, err)
		os.Exit(1)
	}

	exporter := worker.NewExportWorker(loader, writer, logger)

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - exporting on the interval only", "interval", cfg.ExportInterval)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exporter.Run(gctx, cfg.ExportInterval)
	})
	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumeLedgerChanges(gctx, exporter.HandleLedgerChange)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete",
		"exports", exporter.Exports(),
		log.FieldRevision, exporter.LastRevision(),
		"last_export_at", exporter.LastExportAt())
}

// newReportWriter returns the Google Sheets writer when a spreadsheet is
// configured, otherwise an in-memory writer that only logs.
func newReportWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.ReportWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, reports kept in memory")
		return memory.New(), nil
	}

	creds, err := gsheet.LoadCredentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		TransactionsSheet: cfg.GoogleTransactionsSheet,
		SummarySheet:      cfg.GoogleSummarySheet,
		CredentialsJSON:   creds,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
