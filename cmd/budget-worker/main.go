package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
	"budget/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	checkInterval   = time.Hour
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting budget-worker", "backend", cfg.DataBackend)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	backend := cli.InitStore(context.Background(), logger, cfg)

	// Sheets export is optional
	var exporter sheets.TransactionExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ledgerWorker := worker.NewLedgerWorker(backend.Store, services.NewBudgetAggregator(backend.Store, backend.Store), exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", log.FieldError, err)
		}
		if err := backend.Cleanup(); err != nil {
			logger.Error("Failed to close data backend", log.FieldError, err)
		}
	})

	// Report anything that went over budget while the worker was down
	if err := ledgerWorker.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup budget check", log.FieldError, err)
	}

	go func() {
		err := amqpClient.ConsumeLedgerEvents(ctx, ledgerWorker.HandleLedgerEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Ledger event consumption failed", log.FieldError, err)
		}
	}()

	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, err := ledgerWorker.CheckMonth(ctx, core.DateOf(now).MonthStart()); err != nil {
					logger.Error("Periodic budget check failed", log.FieldError, err)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
