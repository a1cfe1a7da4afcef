package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pesalens/internal/amqp"
	"pesalens/internal/analysis"
	"pesalens/internal/cli"
	"pesalens/internal/core"
	"pesalens/internal/services"
	gsheet "pesalens/internal/sheets/google"
	"pesalens/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap("pesalens-worker")

	logger.Info("Starting pesalens-worker")

	repo := cli.OpenRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	opts := analysis.Options{
		LargeInflow:        core.Shillings(cfg.LargeInflowShillings),
		LargeWithdrawal:    core.Shillings(cfg.LargeWithdrawShillings),
		RecurringPrefixLen: cfg.RecurringPrefixLen,
	}
	svc := services.NewAnalyzerService(repo, nil, opts)

	w := worker.NewAnalysisWorker(svc, repo, amqpClient, cfg.AnalyzeBatchSize, cfg.AnalyzeInterval)

	// Spreadsheet ingestion is optional and only enabled when a sheet is
	// configured.
	if cfg.GoogleSpreadsheetID != "" {
		sheetClient, err := gsheet.NewClient(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetRange)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		w = w.WithSheetSource(sheetClient, cfg.OwnerKeywords...)
		logger.Info("Google Sheets source enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"range", cfg.GoogleSheetRange)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	ctx := cli.ShutdownContext(logger, 30*time.Second, nil)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
