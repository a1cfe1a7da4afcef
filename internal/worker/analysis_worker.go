// Package worker runs statement analysis in the background: it consumes
// queued jobs from AMQP and periodically sweeps for statements the queue
// may have missed.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pesalens/internal/amqp"
	"pesalens/internal/core"
	"pesalens/internal/services"
	"pesalens/internal/sheets"
	"pesalens/internal/tabular"
)

// PendingLister exposes IDs of statements still waiting for analysis.
type PendingLister interface {
	GetPendingStatements(ctx context.Context, limit int) ([]int64, error)
}

// JobConsumer delivers queued analysis jobs to a handler until the context
// ends.
type JobConsumer interface {
	ConsumeForever(ctx context.Context, handler func(*amqp.AnalysisJobMessage) error) error
}

// AnalysisWorker handles queued analysis jobs and the pending-statement
// catch-up sweep. An optional sheet source adds a spreadsheet analysis pass
// on the same schedule.
type AnalysisWorker struct {
	service   *services.AnalyzerService
	pending   PendingLister
	consumer  JobConsumer
	rows      sheets.RowSource
	tab       *tabular.Analyzer
	batchSize int
	interval  time.Duration
}

func NewAnalysisWorker(service *services.AnalyzerService, pending PendingLister, consumer JobConsumer, batchSize int, interval time.Duration) *AnalysisWorker {
	return &AnalysisWorker{
		service:   service,
		pending:   pending,
		consumer:  consumer,
		batchSize: batchSize,
		interval:  interval,
	}
}

// WithSheetSource enables the periodic spreadsheet analysis pass. Owner
// keywords feed the personal-transfer check of the spreadsheet classifier.
func (w *AnalysisWorker) WithSheetSource(rows sheets.RowSource, ownerKeywords ...string) *AnalysisWorker {
	w.rows = rows
	w.tab = tabular.NewAnalyzer(ownerKeywords...)
	return w
}

// HandleJob processes a single analysis job message from AMQP.
func (w *AnalysisWorker) HandleJob(ctx context.Context, msg *amqp.AnalysisJobMessage) error {
	slog.InfoContext(ctx, "Processing analysis job",
		"statement_id", msg.StatementID,
		"period", msg.Period)

	report, err := w.service.Analyze(ctx, msg.StatementID, msg.Period)
	if err != nil {
		return fmt.Errorf("analyze statement %d: %w", msg.StatementID, err)
	}

	slog.InfoContext(ctx, "Analysis completed",
		"statement_id", msg.StatementID,
		"period", msg.Period,
		"net_profit_cents", report.Result.NetProfit.Cents,
		"score", report.Score.Overall,
		"status", report.Score.Status,
		"recommendations", len(report.Recommendations))

	return nil
}

// ProcessPending analyzes statements that never got a queue delivery. This
// is a backup mechanism in case AMQP messages are lost.
func (w *AnalysisWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.pending.GetPendingStatements(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending statements: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending statements", "count", len(ids))

	for _, id := range ids {
		if _, err := w.service.Analyze(ctx, id, core.PeriodAll); err != nil {
			slog.ErrorContext(ctx, "Failed to analyze pending statement",
				"statement_id", id, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck analyzes any backlog at worker start, with a larger batch
// than the periodic sweep, to recover from worker downtime.
func (w *AnalysisWorker) StartupCheck(ctx context.Context) error {
	ids, err := w.pending.GetPendingStatements(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending statements for startup check: %w", err)
	}
	if len(ids) == 0 {
		slog.InfoContext(ctx, "No pending statements found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending statements on startup, processing...",
		"count", len(ids))

	analyzed := 0
	failed := 0
	for _, id := range ids {
		if _, err := w.service.Analyze(ctx, id, core.PeriodAll); err != nil {
			slog.ErrorContext(ctx, "Failed to analyze statement during startup",
				"statement_id", id, "error", err)
			failed++
			continue
		}
		analyzed++
	}

	slog.InfoContext(ctx, "Startup check completed",
		"total", len(ids),
		"analyzed", analyzed,
		"errors", failed)

	return nil
}

// SyncSheet runs one spreadsheet analysis pass when a sheet source is
// configured.
func (w *AnalysisWorker) SyncSheet(ctx context.Context) error {
	if w.rows == nil {
		return nil
	}

	rows, err := w.rows.ReadRows(ctx)
	if err != nil {
		return fmt.Errorf("read sheet rows: %w", err)
	}

	sum, err := w.tab.Process(rows)
	if err != nil {
		return fmt.Errorf("process sheet rows: %w", err)
	}

	slog.InfoContext(ctx, "Spreadsheet analysis completed",
		"rows", sum.Rows,
		"skipped", sum.Skipped,
		"revenue_cents", sum.TotalRevenue.Cents,
		"expenses_cents", sum.TotalExpenses.Cents,
		"net_profit_cents", sum.NetProfit.Cents,
		"hustler_fund_cents", sum.HustlerFund.Cents)

	return nil
}

// Run drives the worker: the AMQP consumer and the periodic sweep run
// concurrently until the context ends or one of them fails.
func (w *AnalysisWorker) Run(ctx context.Context) error {
	if err := w.StartupCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup check failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.consumer.ConsumeForever(ctx, func(msg *amqp.AnalysisJobMessage) error {
			return w.HandleJob(ctx, msg)
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
				}
				if err := w.SyncSheet(ctx); err != nil {
					slog.ErrorContext(ctx, "Sheet sync failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
