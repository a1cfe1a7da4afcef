// Package services orchestrates statement ingestion and analysis across
// storage and the AMQP job queue.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"pesalens/internal/analysis"
	"pesalens/internal/core"
	"pesalens/internal/statement"
	"pesalens/internal/storage"
)

// Store is the persistence surface the service needs.
type Store interface {
	SaveStatement(ctx context.Context, name, rawText string, txnCount int) (int64, error)
	GetStatement(ctx context.Context, id int64) (storage.Statement, error)
	MarkAnalyzed(ctx context.Context, id int64) error
	SaveAnalysisRun(ctx context.Context, run storage.AnalysisRun) (int64, error)
	GetProfile(ctx context.Context) (storage.Profile, error)
	UpdateProfile(ctx context.Context, p storage.Profile) error
}

// JobPublisher enqueues analysis jobs for the worker.
type JobPublisher interface {
	PublishAnalysisJob(ctx context.Context, statementID int64, period core.Period) error
}

// Report is the full output of one analysis pass over a stored statement.
type Report struct {
	StatementID     int64                     `json:"statementId"`
	Period          core.Period               `json:"period"`
	BusinessType    core.BusinessType         `json:"businessType"`
	Result          analysis.Result           `json:"result"`
	Score           analysis.HealthScore      `json:"score"`
	Recommendations []analysis.Recommendation `json:"recommendations"`
}

// AnalyzerService ties parsing, analysis and persistence together. The
// publisher is optional; without it ingestion simply skips job dispatch.
type AnalyzerService struct {
	store     Store
	publisher JobPublisher
	opts      analysis.Options
}

func NewAnalyzerService(store Store, publisher JobPublisher, opts analysis.Options) *AnalyzerService {
	return &AnalyzerService{
		store:     store,
		publisher: publisher,
		opts:      opts,
	}
}

// IngestStatement parses and stores raw statement text, then enqueues an
// analysis job. A publish failure is logged, not returned; the statement is
// already safe in storage.
func (s *AnalyzerService) IngestStatement(ctx context.Context, name, text string) (int64, int, error) {
	txns, err := statement.ParseStatement(text)
	if err != nil {
		return 0, 0, fmt.Errorf("parse statement: %w", err)
	}

	id, err := s.store.SaveStatement(ctx, name, text, len(txns))
	if err != nil {
		return 0, 0, fmt.Errorf("save statement: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "Job publisher not available, skipping analysis job", "statement_id", id)
		return id, len(txns), nil
	}
	if err := s.publisher.PublishAnalysisJob(ctx, id, core.PeriodAll); err != nil {
		slog.ErrorContext(ctx, "Failed to publish analysis job",
			"statement_id", id, "error", err)
	}

	return id, len(txns), nil
}

// Analyze loads a stored statement, runs the full pipeline and persists the
// run summary.
func (s *AnalyzerService) Analyze(ctx context.Context, statementID int64, period core.Period) (Report, error) {
	st, err := s.store.GetStatement(ctx, statementID)
	if err != nil {
		return Report{}, fmt.Errorf("load statement: %w", err)
	}

	txns, err := statement.ParseStatement(st.RawText)
	if err != nil {
		return Report{}, fmt.Errorf("parse statement %d: %w", statementID, err)
	}

	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load profile: %w", err)
	}

	classifier := analysis.NewClassifier(profile.OwnerKeywords...)
	res := analysis.NewAnalyzer(classifier, s.opts).Analyze(txns, period)
	score := analysis.Score(res, profile.BusinessType)
	recs := analysis.Recommend(res, score)

	run := storage.AnalysisRun{
		StatementID:   statementID,
		Period:        period,
		TotalRevenue:  res.TotalRevenue,
		TotalExpenses: res.TotalExpenses,
		TotalFees:     res.TotalFees,
		NetProfit:     res.NetProfit,
		OverallScore:  score.Overall,
		Status:        string(score.Status),
	}
	if _, err := s.store.SaveAnalysisRun(ctx, run); err != nil {
		return Report{}, fmt.Errorf("save analysis run: %w", err)
	}
	if err := s.store.MarkAnalyzed(ctx, statementID); err != nil {
		return Report{}, fmt.Errorf("mark analyzed: %w", err)
	}

	return Report{
		StatementID:     statementID,
		Period:          period,
		BusinessType:    profile.BusinessType,
		Result:          res,
		Score:           score,
		Recommendations: recs,
	}, nil
}

// Profile returns the stored business profile.
func (s *AnalyzerService) Profile(ctx context.Context) (storage.Profile, error) {
	return s.store.GetProfile(ctx)
}

// UpdateProfile replaces the stored business profile.
func (s *AnalyzerService) UpdateProfile(ctx context.Context, p storage.Profile) error {
	return s.store.UpdateProfile(ctx, p)
}

// Close closes the underlying store and publisher when they support it.
func (s *AnalyzerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close analyzer service: %v", errs)
	}
	return nil
}
