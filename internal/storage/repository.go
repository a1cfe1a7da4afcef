package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pesalens/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Statement is a stored statement upload.
type Statement struct {
	ID         int64
	Name       string
	RawText    string
	TxnCount   int
	CreatedAt  time.Time
	AnalyzedAt sql.NullTime
}

// AnalysisRun is the persisted summary of one analysis pass.
type AnalysisRun struct {
	ID            int64
	StatementID   int64
	Period        core.Period
	TotalRevenue  core.Money
	TotalExpenses core.Money
	TotalFees     core.Money
	NetProfit     core.Money
	OverallScore  int
	Status        string
	CreatedAt     time.Time
}

// Profile is the stored business profile. A single row, created by the
// initial migration.
type Profile struct {
	BusinessType  core.BusinessType
	OwnerKeywords []string
	RevenueTarget core.Money
	UpdatedAt     time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveStatement stores an uploaded statement and returns its ID.
func (r *SQLiteRepository) SaveStatement(ctx context.Context, name, rawText string, txnCount int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO statements (name, raw_text, txn_count) VALUES (?, ?, ?)`,
		name, rawText, txnCount)
	if err != nil {
		return 0, fmt.Errorf("insert statement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("statement insert id: %w", err)
	}

	slog.InfoContext(ctx, "Statement saved",
		"id", id,
		"name", name,
		"txn_count", txnCount)

	return id, nil
}

// GetStatement loads a statement by ID.
func (r *SQLiteRepository) GetStatement(ctx context.Context, id int64) (Statement, error) {
	var st Statement
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, raw_text, txn_count, created_at, analyzed_at
		 FROM statements WHERE id = ?`, id).
		Scan(&st.ID, &st.Name, &st.RawText, &st.TxnCount, &st.CreatedAt, &st.AnalyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Statement{}, fmt.Errorf("statement %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Statement{}, fmt.Errorf("get statement: %w", err)
	}
	return st, nil
}

// ListStatements returns the most recent statements, newest first.
func (r *SQLiteRepository) ListStatements(ctx context.Context, limit int) ([]Statement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, raw_text, txn_count, created_at, analyzed_at
		 FROM statements ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var out []Statement
	for rows.Next() {
		var st Statement
		if err := rows.Scan(&st.ID, &st.Name, &st.RawText, &st.TxnCount, &st.CreatedAt, &st.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetPendingStatements returns IDs of statements with no analysis yet, oldest
// first. Used by the worker's catch-up scan.
func (r *SQLiteRepository) GetPendingStatements(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM statements WHERE analyzed_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending statements: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending statement: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkAnalyzed records that a statement has at least one analysis run.
func (r *SQLiteRepository) MarkAnalyzed(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE statements SET analyzed_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark statement analyzed: %w", err)
	}
	slog.InfoContext(ctx, "Statement marked analyzed", "id", id)
	return nil
}

// SaveAnalysisRun persists an analysis run summary and returns its ID.
func (r *SQLiteRepository) SaveAnalysisRun(ctx context.Context, run AnalysisRun) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO analysis_runs
		 (statement_id, period, total_revenue_cents, total_expenses_cents,
		  total_fees_cents, net_profit_cents, overall_score, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StatementID, string(run.Period),
		run.TotalRevenue.Cents, run.TotalExpenses.Cents,
		run.TotalFees.Cents, run.NetProfit.Cents,
		run.OverallScore, run.Status)
	if err != nil {
		return 0, fmt.Errorf("insert analysis run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("analysis run insert id: %w", err)
	}

	slog.InfoContext(ctx, "Analysis run saved",
		"id", id,
		"statement_id", run.StatementID,
		"period", run.Period,
		"overall_score", run.OverallScore,
		"status", run.Status)

	return id, nil
}

// LatestRun returns the most recent analysis run for a statement.
func (r *SQLiteRepository) LatestRun(ctx context.Context, statementID int64) (AnalysisRun, error) {
	var run AnalysisRun
	var period string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, statement_id, period, total_revenue_cents, total_expenses_cents,
		        total_fees_cents, net_profit_cents, overall_score, status, created_at
		 FROM analysis_runs WHERE statement_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`, statementID).
		Scan(&run.ID, &run.StatementID, &period,
			&run.TotalRevenue.Cents, &run.TotalExpenses.Cents,
			&run.TotalFees.Cents, &run.NetProfit.Cents,
			&run.OverallScore, &run.Status, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AnalysisRun{}, fmt.Errorf("analysis run for statement %d: %w", statementID, ErrNotFound)
	}
	if err != nil {
		return AnalysisRun{}, fmt.Errorf("get latest run: %w", err)
	}
	run.Period = core.Period(period)
	return run, nil
}

// GetProfile loads the business profile.
func (r *SQLiteRepository) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	var businessType, keywords string
	err := r.db.QueryRowContext(ctx,
		`SELECT business_type, owner_keywords, revenue_target_cents, updated_at
		 FROM business_profile WHERE id = 1`).
		Scan(&businessType, &keywords, &p.RevenueTarget.Cents, &p.UpdatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.BusinessType = core.BusinessType(businessType)
	if keywords != "" {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				p.OwnerKeywords = append(p.OwnerKeywords, kw)
			}
		}
	}
	return p, nil
}

// UpdateProfile replaces the business profile.
func (r *SQLiteRepository) UpdateProfile(ctx context.Context, p Profile) error {
	if !p.BusinessType.IsValid() {
		return fmt.Errorf("update profile: invalid business type %q", p.BusinessType)
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE business_profile
		 SET business_type = ?, owner_keywords = ?, revenue_target_cents = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = 1`,
		string(p.BusinessType), strings.Join(p.OwnerKeywords, ","), p.RevenueTarget.Cents)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	slog.InfoContext(ctx, "Business profile updated",
		"business_type", p.BusinessType,
		"owner_keywords", len(p.OwnerKeywords))

	return nil
}
