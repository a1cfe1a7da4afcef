package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pesalens/internal/analysis"
	"pesalens/internal/core"
	"pesalens/internal/statement"
	"pesalens/internal/storage"
)

const demoText = `ABCD000001 2025-06-01 10:00:00 Funds received from Jane Doe Completed 1,000.00 5,000.00
ABCD000002 2025-06-02 09:00:00 Customer Transfer to Supplier Completed -400.00 4,600.00
ABCD000003 2025-06-02 09:00:05 Transaction Charge Completed -7.00 4,593.00`

type fakeStore struct {
	statements map[int64]storage.Statement
	runs       []storage.AnalysisRun
	analyzed   map[int64]bool
	profile    storage.Profile
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		statements: map[int64]storage.Statement{},
		analyzed:   map[int64]bool{},
		profile:    storage.Profile{BusinessType: core.Retail},
	}
}

func (f *fakeStore) SaveStatement(_ context.Context, name, rawText string, txnCount int) (int64, error) {
	f.nextID++
	f.statements[f.nextID] = storage.Statement{
		ID: f.nextID, Name: name, RawText: rawText, TxnCount: txnCount,
	}
	return f.nextID, nil
}

func (f *fakeStore) GetStatement(_ context.Context, id int64) (storage.Statement, error) {
	st, ok := f.statements[id]
	if !ok {
		return storage.Statement{}, fmt.Errorf("statement %d: %w", id, storage.ErrNotFound)
	}
	return st, nil
}

func (f *fakeStore) MarkAnalyzed(_ context.Context, id int64) error {
	f.analyzed[id] = true
	return nil
}

func (f *fakeStore) SaveAnalysisRun(_ context.Context, run storage.AnalysisRun) (int64, error) {
	f.runs = append(f.runs, run)
	return int64(len(f.runs)), nil
}

func (f *fakeStore) GetProfile(_ context.Context) (storage.Profile, error) {
	return f.profile, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, p storage.Profile) error {
	f.profile = p
	return nil
}

type fakePublisher struct {
	jobs []int64
	err  error
}

func (f *fakePublisher) PublishAnalysisJob(_ context.Context, statementID int64, _ core.Period) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, statementID)
	return nil
}

func TestIngestStatement(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewAnalyzerService(store, pub, analysis.Options{})

	id, count, err := svc.IngestStatement(context.Background(), "june.txt", demoText)
	if err != nil {
		t.Fatalf("IngestStatement: %v", err)
	}
	if id != 1 || count != 2 {
		t.Errorf("id = %d count = %d, want 1 and 2", id, count)
	}
	if store.statements[1].RawText != demoText {
		t.Error("raw text not stored")
	}
	if len(pub.jobs) != 1 || pub.jobs[0] != 1 {
		t.Errorf("published jobs = %v", pub.jobs)
	}
}

func TestIngestUnrecognizableStatement(t *testing.T) {
	store := newFakeStore()
	svc := NewAnalyzerService(store, &fakePublisher{}, analysis.Options{})

	_, _, err := svc.IngestStatement(context.Background(), "junk.txt", "this is not a statement")
	if !errors.Is(err, statement.ErrNoTransactions) {
		t.Fatalf("err = %v, want ErrNoTransactions", err)
	}
	if len(store.statements) != 0 {
		t.Error("unparseable statement must not be stored")
	}
}

func TestIngestPublishFailureIsNonFatal(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewAnalyzerService(store, pub, analysis.Options{})

	id, _, err := svc.IngestStatement(context.Background(), "june.txt", demoText)
	if err != nil {
		t.Fatalf("publish failure must not fail ingestion: %v", err)
	}
	if _, ok := store.statements[id]; !ok {
		t.Error("statement not stored")
	}
}

func TestIngestWithoutPublisher(t *testing.T) {
	svc := NewAnalyzerService(newFakeStore(), nil, analysis.Options{})
	if _, _, err := svc.IngestStatement(context.Background(), "june.txt", demoText); err != nil {
		t.Fatalf("IngestStatement without publisher: %v", err)
	}
}

func TestAnalyzePersistsRun(t *testing.T) {
	store := newFakeStore()
	svc := NewAnalyzerService(store, nil, analysis.Options{})

	id, _, err := svc.IngestStatement(context.Background(), "june.txt", demoText)
	if err != nil {
		t.Fatalf("IngestStatement: %v", err)
	}

	report, err := svc.Analyze(context.Background(), id, core.PeriodAll)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Result.TotalRevenue != core.Shillings(1000) {
		t.Errorf("totalRevenue = %d cents", report.Result.TotalRevenue.Cents)
	}
	if report.Result.TotalExpenses != core.Shillings(400) {
		t.Errorf("totalExpenses = %d cents", report.Result.TotalExpenses.Cents)
	}
	if report.Result.TotalFees != core.Shillings(7) {
		t.Errorf("totalFees = %d cents", report.Result.TotalFees.Cents)
	}
	if report.BusinessType != core.Retail {
		t.Errorf("businessType = %s", report.BusinessType)
	}

	if len(store.runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(store.runs))
	}
	run := store.runs[0]
	if run.StatementID != id || run.Period != core.PeriodAll {
		t.Errorf("run = %+v", run)
	}
	if run.OverallScore != report.Score.Overall || run.Status != string(report.Score.Status) {
		t.Errorf("run score %d/%s != report %d/%s", run.OverallScore, run.Status, report.Score.Overall, report.Score.Status)
	}
	if !store.analyzed[id] {
		t.Error("statement not marked analyzed")
	}
}

func TestAnalyzeMissingStatement(t *testing.T) {
	svc := NewAnalyzerService(newFakeStore(), nil, analysis.Options{})
	if _, err := svc.Analyze(context.Background(), 99, core.PeriodAll); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCloseWithNilComponents(t *testing.T) {
	svc := NewAnalyzerService(newFakeStore(), nil, analysis.Options{})
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
