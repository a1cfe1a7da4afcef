package statement

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pesalens/internal/core"
)

func TestParseSingleEntry(t *testing.T) {
	text := "ABCD123456 2025-06-01 10:00:00 Funds received from Jane Doe Completed 1,000.00 5,000.00"

	txns := Parse(text)
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}

	tx := txns[0]
	if tx.Receipt != "ABCD123456" {
		t.Errorf("receipt = %q", tx.Receipt)
	}
	if want := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC); !tx.Time.Equal(want) {
		t.Errorf("time = %v, want %v", tx.Time, want)
	}
	if tx.Description != "Funds received from Jane Doe" {
		t.Errorf("description = %q", tx.Description)
	}
	if tx.PaidIn != core.Shillings(1000) {
		t.Errorf("paidIn = %d cents", tx.PaidIn.Cents)
	}
	if !tx.Withdrawn.IsZero() {
		t.Errorf("withdrawn = %d cents, want 0", tx.Withdrawn.Cents)
	}
	if tx.Balance != core.Shillings(5000) {
		t.Errorf("balance = %d cents", tx.Balance.Cents)
	}
}

func TestParseNegativeAmountIsWithdrawal(t *testing.T) {
	text := "QWER987654 2025-06-02 09:15:00 Pay Bill to 888880 - KPLC PREPAID Completed -2,500.00 2,500.00"

	txns := Parse(text)
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Withdrawn != core.Shillings(2500) {
		t.Errorf("withdrawn = %d cents", txns[0].Withdrawn.Cents)
	}
	if !txns[0].PaidIn.IsZero() {
		t.Errorf("paidIn = %d cents, want 0", txns[0].PaidIn.Cents)
	}
}

func TestParseMultipleEntriesAcrossLineBreaks(t *testing.T) {
	// Extraction collapses table rows unpredictably; the parser must not
	// depend on line structure.
	text := "ABCD123456 2025-06-01 10:00:00 Funds received from Jane Doe\n" +
		"Completed   1,000.00  5,000.00\r\n" +
		"EFGH123456 2025-06-01 10:05:00 Customer Transfer to John Completed -200.00 4,800.00"

	txns := Parse(text)
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	if txns[0].Description != "Funds received from Jane Doe" {
		t.Errorf("first description = %q", txns[0].Description)
	}
	if txns[1].Withdrawn != core.Shillings(200) {
		t.Errorf("second withdrawn = %d cents", txns[1].Withdrawn.Cents)
	}
}

func TestParseSkipsSegmentsWithoutTwoNumbers(t *testing.T) {
	text := "ABCD123456 2025-06-01 10:00:00 Opening balance note " +
		"EFGH123456 2025-06-01 11:00:00 Funds received from Jane Completed 500.00 5,500.00"

	txns := Parse(text)
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Receipt != "EFGH123456" {
		t.Errorf("receipt = %q", txns[0].Receipt)
	}
}

func TestParseDescriptionFallback(t *testing.T) {
	// Marker precedes the description: the text before the marker is empty,
	// so the description falls back to the text before the amount token.
	text := "ABCD123456 2025-06-01 10:00:00 Completed Airtime Purchase -100.00 4,700.00"

	txns := Parse(text)
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Description != "Airtime Purchase" {
		t.Errorf("description = %q", txns[0].Description)
	}
}

func TestParseStripsStatusMarkerCaseInsensitively(t *testing.T) {
	text := "ABCD123456 2025-06-01 10:00:00 Funds received from Jane COMPLETED 500.00 5,500.00"

	txns := Parse(text)
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if got := txns[0].Description; strings.Contains(strings.ToLower(got), "completed") {
		t.Errorf("status marker not stripped: %q", got)
	}
}

func TestParseStatementEmptyVsUnrecognizable(t *testing.T) {
	if _, err := ParseStatement("this is not a statement at all"); !errors.Is(err, ErrNoTransactions) {
		t.Fatalf("expected ErrNoTransactions, got %v", err)
	}

	txns, err := ParseStatement("   \n  ")
	if err != nil {
		t.Fatalf("blank input should not error, got %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("blank input should yield no transactions, got %d", len(txns))
	}
}
