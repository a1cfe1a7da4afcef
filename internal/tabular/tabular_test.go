package tabular

import (
	"errors"
	"strings"
	"testing"

	"pesalens/internal/core"
)

func TestMapColumns(t *testing.T) {
	headers := []string{"Receipt No.", "Completion Time", "Details", "Transaction Status", "Paid In", "Withdrawn", "Balance"}
	m, err := MapColumns(headers)
	if err != nil {
		t.Fatalf("MapColumns: %v", err)
	}
	want := ColumnMap{Details: 2, PaidIn: 4, Withdrawn: 5, Date: 1}
	if m != want {
		t.Errorf("map = %+v, want %+v", m, want)
	}
}

func TestMapColumnsAcceptsDateHeader(t *testing.T) {
	m, err := MapColumns([]string{"Details", "Paid In", "Withdrawn", "Transaction Date"})
	if err != nil {
		t.Fatalf("MapColumns: %v", err)
	}
	if m.Date != 3 {
		t.Errorf("date column = %d, want 3", m.Date)
	}
}

func TestMapColumnsReportsAllMissing(t *testing.T) {
	_, err := MapColumns([]string{"Receipt No.", "Details", "Balance"})
	if err == nil {
		t.Fatal("expected error")
	}
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T", err)
	}
	// Every absent column in one message, not just the first.
	for _, col := range []string{"Paid In", "Withdrawn", "Completion Time"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q does not mention %q", err, col)
		}
	}
	if strings.Contains(err.Error(), "Details") {
		t.Errorf("error %q mentions a present column", err)
	}
}

func demoRows() [][]string {
	return [][]string{
		{"Receipt No.", "Completion Time", "Details", "Paid In", "Withdrawn"},
		{"TAB0000001", "2025-06-01 10:00:00", "Funds received from Emmanuel Muchiri", "50,000.00", ""},
		{"TAB0000002", "2025-06-02 12:00:00", "Pay Bill to 888880 - KPLC PREPAID", "", "2,500.00"},
		{"TAB0000003", "2025-06-03 09:00:00", "Customer Transfer to Mary Wambui", "", "8000"},
		{"TAB0000004", "2025-06-04 16:00:00", "Customer Transfer to Michael Mwenda", "", "5000"},
		{"TAB0000005", "2025-06-05 08:00:00", "Funds received from Michael Mwenda", "10000", ""},
	}
}

func TestProcessDemoRows(t *testing.T) {
	sum, err := NewAnalyzer("michael mwenda").Process(demoRows())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if sum.TotalRevenue != core.Shillings(50000) {
		t.Errorf("totalRevenue = %d cents, want 5000000", sum.TotalRevenue.Cents)
	}
	if sum.TotalExpenses != core.Shillings(10500) {
		t.Errorf("totalExpenses = %d cents, want 1050000", sum.TotalExpenses.Cents)
	}
	if sum.NetProfit != core.Shillings(39500) {
		t.Errorf("netProfit = %d cents, want 3950000", sum.NetProfit.Cents)
	}
	if sum.HustlerFund != core.Shillings(15000) {
		t.Errorf("hustlerFund = %d cents, want 1500000", sum.HustlerFund.Cents)
	}

	if got := sum.Categories[core.CategoryUtilities]; got != core.Shillings(2500) {
		t.Errorf("utilities = %d cents", got.Cents)
	}
	if got := sum.Categories[core.CategoryStaff]; got != core.Shillings(8000) {
		t.Errorf("staff = %d cents", got.Cents)
	}
	// Personal is the signed net of the owner's transfers: 10,000 in minus
	// 5,000 out.
	if got := sum.Categories[core.CategoryPersonal]; got != core.Shillings(5000) {
		t.Errorf("personal = %d cents, want 500000", got.Cents)
	}

	if got := sum.TopCustomers["Emmanuel Muchiri"]; got != core.Shillings(50000) {
		t.Errorf("topCustomers[Emmanuel Muchiri] = %d cents", got.Cents)
	}
	if got := sum.TopExpenses["Mary Wambui"]; got != core.Shillings(8000) {
		t.Errorf("topExpenses[Mary Wambui] = %d cents", got.Cents)
	}
	if sum.Rows != 5 || sum.Skipped != 0 {
		t.Errorf("rows = %d skipped = %d", sum.Rows, sum.Skipped)
	}
}

func TestProcessSkipsShortRows(t *testing.T) {
	rows := demoRows()
	rows = append(rows, []string{"TAB0000006", "2025-06-06"})
	sum, err := NewAnalyzer("michael mwenda").Process(rows)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sum.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", sum.Skipped)
	}
	if sum.TotalRevenue != core.Shillings(50000) {
		t.Errorf("totalRevenue changed: %d cents", sum.TotalRevenue.Cents)
	}
}

func TestProcessBothDirectionsRow(t *testing.T) {
	// A malformed row with money in both columns classifies as Revenue by
	// its inflow; the outflow must land in OtherExpense, never Revenue.
	rows := [][]string{
		{"Details", "Paid In", "Withdrawn", "Completion Time"},
		{"Funds received from Jane Doe", "1,000.00", "300.00", "2025-06-01 10:00:00"},
	}
	sum, err := NewAnalyzer().Process(rows)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if sum.TotalRevenue != core.Shillings(1000) {
		t.Errorf("totalRevenue = %d cents, want 100000", sum.TotalRevenue.Cents)
	}
	if sum.TotalExpenses != core.Shillings(300) {
		t.Errorf("totalExpenses = %d cents, want 30000", sum.TotalExpenses.Cents)
	}
	if got := sum.Categories[core.CategoryRevenue]; got != core.Shillings(1000) {
		t.Errorf("revenue bucket = %d cents, want 100000", got.Cents)
	}
	if got := sum.Categories[core.CategoryOtherExpense]; got != core.Shillings(300) {
		t.Errorf("otherExpense bucket = %d cents, want 30000", got.Cents)
	}
}

func TestProcessNoRows(t *testing.T) {
	var missing *MissingColumnsError
	if _, err := NewAnalyzer().Process(nil); !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
}

func TestParseCellAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64 // cents
	}{
		{"1000", 100000},
		{"1,000.00", 100000},
		{"999.50", 99950},
		{"  250 ", 25000},
		{"", 0},
		{"n/a", 0},
	}
	for _, tc := range cases {
		if got := parseCellAmount(tc.in); got.Cents != tc.want {
			t.Errorf("parseCellAmount(%q) = %d, want %d", tc.in, got.Cents, tc.want)
		}
	}
}
