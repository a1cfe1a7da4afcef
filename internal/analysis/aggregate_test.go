package analysis

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"pesalens/internal/core"
)

// demoTransactions is the canonical regression fixture: ten consolidated
// transactions over eight days in June 2025 with known totals
// (revenue KES 115,000, expenses KES 55,000, fees KES 435).
func demoTransactions() []core.Transaction {
	mk := func(receipt, ts, desc string, paidIn, withdrawn, fees int64) core.Transaction {
		when, err := time.Parse("2006-01-02 15:04:05", ts)
		if err != nil {
			panic(err)
		}
		tx := core.Transaction{
			RawTransaction: core.RawTransaction{
				Receipt:     receipt,
				Time:        when,
				Description: desc,
				PaidIn:      core.Shillings(paidIn),
				Withdrawn:   core.Shillings(withdrawn),
			},
			Fees: core.Shillings(fees),
		}
		tx.TotalCost = tx.Amount().Add(tx.Fees)
		return tx
	}

	return []core.Transaction{
		mk("DEMO100001", "2025-06-01 10:00:00", "Funds received from Emmanuel Muchiri", 50000, 0, 0),
		mk("DEMO100002", "2025-06-02 12:00:00", "Pay Bill to 888880 - KPLC PREPAID", 0, 2500, 35),
		mk("DEMO100003", "2025-06-03 09:30:00", "Merchant Payment to PAKIR ENTERPRISES", 0, 15000, 50),
		mk("DEMO100004", "2025-06-03 14:00:00", "Funds received from John Doe", 30000, 0, 0),
		mk("DEMO100005", "2025-06-04 16:20:00", "Pay Bill to 544544 - DATA VIBEZ", 0, 1000, 15),
		mk("DEMO100006", "2025-06-05 08:00:00", "Withdraw Cash at Agent", 0, 16000, 240),
		mk("DEMO100007", "2025-06-05 10:00:00", "Funds received from Emmanuel Muchiri", 20000, 0, 0),
		mk("DEMO100008", "2025-06-06 11:00:00", "Pay Bill to 888880 - KPLC PREPAID", 0, 2500, 35),
		mk("DEMO100009", "2025-06-07 15:00:00", "Funds received from Jane Smith", 15000, 0, 0),
		mk("DEMO100010", "2025-06-08 09:00:00", "Merchant Payment to PAKIR ENTERPRISES", 0, 18000, 60),
	}
}

func demoAnalyzer() *Analyzer {
	// Reference time just after the fixture window so period filters are
	// deterministic.
	return NewAnalyzer(NewClassifier("michael mwenda"), Options{
		Now: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	})
}

func TestAnalyzeDemoFixtureTotals(t *testing.T) {
	res := demoAnalyzer().Analyze(demoTransactions(), core.PeriodAll)

	if res.TotalRevenue != core.Shillings(115000) {
		t.Errorf("totalRevenue = %d cents, want 11500000", res.TotalRevenue.Cents)
	}
	if res.TotalExpenses != core.Shillings(55000) {
		t.Errorf("totalExpenses = %d cents, want 5500000", res.TotalExpenses.Cents)
	}
	if res.TotalFees != core.Shillings(435) {
		t.Errorf("totalFees = %d cents, want 43500", res.TotalFees.Cents)
	}
	if res.NetProfit != core.Shillings(60000) {
		t.Errorf("netProfit = %d cents, want 6000000", res.NetProfit.Cents)
	}

	wantMargin := 60000.0 / 115000.0 * 100
	if diff := res.ProfitMargin - wantMargin; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("profitMargin = %f, want %f", res.ProfitMargin, wantMargin)
	}
	wantFeeRatio := 435.0 / 115000.0 * 100
	if diff := res.FeeRatio - wantFeeRatio; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("feeRatio = %f, want %f", res.FeeRatio, wantFeeRatio)
	}
	if res.LoanEstimate != core.Shillings(34500) {
		t.Errorf("loanEstimate = %d cents, want 3450000", res.LoanEstimate.Cents)
	}
}

func TestAnalyzeDemoFixtureCategories(t *testing.T) {
	res := demoAnalyzer().Analyze(demoTransactions(), core.PeriodAll)

	want := map[core.Category]int64{
		core.CategoryRevenue:      115000,
		core.CategoryUtilities:    5000,
		core.CategoryStock:        33000,
		core.CategoryData:         1000,
		core.CategoryRent:         0,
		core.CategoryOtherExpense: 16000,
		core.CategoryPersonal:     0,
	}
	for cat, units := range want {
		if got := res.Categories[cat]; got != core.Shillings(units) {
			t.Errorf("categories[%s] = %d cents, want %d", cat, got.Cents, units*100)
		}
	}

	// Category sums partition revenue+expenses (Personal aside).
	var sum int64
	for cat, amount := range res.Categories {
		if cat != core.CategoryPersonal {
			sum += amount.Cents
		}
	}
	if sum != res.TotalRevenue.Cents+res.TotalExpenses.Cents {
		t.Errorf("category sum %d != revenue+expenses %d", sum, res.TotalRevenue.Cents+res.TotalExpenses.Cents)
	}
}

func TestAnalyzeDemoFixtureCounterparties(t *testing.T) {
	res := demoAnalyzer().Analyze(demoTransactions(), core.PeriodAll)

	if got := res.Customers["Emmanuel Muchiri"]; got != core.Shillings(70000) {
		t.Errorf("customers[Emmanuel Muchiri] = %d cents", got.Cents)
	}
	if got := res.Customers["John Doe"]; got != core.Shillings(30000) {
		t.Errorf("customers[John Doe] = %d cents", got.Cents)
	}
	if got := res.Vendors["PAKIR ENTERPRISES"]; got != core.Shillings(33000) {
		t.Errorf("vendors[PAKIR ENTERPRISES] = %d cents", got.Cents)
	}
	if got := res.Vendors["Withdraw Cash at Agent"]; got != core.Shillings(16000) {
		t.Errorf("vendors[Withdraw Cash at Agent] = %d cents", got.Cents)
	}
}

func TestAnalyzeDemoFixtureAnomalies(t *testing.T) {
	res := demoAnalyzer().Analyze(demoTransactions(), core.PeriodAll)

	var inflows, withdrawals int
	for _, a := range res.Anomalies {
		switch a.Kind {
		case AnomalyLargeInflow:
			inflows++
		case AnomalyLargeWithdrawal:
			withdrawals++
		}
	}
	// Inflows above 10,000: 50k, 30k, 20k, 15k. Withdrawals above 15,000:
	// 16k and 18k (15k itself is not flagged; the threshold is strict).
	if inflows != 4 {
		t.Errorf("large inflows = %d, want 4", inflows)
	}
	if withdrawals != 2 {
		t.Errorf("large withdrawals = %d, want 2", withdrawals)
	}

	// Anomalies appear in transaction order.
	if res.Anomalies[0].Amount != core.Shillings(50000) {
		t.Errorf("first anomaly = %d cents", res.Anomalies[0].Amount.Cents)
	}
}

func TestAnalyzeDemoFixtureRecurring(t *testing.T) {
	res := demoAnalyzer().Analyze(demoTransactions(), core.PeriodAll)

	// Only the KPLC payment repeats with the same prefix and amount.
	if len(res.Recurring) != 1 {
		t.Fatalf("recurring = %d patterns, want 1", len(res.Recurring))
	}
	p := res.Recurring[0]
	if p.Amount != 2500 {
		t.Errorf("pattern amount = %d, want 2500", p.Amount)
	}
	if len(p.Dates) != 2 {
		t.Errorf("pattern occurrences = %d, want 2", len(p.Dates))
	}
	if len(p.Description) > DefaultRecurringPrefixLen {
		t.Errorf("pattern description %q longer than prefix window", p.Description)
	}
}

func TestAnalyzeRecurringMultibyteDescription(t *testing.T) {
	// A rune straddling the 20-byte prefix boundary must not be split.
	desc := strings.Repeat("x", 19) + "é shop restock weekly"
	mk := func(receipt string, day int) core.Transaction {
		tx := core.Transaction{
			RawTransaction: core.RawTransaction{
				Receipt:     receipt,
				Time:        time.Date(2025, 6, day, 9, 0, 0, 0, time.UTC),
				Description: desc,
				Withdrawn:   core.Shillings(500),
			},
		}
		tx.TotalCost = tx.Amount()
		return tx
	}

	res := demoAnalyzer().Analyze([]core.Transaction{mk("UTFX000001", 1), mk("UTFX000002", 8)}, core.PeriodAll)
	if len(res.Recurring) != 1 {
		t.Fatalf("recurring = %d patterns, want 1", len(res.Recurring))
	}
	p := res.Recurring[0]
	if !utf8.ValidString(p.Description) {
		t.Fatalf("pattern description is not valid UTF-8: %q", p.Description)
	}
	if want := strings.Repeat("x", 19) + "é"; p.Description != want {
		t.Errorf("pattern description = %q, want %q", p.Description, want)
	}
}

func TestAnalyzePeriodFilter(t *testing.T) {
	// Reference time 2025-07-05 00:00: only transactions from 2025-06-05
	// 00:00 onward fall inside the 30-day window.
	a := NewAnalyzer(NewClassifier("michael mwenda"), Options{
		Now: time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
	})
	txns := demoTransactions()

	res := a.Analyze(txns, core.PeriodMonth)
	// In-window inflows: 20,000 (06-05) and 15,000 (06-07).
	if res.TotalRevenue != core.Shillings(35000) {
		t.Errorf("filtered revenue = %d cents, want 3500000", res.TotalRevenue.Cents)
	}

	// The input slice is untouched.
	if len(txns) != 10 {
		t.Errorf("input slice modified: len = %d", len(txns))
	}

	all := a.Analyze(txns, core.PeriodAll)
	if all.TotalRevenue != core.Shillings(115000) {
		t.Errorf("unfiltered revenue = %d cents", all.TotalRevenue.Cents)
	}
}

func TestAnalyzeZeroRevenueSafety(t *testing.T) {
	a := demoAnalyzer()

	empty := a.Analyze(nil, core.PeriodAll)
	if empty.ProfitMargin != 0 || empty.FeeRatio != 0 {
		t.Errorf("empty input: margin=%f feeRatio=%f, want 0", empty.ProfitMargin, empty.FeeRatio)
	}

	// Expenses but no revenue: ratios stay 0 rather than dividing by zero.
	txns := []core.Transaction{{
		RawTransaction: core.RawTransaction{
			Receipt:     "ABCD123456",
			Time:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Description: "Customer Transfer to Supplier",
			Withdrawn:   core.Shillings(500),
		},
		Fees:      core.Shillings(7),
		TotalCost: core.Shillings(507),
	}}
	res := a.Analyze(txns, core.PeriodAll)
	if res.ProfitMargin != 0 || res.FeeRatio != 0 {
		t.Errorf("zero revenue: margin=%f feeRatio=%f, want 0", res.ProfitMargin, res.FeeRatio)
	}
	if res.TotalExpenses != core.Shillings(500) {
		t.Errorf("totalExpenses = %d cents", res.TotalExpenses.Cents)
	}
}

func TestAnalyzeDailyFlow(t *testing.T) {
	res := demoAnalyzer().Analyze(demoTransactions(), core.PeriodAll)

	if len(res.DailyFlow) != 8 {
		t.Fatalf("dailyFlow days = %d, want 8", len(res.DailyFlow))
	}
	june3 := res.DailyFlow["2025-06-03"]
	if june3.In != core.Shillings(30000) || june3.Out != core.Shillings(15000) {
		t.Errorf("2025-06-03 flow = in %d / out %d cents", june3.In.Cents, june3.Out.Cents)
	}
}
