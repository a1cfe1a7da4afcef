package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"pesalens/internal/analysis"
	"pesalens/internal/core"
	"pesalens/internal/statement"
)

// RunFile analyzes a statement text file and prints a readable report. This
// is the offline path: no database, no queue, everything in one pass.
func RunFile(w io.Writer, path string, ownerKeywords []string, bt core.BusinessType, period core.Period) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read statement file: %w", err)
	}

	txns, err := statement.ParseStatement(string(data))
	if err != nil {
		return fmt.Errorf("parse statement: %w", err)
	}

	classifier := analysis.NewClassifier(ownerKeywords...)
	res := analysis.NewAnalyzer(classifier, analysis.Options{}).Analyze(txns, period)
	score := analysis.Score(res, bt)
	recs := analysis.Recommend(res, score)

	fmt.Fprintf(w, "Statement: %s (%d transactions, period %s)\n\n", path, len(txns), period)

	fmt.Fprintf(w, "Revenue:   %s\n", core.FormatKES(res.TotalRevenue))
	fmt.Fprintf(w, "Expenses:  %s\n", core.FormatKES(res.TotalExpenses))
	fmt.Fprintf(w, "Fees:      %s\n", core.FormatKES(res.TotalFees))
	fmt.Fprintf(w, "Net:       %s (margin %.1f%%)\n", core.FormatKES(res.NetProfit), res.ProfitMargin)
	fmt.Fprintf(w, "Loan est.: %s\n\n", core.FormatKES(res.LoanEstimate))

	fmt.Fprintf(w, "Health: %d/100 (%s)\n", score.Overall, score.Status)
	fmt.Fprintf(w, "  profitability %d  efficiency %d  cashflow %d  growth %d\n\n",
		score.Dimensions.Profitability,
		score.Dimensions.Efficiency,
		score.Dimensions.Cashflow,
		score.Dimensions.Growth)

	if len(res.Anomalies) > 0 {
		fmt.Fprintf(w, "Flagged transactions: %d\n", len(res.Anomalies))
		for _, a := range res.Anomalies {
			fmt.Fprintf(w, "  [%s] %s %s\n", a.Kind, core.FormatKES(a.Amount), a.Description)
		}
		fmt.Fprintln(w)
	}

	if len(res.Recurring) > 0 {
		fmt.Fprintf(w, "Recurring payments: %d\n", len(res.Recurring))
		for _, p := range res.Recurring {
			fmt.Fprintf(w, "  %dx %s %s\n", len(p.Dates), core.FormatKES(core.Shillings(p.Amount)), p.Description)
		}
		fmt.Fprintln(w)
	}

	printTopCounterparties(w, "Top customers", res.Customers)
	printTopCounterparties(w, "Top vendors", res.Vendors)

	if len(recs) == 0 {
		fmt.Fprintln(w, "No recommendations. Keep it up.")
		return nil
	}

	fmt.Fprintf(w, "Recommendations (%d):\n", len(recs))
	for i, rec := range recs {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, rec.Priority, rec.Title)
		fmt.Fprintf(w, "   Action: %s\n", rec.Action)
		fmt.Fprintf(w, "   Impact: %s\n", rec.Impact)
	}

	return nil
}

func printTopCounterparties(w io.Writer, title string, amounts map[string]core.Money) {
	if len(amounts) == 0 {
		return
	}

	type entry struct {
		name   string
		amount core.Money
	}
	entries := make([]entry, 0, len(amounts))
	for name, amount := range amounts {
		entries = append(entries, entry{name, amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].amount.Cents != entries[j].amount.Cents {
			return entries[i].amount.Cents > entries[j].amount.Cents
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > 5 {
		entries = entries[:5]
	}

	fmt.Fprintf(w, "%s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %s\n", core.FormatKES(e.amount), e.name)
	}
	fmt.Fprintln(w)
}
