package analysis

import (
	"fmt"
	"math"
	"sort"

	"pesalens/internal/core"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Daily net-flow standard deviation (in shillings) above which cash flow is
// flagged as volatile.
const volatilityThreshold = 5000

type (
	// Priority orders recommendations for display.
	Priority string

	// Recommendation is one actionable finding. All embedded figures are
	// computed from the aggregate, never static.
	Recommendation struct {
		ID       string   `json:"id"`
		Priority Priority `json:"priority"`
		Title    string   `json:"title"`
		Action   string   `json:"action"`
		Impact   string   `json:"impact"`
		HowTo    string   `json:"howTo"`
		Category string   `json:"category"`
	}

	// AnomalyAdvice is the one-off explainer for a single anomaly.
	AnomalyAdvice struct {
		Title           string     `json:"title"`
		Recommendation  string     `json:"recommendation"`
		PotentialSaving core.Money `json:"potentialSaving"`
	}
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Recommend evaluates the rule battery against one aggregate and health
// score. Each rule is independent; the result is sorted by priority with
// evaluation order preserved within a priority.
func Recommend(res Result, score HealthScore) []Recommendation {
	recs := []Recommendation{}

	if res.FeeRatio > 3 {
		savings := core.Money{Cents: res.TotalFees.Cents * 6 / 10}
		recs = append(recs, Recommendation{
			ID:       "high_fees",
			Priority: PriorityHigh,
			Title:    fmt.Sprintf("You're losing %s to transaction fees", core.FormatKES(res.TotalFees)),
			Action:   "Switch to Pay Bill for suppliers instead of Send Money",
			Impact:   fmt.Sprintf("Save ~%s/month", core.FormatKES(savings)),
			HowTo:    "Ask your regular suppliers for their Pay Bill numbers. Pay Bill fees are 60% lower than Send Money.",
			Category: "efficiency",
		})
	}

	var largeWithdrawals int
	var largeWithdrawalFees core.Money
	for _, a := range res.Anomalies {
		if a.Kind == AnomalyLargeWithdrawal {
			largeWithdrawals++
			largeWithdrawalFees = largeWithdrawalFees.Add(a.Fees)
		}
	}
	if largeWithdrawals > 0 {
		saving := core.Money{Cents: largeWithdrawalFees.Cents * 7 / 10}
		recs = append(recs, Recommendation{
			ID:       "large_withdrawals",
			Priority: PriorityMedium,
			Title:    fmt.Sprintf("%d large withdrawals detected", largeWithdrawals),
			Action:   "Use M-Pesa to Bank transfer for amounts over KES 15,000",
			Impact:   fmt.Sprintf("Could save %s in fees", core.FormatKES(saving)),
			HowTo:    "Go to M-Pesa menu > Send Money > To Bank Account. Fees are much lower for bank transfers.",
			Category: "efficiency",
		})
	}

	if res.ProfitMargin < 2 {
		uplift := core.Money{Cents: res.TotalRevenue.Cents * 2 / 100}
		recs = append(recs, Recommendation{
			ID:       "low_margin",
			Priority: PriorityHigh,
			Title:    fmt.Sprintf("Profit margin is %.1f%% (Industry avg: 3-5%%)", res.ProfitMargin),
			Action:   "Review pricing strategy and reduce operational costs",
			Impact:   fmt.Sprintf("Increasing margin to 3%% would add %s", core.FormatKES(uplift)),
			HowTo:    "1. Audit your top 5 expenses. 2. Negotiate better rates with suppliers. 3. Consider 5-10% price increase on high-volume items.",
			Category: "profitability",
		})
	}

	var expenseRatio float64
	if res.TotalRevenue.Cents > 0 {
		expenseRatio = float64(res.TotalExpenses.Cents) / float64(res.TotalRevenue.Cents)
	}
	if expenseRatio > 0.9 {
		saved := core.Money{Cents: res.TotalExpenses.Cents / 10}
		recs = append(recs, Recommendation{
			ID:       "high_expenses",
			Priority: PriorityHigh,
			Title:    fmt.Sprintf("Expenses are consuming %d%% of revenue", int(math.Round(expenseRatio*100))),
			Action:   "Implement expense tracking and set monthly budgets",
			Impact:   fmt.Sprintf("Reducing expenses by 10%% adds %s to profit", core.FormatKES(saved)),
			HowTo:    "Review spending monthly to track trends. Set alerts for unusual spending.",
			Category: "cashflow",
		})
	}

	if len(res.Recurring) > 3 {
		recs = append(recs, Recommendation{
			ID:       "recurring_payments",
			Priority: PriorityLow,
			Title:    fmt.Sprintf("%d recurring payments detected", len(res.Recurring)),
			Action:   "Set up M-Pesa Standing Orders to automate and save time",
			Impact:   "Save 2-3 hours/month on manual payments",
			HowTo:    "Contact Safaricom to set up standing orders for rent, utilities, and regular suppliers.",
			Category: "efficiency",
		})
	}

	if name, amount, ok := topCounterparty(res.Customers); ok && res.TotalRevenue.Cents > 0 {
		share := float64(amount.Cents) / float64(res.TotalRevenue.Cents)
		if share > 0.4 {
			recs = append(recs, Recommendation{
				ID:       "revenue_concentration",
				Priority: PriorityMedium,
				Title:    fmt.Sprintf("%d%% of revenue from one customer", int(math.Round(share*100))),
				Action:   "Diversify your customer base to reduce risk",
				Impact:   "Protect against revenue loss if this customer leaves",
				HowTo:    fmt.Sprintf("Invest in marketing to acquire 3-5 new customers the size of %s.", name),
				Category: "growth",
			})
		}
	}

	if dailyNetVolatility(res.DailyFlow) > volatilityThreshold {
		recs = append(recs, Recommendation{
			ID:       "cash_volatility",
			Priority: PriorityMedium,
			Title:    "High cash flow volatility detected",
			Action:   "Build a cash reserve equal to 1 month of expenses",
			Impact:   "Protect against slow periods and emergencies",
			HowTo:    fmt.Sprintf("Set aside 10%% of profits weekly until you reach %s.", core.FormatKES(res.TotalExpenses)),
			Category: "cashflow",
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.rank() < recs[j].Priority.rank()
	})
	return recs
}

// AdviseAnomaly produces the per-anomaly explainer. The second return is
// false for unknown anomaly kinds.
func AdviseAnomaly(a Anomaly) (AnomalyAdvice, bool) {
	switch a.Kind {
	case AnomalyLargeWithdrawal:
		return AnomalyAdvice{
			Title:           fmt.Sprintf("Large withdrawal: %s", core.FormatKES(a.Amount)),
			Recommendation:  "Consider using Pay Bill or Bank Transfer to reduce fees",
			PotentialSaving: core.Money{Cents: int64(math.Round(float64(a.Amount.Cents) * 0.015))},
		}, true
	case AnomalyLargeInflow:
		return AnomalyAdvice{
			Title:          fmt.Sprintf("Large payment received: %s", core.FormatKES(a.Amount)),
			Recommendation: "Consider opening a business bank account for better rates",
		}, true
	default:
		return AnomalyAdvice{}, false
	}
}

func topCounterparty(m map[string]core.Money) (string, core.Money, bool) {
	var best string
	var bestAmount core.Money
	found := false
	for name, amount := range m {
		if !found || amount.Cents > bestAmount.Cents || (amount.Cents == bestAmount.Cents && name < best) {
			best, bestAmount, found = name, amount, true
		}
	}
	return best, bestAmount, found
}

// dailyNetVolatility is the population standard deviation, in shillings, of
// the per-day net flow (in minus out) across days with activity.
func dailyNetVolatility(flow map[string]DailyFlow) float64 {
	if len(flow) == 0 {
		return 0
	}
	nets := make([]float64, 0, len(flow))
	var sum float64
	for _, f := range flow {
		net := f.In.Sub(f.Out).Units()
		nets = append(nets, net)
		sum += net
	}
	mean := sum / float64(len(nets))
	var variance float64
	for _, n := range nets {
		variance += (n - mean) * (n - mean)
	}
	variance /= float64(len(nets))
	return math.Sqrt(variance)
}
