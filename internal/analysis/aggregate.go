package analysis

import (
	"strconv"
	"strings"
	"time"

	"pesalens/internal/core"
)

const (
	AnomalyLargeInflow     AnomalyKind = "large_inflow"
	AnomalyLargeWithdrawal AnomalyKind = "large_withdrawal"
)

// Default anomaly thresholds and recurring-pattern grouping window. The
// values reproduce the analyzer's established behavior; override via
// Options where a deployment needs different sensitivity.
const (
	DefaultLargeInflowShillings     = 10_000
	DefaultLargeWithdrawalShillings = 15_000
	DefaultRecurringPrefixLen       = 20
)

type (
	// AnomalyKind distinguishes the two flagged transaction shapes.
	AnomalyKind string

	// Anomaly is a single transaction whose magnitude exceeded a threshold.
	Anomaly struct {
		Kind        AnomalyKind `json:"kind"`
		Amount      core.Money  `json:"amount"`
		Time        time.Time   `json:"time"`
		Description string      `json:"description"`
		Fees        core.Money  `json:"fees,omitempty"`
	}

	// RecurringPattern is a group of two or more transactions sharing a
	// truncated description and rounded amount, read as a repeating
	// obligation.
	RecurringPattern struct {
		Description string      `json:"description"`
		Amount      int64       `json:"amount"` // whole shillings
		Dates       []time.Time `json:"dates"`
	}

	// DailyFlow is one calendar day's inflow and outflow totals.
	DailyFlow struct {
		In  core.Money `json:"in"`
		Out core.Money `json:"out"`
	}

	// Result is the aggregate of one analysis pass. Built fresh per
	// invocation and never mutated afterwards.
	Result struct {
		TotalRevenue  core.Money `json:"totalRevenue"`
		TotalExpenses core.Money `json:"totalExpenses"`
		TotalFees     core.Money `json:"totalFees"`
		NetProfit     core.Money `json:"netProfit"`
		ProfitMargin  float64    `json:"profitMargin"` // percent
		FeeRatio      float64    `json:"feeRatio"`     // percent
		LoanEstimate  core.Money `json:"loanEstimate"` // 30% of revenue

		Categories map[core.Category]core.Money `json:"categories"`
		Customers  map[string]core.Money        `json:"customers"`
		Vendors    map[string]core.Money        `json:"vendors"`
		DailyFlow  map[string]DailyFlow         `json:"dailyFlow"`
		Anomalies  []Anomaly                    `json:"anomalies"`
		Recurring  []RecurringPattern           `json:"recurring"`
	}

	// Options tunes an Analyzer. The zero value selects the defaults.
	Options struct {
		// Now is the reference time for period filtering. Injected rather
		// than read from the wall clock so analysis stays deterministic.
		Now time.Time

		LargeInflow        core.Money
		LargeWithdrawal    core.Money
		RecurringPrefixLen int
	}

	// Analyzer folds consolidated transactions into a Result. Safe for
	// concurrent use; it holds only read-only configuration.
	Analyzer struct {
		classifier *Classifier
		opts       Options
	}
)

// NewAnalyzer builds an Analyzer, filling unset options with defaults.
func NewAnalyzer(classifier *Classifier, opts Options) *Analyzer {
	if classifier == nil {
		classifier = NewClassifier()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.LargeInflow.IsZero() {
		opts.LargeInflow = core.Shillings(DefaultLargeInflowShillings)
	}
	if opts.LargeWithdrawal.IsZero() {
		opts.LargeWithdrawal = core.Shillings(DefaultLargeWithdrawalShillings)
	}
	if opts.RecurringPrefixLen <= 0 {
		opts.RecurringPrefixLen = DefaultRecurringPrefixLen
	}
	return &Analyzer{classifier: classifier, opts: opts}
}

// Analyze filters transactions by period and folds them into a Result.
// The input slice is not modified. Degenerate ratios (zero revenue) are 0,
// never a fault.
func (a *Analyzer) Analyze(txns []core.Transaction, period core.Period) Result {
	filtered := filterByPeriod(txns, period, a.opts.Now)

	res := Result{
		Categories: map[core.Category]core.Money{
			core.CategoryRevenue:      {},
			core.CategoryUtilities:    {},
			core.CategoryStock:        {},
			core.CategoryData:         {},
			core.CategoryRent:         {},
			core.CategoryPersonal:     {},
			core.CategoryOtherExpense: {},
		},
		Customers: map[string]core.Money{},
		Vendors:   map[string]core.Money{},
		DailyFlow: map[string]DailyFlow{},
		Anomalies: []Anomaly{},
		Recurring: []RecurringPattern{},
	}

	for _, t := range filtered {
		day := core.DateKey(t.Time)
		flow := res.DailyFlow[day]

		res.TotalFees = res.TotalFees.Add(t.Fees)

		cat := a.classifier.Classify(t.Description, t.PaidIn, t.Withdrawn)

		switch {
		case t.PaidIn.Cents > 0:
			flow.In = flow.In.Add(t.PaidIn)
			if cat == core.CategoryPersonal {
				res.Categories[core.CategoryPersonal] = res.Categories[core.CategoryPersonal].Add(t.PaidIn)
			} else {
				res.Categories[core.CategoryRevenue] = res.Categories[core.CategoryRevenue].Add(t.PaidIn)
				payer := Counterparty(t.Description)
				res.Customers[payer] = res.Customers[payer].Add(t.PaidIn)
				res.TotalRevenue = res.TotalRevenue.Add(t.PaidIn)
			}
			if t.PaidIn.Cents > a.opts.LargeInflow.Cents {
				res.Anomalies = append(res.Anomalies, Anomaly{
					Kind:        AnomalyLargeInflow,
					Amount:      t.PaidIn,
					Time:        t.Time,
					Description: t.Description,
				})
			}

		case t.Withdrawn.Cents > 0:
			flow.Out = flow.Out.Add(t.Withdrawn)
			payee := Counterparty(t.Description)
			res.Vendors[payee] = res.Vendors[payee].Add(t.Withdrawn)

			if cat == core.CategoryPersonal {
				// Owner drawings reduce the Personal balance rather than
				// count as a business expense.
				res.Categories[core.CategoryPersonal] = res.Categories[core.CategoryPersonal].Sub(t.Withdrawn)
			} else {
				res.Categories[cat] = res.Categories[cat].Add(t.Withdrawn)
				res.TotalExpenses = res.TotalExpenses.Add(t.Withdrawn)
			}
			if t.Withdrawn.Cents > a.opts.LargeWithdrawal.Cents {
				res.Anomalies = append(res.Anomalies, Anomaly{
					Kind:        AnomalyLargeWithdrawal,
					Amount:      t.Withdrawn,
					Time:        t.Time,
					Description: t.Description,
					Fees:        t.Fees,
				})
			}
		}

		res.DailyFlow[day] = flow
	}

	res.NetProfit = res.TotalRevenue.Sub(res.TotalExpenses)
	if res.TotalRevenue.Cents > 0 {
		res.ProfitMargin = float64(res.NetProfit.Cents) / float64(res.TotalRevenue.Cents) * 100
		res.FeeRatio = float64(res.TotalFees.Cents) / float64(res.TotalRevenue.Cents) * 100
	}
	res.LoanEstimate = core.Money{Cents: res.TotalRevenue.Cents * 3 / 10}

	res.Recurring = a.detectRecurring(filtered)

	return res
}

// filterByPeriod returns the transactions within the period, leaving the
// input untouched.
func filterByPeriod(txns []core.Transaction, period core.Period, now time.Time) []core.Transaction {
	cutoff, bounded := period.Cutoff(now)
	if !bounded {
		return txns
	}
	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if !t.Time.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// detectRecurring groups transactions by a lower-cased description prefix
// plus the amount rounded to whole shillings, and keeps groups with two or
// more members, in first-occurrence order.
func (a *Analyzer) detectRecurring(txns []core.Transaction) []RecurringPattern {
	type group struct {
		desc   string
		amount int64
		dates  []time.Time
	}

	groups := map[string]*group{}
	var order []string

	for _, t := range txns {
		desc := runePrefix(strings.ToLower(t.Description), a.opts.RecurringPrefixLen)
		amount := t.Amount().Whole()
		key := desc + "\x00" + strconv.FormatInt(amount, 10)

		g, ok := groups[key]
		if !ok {
			g = &group{desc: desc, amount: amount}
			groups[key] = g
			order = append(order, key)
		}
		g.dates = append(g.dates, t.Time)
	}

	patterns := []RecurringPattern{}
	for _, key := range order {
		g := groups[key]
		if len(g.dates) < 2 {
			continue
		}
		patterns = append(patterns, RecurringPattern{
			Description: g.desc,
			Amount:      g.amount,
			Dates:       g.dates,
		})
	}
	return patterns
}
