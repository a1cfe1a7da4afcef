// Package tabular analyzes statement exports that arrive as spreadsheet
// rows instead of extracted PDF text. Rows carry no fee line-items, so this
// variant classifies and aggregates only; fee consolidation and anomaly
// detection stay with the text pipeline.
package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"pesalens/internal/analysis"
	"pesalens/internal/core"
)

// Required column headers, matched as case-insensitive substrings. The
// completion-time column also accepts any header containing "date".
const (
	headerDetails   = "details"
	headerPaidIn    = "paid in"
	headerWithdrawn = "withdrawn"
	headerDate      = "completion time"
)

// ColumnMap holds the resolved index of each required column.
type ColumnMap struct {
	Details   int
	PaidIn    int
	Withdrawn int
	Date      int
}

// MissingColumnsError reports every required column absent from the header
// row. Detection is eager; no rows are processed when any column is missing.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// MapColumns resolves the required columns from a header row.
func MapColumns(headers []string) (ColumnMap, error) {
	m := ColumnMap{Details: -1, PaidIn: -1, Withdrawn: -1, Date: -1}

	for i, h := range headers {
		clean := strings.ToLower(strings.TrimSpace(h))
		switch {
		case m.Details < 0 && strings.Contains(clean, headerDetails):
			m.Details = i
		case m.PaidIn < 0 && strings.Contains(clean, headerPaidIn):
			m.PaidIn = i
		case m.Withdrawn < 0 && strings.Contains(clean, headerWithdrawn):
			m.Withdrawn = i
		case m.Date < 0 && (strings.Contains(clean, headerDate) || strings.Contains(clean, "date")):
			m.Date = i
		}
	}

	var missing []string
	if m.Details < 0 {
		missing = append(missing, "Details")
	}
	if m.PaidIn < 0 {
		missing = append(missing, "Paid In")
	}
	if m.Withdrawn < 0 {
		missing = append(missing, "Withdrawn")
	}
	if m.Date < 0 {
		missing = append(missing, "Completion Time")
	}
	if len(missing) > 0 {
		return ColumnMap{}, &MissingColumnsError{Columns: missing}
	}
	return m, nil
}

// DefaultRules is the spreadsheet classification cascade. It extends the
// text pipeline's cascade with a Staff bucket and the merchant names the
// export format uses.
func DefaultRules() []analysis.KeywordRule {
	return []analysis.KeywordRule{
		{Category: core.CategoryUtilities, Keywords: []string{"kplc", "pay bill to 888880", "token"}},
		{Category: core.CategoryStock, Keywords: []string{"pakir enterprises", "kassmatt supermarkets", "wholesalers"}},
		{Category: core.CategoryData, Keywords: []string{"data vibez", "data bundles", "safaricom offers", "airtime"}},
		{Category: core.CategoryRent, Keywords: []string{"loop biz", "family bank pesa pap", "rent"}},
		{Category: core.CategoryStaff, Keywords: []string{"customer transfer to", "mary wambui"}},
	}
}

// Summary is the aggregate of one spreadsheet analysis pass.
//
// Categories[Personal] is a signed net: owner injections add, owner drawings
// subtract. Neither direction touches TotalRevenue or TotalExpenses.
type Summary struct {
	TotalRevenue  core.Money `json:"totalRevenue"`
	TotalExpenses core.Money `json:"totalExpenses"`
	NetProfit     core.Money `json:"netProfit"`

	Categories   map[core.Category]core.Money `json:"categories"`
	TopCustomers map[string]core.Money        `json:"topCustomers"`
	TopExpenses  map[string]core.Money        `json:"topExpenses"`

	// HustlerFund is the qualifying loan figure: 30% of revenue.
	HustlerFund core.Money `json:"hustlerFund"`

	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// Analyzer classifies and aggregates spreadsheet rows. Safe for concurrent
// use.
type Analyzer struct {
	classifier *analysis.Classifier
}

// NewAnalyzer builds a spreadsheet analyzer with the given owner keywords
// feeding the Personal check.
func NewAnalyzer(ownerKeywords ...string) *Analyzer {
	return &Analyzer{
		classifier: analysis.NewClassifier(ownerKeywords...).WithRules(DefaultRules()),
	}
}

// Process maps the header row and folds the remaining rows into a Summary.
// Rows too short for the mapped columns are counted as skipped, never an
// error.
func (a *Analyzer) Process(rows [][]string) (Summary, error) {
	if len(rows) == 0 {
		return Summary{}, &MissingColumnsError{Columns: []string{"Details", "Paid In", "Withdrawn", "Completion Time"}}
	}
	m, err := MapColumns(rows[0])
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Categories: map[core.Category]core.Money{
			core.CategoryRevenue:      {},
			core.CategoryUtilities:    {},
			core.CategoryStock:        {},
			core.CategoryData:         {},
			core.CategoryRent:         {},
			core.CategoryStaff:        {},
			core.CategoryOtherExpense: {},
			core.CategoryPersonal:     {},
		},
		TopCustomers: map[string]core.Money{},
		TopExpenses:  map[string]core.Money{},
	}

	width := m.Details
	for _, i := range []int{m.PaidIn, m.Withdrawn, m.Date} {
		if i > width {
			width = i
		}
	}

	for _, row := range rows[1:] {
		if len(row) <= width {
			sum.Skipped++
			continue
		}
		details := row[m.Details]
		paidIn := parseCellAmount(row[m.PaidIn])
		withdrawn := parseCellAmount(row[m.Withdrawn])
		sum.Rows++

		cat := a.classifier.Classify(details, paidIn, withdrawn)

		if paidIn.Cents > 0 {
			if cat == core.CategoryPersonal {
				sum.Categories[core.CategoryPersonal] = sum.Categories[core.CategoryPersonal].Add(paidIn)
			} else {
				sum.TotalRevenue = sum.TotalRevenue.Add(paidIn)
				sum.Categories[core.CategoryRevenue] = sum.Categories[core.CategoryRevenue].Add(paidIn)
				payer := analysis.Counterparty(details)
				sum.TopCustomers[payer] = sum.TopCustomers[payer].Add(paidIn)
			}
		}

		if withdrawn.Cents > 0 {
			if cat == core.CategoryPersonal {
				sum.Categories[core.CategoryPersonal] = sum.Categories[core.CategoryPersonal].Sub(withdrawn)
			} else {
				// A malformed row carrying both directions classifies by its
				// inflow; the outflow side still must not land in Revenue.
				expenseCat := cat
				if expenseCat == core.CategoryRevenue {
					expenseCat = core.CategoryOtherExpense
				}
				sum.TotalExpenses = sum.TotalExpenses.Add(withdrawn)
				sum.Categories[expenseCat] = sum.Categories[expenseCat].Add(withdrawn)
				payee := analysis.Counterparty(details)
				sum.TopExpenses[payee] = sum.TopExpenses[payee].Add(withdrawn)
			}
		}
	}

	sum.NetProfit = sum.TotalRevenue.Sub(sum.TotalExpenses)
	sum.HustlerFund = core.Money{Cents: sum.TotalRevenue.Cents * 3 / 10}
	return sum, nil
}

// parseCellAmount reads a spreadsheet cell as shillings. Cells may carry
// plain numbers ("1000"), decimals ("999.50") or grouped statement figures
// ("1,000.00"). Blank or non-numeric cells count as zero.
func parseCellAmount(s string) core.Money {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return core.Money{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return core.Money{}
	}
	return core.Money{Cents: int64(math.Round(v * 100))}
}
