package analysis

import (
	"math"

	"pesalens/internal/core"
)

const (
	StatusExcellent HealthStatus = "Excellent"
	StatusGood      HealthStatus = "Good"
	StatusNeedsWork HealthStatus = "Needs Work"
	StatusCritical  HealthStatus = "Critical"
)

// Dimension weights for the overall score.
const (
	weightProfitability = 0.30
	weightEfficiency    = 0.25
	weightCashflow      = 0.25
	weightGrowth        = 0.20
)

type (
	// HealthStatus is the label mapped from the overall score.
	HealthStatus string

	// Dimensions holds the four 0-100 sub-scores.
	Dimensions struct {
		Profitability int `json:"profitability"`
		Efficiency    int `json:"efficiency"`
		Cashflow      int `json:"cashflow"`
		Growth        int `json:"growth"`
	}

	// HealthScore is the weighted combination of the sub-scores.
	HealthScore struct {
		Overall    int          `json:"overall"`
		Dimensions Dimensions   `json:"dimensions"`
		Status     HealthStatus `json:"status"`
	}
)

// Score computes the health score for an aggregate under the benchmarks of
// the given business type. Pure function; recompute on demand.
func Score(res Result, bt core.BusinessType) HealthScore {
	b := BenchmarksFor(bt)

	dims := Dimensions{
		Profitability: scoreProfitability(res.ProfitMargin, b.ProfitMargin),
		Efficiency:    scoreEfficiency(res.FeeRatio, b.FeeRatio),
		Cashflow:      scoreCashflow(res),
		Growth:        scoreGrowth(),
	}

	overall := float64(dims.Profitability)*weightProfitability +
		float64(dims.Efficiency)*weightEfficiency +
		float64(dims.Cashflow)*weightCashflow +
		float64(dims.Growth)*weightGrowth

	return HealthScore{
		Overall:    int(math.Round(overall)),
		Dimensions: dims,
		Status:     statusFor(overall),
	}
}

// scoreProfitability maps a profit margin onto the descending threshold
// tiers. Each tier is upper-inclusive except the last, which is a strict
// comparison against the critical boundary.
func scoreProfitability(margin float64, b Thresholds) int {
	switch {
	case margin >= b.Excellent:
		return 100
	case margin >= b.Good:
		return 75
	case margin >= b.Warning:
		return 50
	case margin > b.Critical:
		return 25
	default:
		return 10
	}
}

// scoreEfficiency mirrors scoreProfitability with ascending-is-worse logic:
// a lower fee ratio is better.
func scoreEfficiency(feeRatio float64, b Thresholds) int {
	switch {
	case feeRatio <= b.Excellent:
		return 100
	case feeRatio <= b.Good:
		return 75
	case feeRatio <= b.Warning:
		return 50
	case feeRatio <= b.Critical:
		return 25
	default:
		return 10
	}
}

func scoreCashflow(res Result) int {
	var positiveRatio float64
	if res.TotalRevenue.Cents > 0 {
		positiveRatio = float64(res.TotalRevenue.Cents) /
			float64(res.TotalRevenue.Cents+res.TotalExpenses.Cents) * 100
	}
	switch {
	case positiveRatio >= 60:
		return 100
	case positiveRatio >= 50:
		return 75
	case positiveRatio >= 40:
		return 50
	default:
		return 25
	}
}

// scoreGrowth is a fixed neutral placeholder: real growth scoring needs
// historical multi-period data that a single statement does not carry.
func scoreGrowth() int {
	return 50
}

func statusFor(overall float64) HealthStatus {
	switch {
	case overall >= 80:
		return StatusExcellent
	case overall >= 60:
		return StatusGood
	case overall >= 40:
		return StatusNeedsWork
	default:
		return StatusCritical
	}
}
