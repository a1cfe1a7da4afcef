package analysis

import "pesalens/internal/core"

// Thresholds is one descending quadruple of benchmark boundaries, expressed
// in percent.
type Thresholds struct {
	Excellent float64
	Good      float64
	Warning   float64
	Critical  float64
}

// Benchmarks holds the per-business-type thresholds used to convert raw
// ratios into scores. GrowthRate is present in the table but unused by the
// growth scorer, which needs multi-period data; it is retained for forward
// compatibility.
type Benchmarks struct {
	ProfitMargin Thresholds
	FeeRatio     Thresholds
	GrowthRate   Thresholds
}

var benchmarkTable = map[core.BusinessType]Benchmarks{
	core.Retail: {
		ProfitMargin: Thresholds{Excellent: 8, Good: 5, Warning: 2, Critical: 0},
		FeeRatio:     Thresholds{Excellent: 1, Good: 2, Warning: 3, Critical: 5},
		GrowthRate:   Thresholds{Excellent: 15, Good: 8, Warning: 3, Critical: 0},
	},
	core.Distributor: {
		ProfitMargin: Thresholds{Excellent: 12, Good: 8, Warning: 4, Critical: 0},
		FeeRatio:     Thresholds{Excellent: 0.5, Good: 1, Warning: 2, Critical: 3},
		GrowthRate:   Thresholds{Excellent: 20, Good: 12, Warning: 5, Critical: 0},
	},
	core.Services: {
		ProfitMargin: Thresholds{Excellent: 25, Good: 15, Warning: 8, Critical: 0},
		FeeRatio:     Thresholds{Excellent: 2, Good: 3, Warning: 5, Critical: 8},
		GrowthRate:   Thresholds{Excellent: 25, Good: 15, Warning: 8, Critical: 0},
	},
	core.Online: {
		ProfitMargin: Thresholds{Excellent: 40, Good: 25, Warning: 15, Critical: 0},
		FeeRatio:     Thresholds{Excellent: 3, Good: 5, Warning: 8, Critical: 12},
		GrowthRate:   Thresholds{Excellent: 30, Good: 20, Warning: 10, Critical: 0},
	},
}

// BenchmarksFor returns the benchmark table for a business type, falling
// back to retail for unknown types.
func BenchmarksFor(bt core.BusinessType) Benchmarks {
	if b, ok := benchmarkTable[bt]; ok {
		return b
	}
	return benchmarkTable[core.Retail]
}
