package emissions

import "math"

const (
	// BaselineYear is the year the fleet totals are assumed to describe.
	BaselineYear = 2025
	// AnnualGrowthRate is the compounding yearly growth applied by Project.
	AnnualGrowthRate = 0.005
)

// YearsAhead returns how many whole years year lies after BaselineYear,
// never negative.
func YearsAhead(year int) int {
	return max(year-BaselineYear, 0)
}

// Project scales totalTons forward to year at AnnualGrowthRate. Years at or
// before BaselineYear, and a zero total, return totalTons unchanged. The
// result is +Inf when the growth factor overflows.
func Project(totalTons float64, year int) float64 {
	n := YearsAhead(year)
	if n == 0 || totalTons == 0 {
		return totalTons
	}
	return totalTons * math.Pow(1+AnnualGrowthRate, float64(n))
}
