package calculator

import (
	"gonum.org/v1/gonum/stat"
)

// CalculateReturns computes successive fractional returns (p[i]-p[i-1])/p[i-1]
// in the order the prices are given. Pairs whose base price is zero have no
// defined return and are skipped.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		base := prices[i-1]
		if base == 0 {
			continue
		}
		returns = append(returns, (prices[i]-base)/base)
	}
	return returns
}

// CalculateVolatility returns the population standard deviation of the
// period returns of prices. Fewer than two usable returns yields 0.
func CalculateVolatility(prices []float64) float64 {
	returns := CalculateReturns(prices)
	if len(returns) < 2 {
		return 0
	}
	return stat.PopStdDev(returns, nil)
}

// CalculatePercentChange returns the magnitude of the move from prev to cur
// as a percentage of prev. A zero prev yields 0.
func CalculatePercentChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	pct := (cur - prev) / prev * 100
	if pct < 0 {
		return -pct
	}
	return pct
}
