package trend

import (
	"fmt"
	"math"

	"AgriGenie/internal/calculator"
	"AgriGenie/internal/model"
)

const (
	// SignificantMovePct is the percent change above which a price move is called out.
	SignificantMovePct = 5.0
	// SupplyShiftPct is the quantity change above which a supply shift is called out.
	SupplyShiftPct = 10.0
	// HighVolatility is the return std-dev above which volatility is called out.
	HighVolatility = 0.1
)

// Trailing factors present on every result.
const (
	FactorHistorical = "Based on historical market data analysis"
	FactorSeasonal   = "Considers seasonal trends and patterns"
)

// describe builds the narrative factors for a computed result.
func describe(records []model.PriceRecord, res *model.TrendResult) []string {
	factors := make([]string, 0, 5)

	if math.Abs(res.PercentChange) > SignificantMovePct {
		verb := "increase"
		if res.Trend == model.TrendFalling {
			verb = "decrease"
		}
		factors = append(factors, fmt.Sprintf("Significant price %s of %s%%",
			verb, calculator.FormatPercent(res.PercentChange)))
	}

	if f, ok := supplyFactor(records); ok {
		factors = append(factors, f)
	}

	if res.Volatility > HighVolatility {
		factors = append(factors, "High market volatility observed")
	}

	return append(factors, FactorHistorical, FactorSeasonal)
}

// supplyFactor reports a traded-quantity shift between the two newest
// records. A zero previous quantity has no defined change.
func supplyFactor(records []model.PriceRecord) (string, bool) {
	if len(records) < 2 {
		return "", false
	}
	cur, prev := records[0].Quantity, records[1].Quantity
	if prev == 0 {
		return "", false
	}
	change := (cur - prev) / prev * 100
	if math.Abs(change) <= SupplyShiftPct {
		return "", false
	}
	if change > 0 {
		return fmt.Sprintf("Increased supply by %s%%", calculator.FormatPercent(change)), true
	}
	return fmt.Sprintf("Decreased supply by %s%%", calculator.FormatPercent(-change)), true
}
