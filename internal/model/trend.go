package model

import "time"

// Direction is the categorical movement between the two newest observations.
type Direction string

// Directions reported in TrendResult.Trend.
const (
	TrendRising  Direction = "rising"
	TrendFalling Direction = "falling"
	TrendStable  Direction = "stable"
)

// PricePoint is a dated price in a historical or forecast series.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// TrendResult is the output of a trend computation. It is serialised as-is
// by the HTTP layer.
type TrendResult struct {
	HistoricalPrices []PricePoint `json:"historicalPrices"`
	ForecastPrices   []PricePoint `json:"forecastPrices"`
	CurrentPrice     float64      `json:"currentPrice"`
	Trend            Direction    `json:"trend"`
	PercentChange    float64      `json:"percentChange"`
	Volatility       float64      `json:"volatility"`
	Factors          []string     `json:"factors"`
}

// PriceBand summarises the price range of the retained window.
type PriceBand struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Average float64 `json:"average"`
}

// TrendSnapshot is a recorded trend computation for one market query.
type TrendSnapshot struct {
	ID          string       `json:"id"`
	Query       MarketQuery  `json:"query"`
	Source      string       `json:"source"`
	RecordCount int          `json:"recordCount"`
	Band        PriceBand    `json:"band"`
	Result      *TrendResult `json:"result"`
	ComputedAt  time.Time    `json:"computedAt"`
}
