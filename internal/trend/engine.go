package trend

import (
	"math/rand/v2"
	"time"

	"AgriGenie/internal/calculator"
	"AgriGenie/internal/model"
)

const (
	// HistoryWindow is the number of newest records retained as history.
	HistoryWindow = 14
	// ForecastHorizon is the number of daily forecast points.
	ForecastHorizon = 7
	// VolatilityWindow is the number of newest prices used for volatility.
	VolatilityWindow = 5
)

// NoiseSource yields uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type NoiseSource interface {
	Float64() float64
}

// globalNoise draws from the goroutine-safe top-level math/rand/v2 source.
type globalNoise struct{}

func (globalNoise) Float64() float64 { return rand.Float64() }

// Engine computes price trends and forecasts. The zero-configuration engine
// returned by NewEngine is safe for concurrent use; an injected NoiseSource
// must itself be safe if the engine is shared.
type Engine struct {
	noise NoiseSource
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNoise replaces the forecast noise source.
func WithNoise(src NoiseSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.noise = src
		}
	}
}

// WithClock replaces the clock that anchors forecast dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{noise: globalNoise{}, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Compute runs the default engine over records. See Engine.Compute.
func Compute(records []model.PriceRecord) *model.TrendResult {
	return defaultEngine.Compute(records)
}

// Compute derives the trend, volatility, narrative factors and a 7-day
// forecast from records ordered newest-first. It never fails; an empty
// input produces a stable, zero-priced result with a full forecast.
func (e *Engine) Compute(records []model.PriceRecord) *model.TrendResult {
	res := &model.TrendResult{
		HistoricalPrices: historical(records),
		Trend:            model.TrendStable,
	}
	if len(records) > 0 {
		res.CurrentPrice = records[0].ModalPrice
	}

	res.Trend, res.PercentChange = direction(records)
	res.Volatility = volatility(records)
	res.Factors = describe(records, res)
	res.ForecastPrices = e.forecast(res.HistoricalPrices)
	return res
}

func historical(records []model.PriceRecord) []model.PricePoint {
	n := min(len(records), HistoryWindow)
	points := make([]model.PricePoint, n)
	for i := 0; i < n; i++ {
		points[i] = model.PricePoint{Date: records[i].Date, Price: records[i].ModalPrice}
	}
	return points
}

// direction compares the newest record with the next-older one.
// The percentage is a magnitude; the sign is carried by the direction.
func direction(records []model.PriceRecord) (model.Direction, float64) {
	if len(records) < 2 {
		return model.TrendStable, 0
	}
	cur, prev := records[0].ModalPrice, records[1].ModalPrice
	pct := calculator.Round(calculator.CalculatePercentChange(cur, prev), 1)
	switch {
	case cur > prev:
		return model.TrendRising, pct
	case cur < prev:
		return model.TrendFalling, pct
	default:
		return model.TrendStable, 0
	}
}

func volatility(records []model.PriceRecord) float64 {
	n := min(len(records), VolatilityWindow)
	prices := make([]float64, n)
	for i := 0; i < n; i++ {
		prices[i] = records[i].ModalPrice
	}
	return calculator.CalculateVolatility(prices)
}
