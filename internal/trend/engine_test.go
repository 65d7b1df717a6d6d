package trend

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AgriGenie/internal/model"
)

// fixedNoise returns the same draw every time; 0.5 maps to zero noise.
type fixedNoise float64

func (f fixedNoise) Float64() float64 { return float64(f) }

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func quietEngine() *Engine {
	return NewEngine(WithNoise(fixedNoise(0.5)), WithClock(func() time.Time { return testNow }))
}

func prices(ps ...float64) []model.PriceRecord {
	records := make([]model.PriceRecord, len(ps))
	for i, p := range ps {
		records[i] = model.PriceRecord{
			Date:       testNow.AddDate(0, 0, -i).Format(DateLayout),
			ModalPrice: p,
		}
	}
	return records
}

func forecastValues(res *model.TrendResult) []float64 {
	out := make([]float64, len(res.ForecastPrices))
	for i, p := range res.ForecastPrices {
		out[i] = p.Price
	}
	return out
}

func TestCompute_Rising(t *testing.T) {
	res := quietEngine().Compute(prices(110, 100))

	assert.Equal(t, model.TrendRising, res.Trend)
	assert.Equal(t, 10.0, res.PercentChange)
	assert.Equal(t, 110.0, res.CurrentPrice)
	assert.Equal(t, 0.0, res.Volatility)

	want := []string{"Significant price increase of 10.0%", FactorHistorical, FactorSeasonal}
	if diff := cmp.Diff(want, res.Factors); diff != "" {
		t.Errorf("factors mismatch (-want +got):\n%s", diff)
	}

	// Anchor 100 (oldest retained), slope (110-100)/2.
	assert.Equal(t, []float64{105, 110, 115, 120, 125, 130, 135}, forecastValues(res))
}

func TestCompute_Falling(t *testing.T) {
	res := quietEngine().Compute(prices(90, 100))

	assert.Equal(t, model.TrendFalling, res.Trend)
	assert.Equal(t, 10.0, res.PercentChange)
	assert.Equal(t, "Significant price decrease of 10.0%", res.Factors[0])
}

func TestCompute_SingleRecord(t *testing.T) {
	res := quietEngine().Compute(prices(100))

	assert.Equal(t, model.TrendStable, res.Trend)
	assert.Equal(t, 0.0, res.PercentChange)
	assert.Len(t, res.HistoricalPrices, 1)
	require.Len(t, res.ForecastPrices, ForecastHorizon)
	for _, p := range res.ForecastPrices {
		assert.Equal(t, 100.0, p.Price)
	}
}

func TestCompute_Empty(t *testing.T) {
	res := quietEngine().Compute(nil)

	assert.Equal(t, 0.0, res.CurrentPrice)
	assert.Equal(t, model.TrendStable, res.Trend)
	assert.NotNil(t, res.HistoricalPrices)
	assert.Empty(t, res.HistoricalPrices)
	assert.Equal(t, []string{FactorHistorical, FactorSeasonal}, res.Factors)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0}, forecastValues(res))

	noisy := NewEngine(WithClock(func() time.Time { return testNow })).Compute([]model.PriceRecord{})
	require.Len(t, noisy.ForecastPrices, ForecastHorizon)
	for _, p := range noisy.ForecastPrices {
		assert.LessOrEqual(t, math.Abs(p.Price), 1.0)
	}
}

func TestCompute_Equal(t *testing.T) {
	res := quietEngine().Compute(prices(100, 100))
	assert.Equal(t, model.TrendStable, res.Trend)
	assert.Equal(t, 0.0, res.PercentChange)
}

func TestCompute_ZeroPreviousPrice(t *testing.T) {
	res := quietEngine().Compute(prices(250, 0))

	assert.Equal(t, model.TrendRising, res.Trend)
	assert.Equal(t, 0.0, res.PercentChange)
	assert.False(t, math.IsInf(res.PercentChange, 0))
	assert.Equal(t, []string{FactorHistorical, FactorSeasonal}, res.Factors)
}

func TestCompute_PercentChangeRounding(t *testing.T) {
	res := quietEngine().Compute(prices(100, 150))
	assert.Equal(t, model.TrendFalling, res.Trend)
	assert.Equal(t, 33.3, res.PercentChange)

	res = quietEngine().Compute(prices(103, 100))
	assert.Equal(t, 3.0, res.PercentChange)
	assert.Equal(t, []string{FactorHistorical, FactorSeasonal}, res.Factors, "3% is not significant")
}

func TestCompute_SupplyFactor(t *testing.T) {
	tests := []struct {
		name      string
		cur, prev float64
		want      string
	}{
		{"increase", 120, 100, "Increased supply by 20.0%"},
		{"decrease", 80, 100, "Decreased supply by 20.0%"},
		{"within threshold", 105, 100, ""},
		{"exactly threshold", 110, 100, ""},
		{"zero previous", 50, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := prices(100, 100)
			records[0].Quantity = tt.cur
			records[1].Quantity = tt.prev

			res := quietEngine().Compute(records)
			if tt.want == "" {
				assert.Equal(t, []string{FactorHistorical, FactorSeasonal}, res.Factors)
				return
			}
			assert.Equal(t, []string{tt.want, FactorHistorical, FactorSeasonal}, res.Factors)
		})
	}
}

func TestCompute_Volatility(t *testing.T) {
	// Returns over the newest five: +0.1, -0.1, +0.1, -0.1. The sixth price is ignored.
	res := quietEngine().Compute(prices(100, 110, 99, 108.9, 98.01, 5000))
	assert.InDelta(t, 0.1, res.Volatility, 1e-9)

	res = quietEngine().Compute(prices(100, 150, 90))
	assert.InDelta(t, 0.45, res.Volatility, 1e-9)
	want := []string{
		"Significant price decrease of 33.3%",
		"High market volatility observed",
		FactorHistorical,
		FactorSeasonal,
	}
	if diff := cmp.Diff(want, res.Factors); diff != "" {
		t.Errorf("factors mismatch (-want +got):\n%s", diff)
	}

	// Only one usable return once zero bases are skipped.
	res = quietEngine().Compute(prices(0, 0, 100, 120))
	assert.Equal(t, 0.0, res.Volatility)
}

func TestCompute_HistoryWindow(t *testing.T) {
	ps := make([]float64, 20)
	for i := range ps {
		ps[i] = float64(200 - i)
	}
	records := prices(ps...)
	res := quietEngine().Compute(records)

	require.Len(t, res.HistoricalPrices, HistoryWindow)
	assert.Equal(t, records[0].Date, res.HistoricalPrices[0].Date)
	assert.Equal(t, 200.0, res.HistoricalPrices[0].Price)
	assert.Equal(t, 187.0, res.HistoricalPrices[HistoryWindow-1].Price)

	// Anchor 187, slope (200-187)/14.
	slope := 13.0 / 14.0
	for i, p := range res.ForecastPrices {
		assert.InDelta(t, 187+slope*float64(i+1), p.Price, 0.005)
	}
}

func TestCompute_ForecastDates(t *testing.T) {
	res := quietEngine().Compute(prices(10, 20, 30))

	require.Len(t, res.ForecastPrices, ForecastHorizon)
	want := []string{
		"2026-10-16", "2026-10-17", "2026-10-18", "2026-10-19",
		"2026-10-20", "2026-10-21", "2026-10-22",
	}
	for i, p := range res.ForecastPrices {
		assert.Equal(t, want[i], p.Date)
	}
}

func TestCompute_ForecastNoiseBounds(t *testing.T) {
	e := NewEngine(
		WithNoise(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return testNow }),
	)
	records := prices(120, 110, 100, 90)
	res := e.Compute(records)

	// Anchor 90, slope (120-90)/4.
	for i, p := range res.ForecastPrices {
		base := 90 + 7.5*float64(i+1)
		assert.InDelta(t, base, p.Price, 1.005, "day %d", i+1)
	}
}

func TestCompute_NonRandomPartsAreStable(t *testing.T) {
	e := NewEngine(WithClock(func() time.Time { return testNow }))
	records := prices(130, 120, 125, 90, 100)
	records[0].Quantity, records[1].Quantity = 10, 40

	a := e.Compute(records)
	b := e.Compute(records)

	assert.Equal(t, a.HistoricalPrices, b.HistoricalPrices)
	assert.Equal(t, a.Trend, b.Trend)
	assert.Equal(t, a.PercentChange, b.PercentChange)
	assert.Equal(t, a.Volatility, b.Volatility)
	assert.Equal(t, a.Factors, b.Factors)
	for i := range a.ForecastPrices {
		assert.Equal(t, a.ForecastPrices[i].Date, b.ForecastPrices[i].Date)
		assert.InDelta(t, a.ForecastPrices[i].Price, b.ForecastPrices[i].Price, 2.01)
	}
}

func TestCompute_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	for n := 0; n < 40; n++ {
		records := make([]model.PriceRecord, n)
		for i := range records {
			records[i] = model.PriceRecord{
				ModalPrice: float64(r.IntN(5)) * r.Float64() * 1000,
				Quantity:   float64(r.IntN(3)) * 10,
			}
		}
		res := quietEngine().Compute(records)

		assert.Len(t, res.HistoricalPrices, min(n, HistoryWindow))
		assert.Len(t, res.ForecastPrices, ForecastHorizon)
		assert.GreaterOrEqual(t, res.PercentChange, 0.0)
		assert.GreaterOrEqual(t, res.Volatility, 0.0)
		assert.False(t, math.IsNaN(res.Volatility))
		if res.Trend == model.TrendStable {
			assert.Equal(t, 0.0, res.PercentChange)
		}
		if n > 0 {
			assert.Equal(t, records[0].ModalPrice, res.CurrentPrice)
		}
		require.GreaterOrEqual(t, len(res.Factors), 2)
		assert.Equal(t, []string{FactorHistorical, FactorSeasonal}, res.Factors[len(res.Factors)-2:])
	}
}

func TestCompute_Concurrent(t *testing.T) {
	records := prices(110, 100, 105, 98)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := Compute(records)
			assert.Equal(t, model.TrendRising, res.Trend)
			assert.Len(t, res.ForecastPrices, ForecastHorizon)
		}()
	}
	wg.Wait()
}
