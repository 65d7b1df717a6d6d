package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"AgriGenie/internal/model"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   []float64
	}{
		{"empty", nil, nil},
		{"single", []float64{100}, nil},
		{"pair", []float64{100, 110}, []float64{0.1}},
		{"zero base skipped", []float64{0, 100, 50}, []float64{-0.5}},
		{"all zero", []float64{0, 0, 0}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReturns(tt.prices)
			assert.Equal(t, len(tt.want), len(got))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestCalculateVolatility(t *testing.T) {
	// Returns: +0.1, -0.1 -> mean 0, population variance 0.01.
	vol := CalculateVolatility([]float64{100, 110, 99})
	assert.InDelta(t, 0.1, vol, 1e-9)

	assert.Equal(t, 0.0, CalculateVolatility(nil))
	assert.Equal(t, 0.0, CalculateVolatility([]float64{100}))
	assert.Equal(t, 0.0, CalculateVolatility([]float64{100, 120}), "one return has no dispersion")
	assert.Equal(t, 0.0, CalculateVolatility([]float64{0, 0, 100}), "only one usable pair")
	assert.Equal(t, 0.0, CalculateVolatility([]float64{50, 50, 50, 50}))
}

func TestCalculatePercentChange(t *testing.T) {
	assert.InDelta(t, 10.0, CalculatePercentChange(110, 100), 1e-9)
	assert.InDelta(t, 10.0, CalculatePercentChange(90, 100), 1e-9)
	assert.Equal(t, 0.0, CalculatePercentChange(500, 0))
	assert.Equal(t, 0.0, CalculatePercentChange(100, 100))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.3, Round(12.34, 1))
	assert.Equal(t, 12.4, Round(12.35, 1))
	assert.Equal(t, -1.24, Round(-1.235, 2))
	assert.Equal(t, 100.0, Round(99.999, 2))
	assert.Equal(t, 0.0, Round(math.NaN(), 2))
	assert.Equal(t, 0.0, Round(math.Inf(1), 2))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "10.0", FormatPercent(10))
	assert.Equal(t, "7.3", FormatPercent(7.25))
	assert.Equal(t, "0.0", FormatPercent(math.NaN()))
}

func TestCalculatePriceBand(t *testing.T) {
	records := []model.PriceRecord{
		{ModalPrice: 2000, MinPrice: 1800, MaxPrice: 2200},
		{ModalPrice: 2100, MinPrice: 1900, MaxPrice: 2400},
		{ModalPrice: 1700},
		{ModalPrice: 0},
	}
	band := CalculatePriceBand(records)
	assert.Equal(t, 1700.0, band.Low)
	assert.Equal(t, 2400.0, band.High)
	assert.Equal(t, 1933.33, band.Average)

	assert.Equal(t, model.PriceBand{}, CalculatePriceBand(nil))
	assert.Equal(t, model.PriceBand{}, CalculatePriceBand([]model.PriceRecord{{}}))
}
