package calculator

import (
	"math"

	"AgriGenie/internal/model"
)

// CalculatePriceBand scans records for the lowest and highest quoted prices
// and the mean modal price. A record without a min (max) quote contributes
// its modal price instead. Zero prices are ignored; an empty or all-zero
// input yields a zero band.
func CalculatePriceBand(records []model.PriceRecord) model.PriceBand {
	low := math.Inf(1)
	high := math.Inf(-1)
	var sum float64
	var n int

	for _, r := range records {
		lo := r.MinPrice
		if lo == 0 {
			lo = r.ModalPrice
		}
		hi := r.MaxPrice
		if hi == 0 {
			hi = r.ModalPrice
		}
		if lo > 0 && lo < low {
			low = lo
		}
		if hi > 0 && hi > high {
			high = hi
		}
		if r.ModalPrice > 0 {
			sum += r.ModalPrice
			n++
		}
	}

	var band model.PriceBand
	if !math.IsInf(low, 1) {
		band.Low = low
	}
	if !math.IsInf(high, -1) {
		band.High = high
	}
	if n > 0 {
		band.Average = Round(sum/float64(n), 2)
	}
	return band
}
