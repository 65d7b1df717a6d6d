package trend

import (
	"AgriGenie/internal/calculator"
	"AgriGenie/internal/model"
)

// forecast extrapolates ForecastHorizon daily prices from the retained
// history (newest-first). The anchor is the oldest retained price and the
// slope is newest minus oldest over the window length. Each point carries
// uniform noise in [-1, 1) and is rounded to two decimals.
func (e *Engine) forecast(history []model.PricePoint) []model.PricePoint {
	var anchor, slope float64
	if n := len(history); n > 0 {
		anchor = history[n-1].Price
		if n >= 2 {
			slope = (history[0].Price - history[n-1].Price) / float64(n)
		}
	}

	today := e.now()
	points := make([]model.PricePoint, ForecastHorizon)
	for i := 0; i < ForecastHorizon; i++ {
		step := float64(i + 1)
		noise := e.noise.Float64()*2 - 1
		points[i] = model.PricePoint{
			Date:  today.AddDate(0, 0, i+1).Format(DateLayout),
			Price: calculator.Round(anchor+slope*step+noise, 2),
		}
	}
	return points
}
