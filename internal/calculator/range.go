package calculator

import (
	"math"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// tradingDays52w is the number of sessions in a 52-week window.
const tradingDays52w = 252

// Range52w scans the most recent 252 sessions and returns the high and low.
// ok is false for an empty series.
func Range52w(series *model.PriceSeries) (high, low float64, ok bool) {
	n := series.Len()
	if n == 0 {
		return 0, 0, false
	}
	start := n - tradingDays52w
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if series.High[i] > high {
			high = series.High[i]
		}
		// zero lows are missing upstream values, not real prices
		if series.Low[i] > 0 && series.Low[i] < low {
			low = series.Low[i]
		}
	}
	if math.IsInf(low, 1) {
		low = 0
	}
	return high, low, true
}

// Position returns where current sits within [low, high], clamped to 0.0~1.0.
func Position(current, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}

// RangeStats combines Range52w and Position for the current price.
func RangeStats(series *model.PriceSeries, current float64) (model.RangeStats, bool) {
	high, low, ok := Range52w(series)
	if !ok {
		return model.RangeStats{}, false
	}
	return model.RangeStats{
		High52w:     high,
		Low52w:      low,
		Position52w: Position(current, high, low),
	}, true
}
