package calculator

import (
	"math"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Bollinger band defaults.
const (
	BollingerPeriod     = 20
	BollingerDeviations = 2.0
)

// Bollinger computes the bands over the trailing period using the
// population standard deviation.
func Bollinger(closes []float64, period int, deviations float64) (model.Bollinger, bool) {
	middle, ok := SMA(closes, period)
	if !ok {
		return model.Bollinger{}, false
	}
	width := deviations * stdDev(closes[len(closes)-period:], middle)
	return model.Bollinger{
		Upper:  middle + width,
		Middle: middle,
		Lower:  middle - width,
	}, true
}

// Volatility is the population standard deviation of the trailing period closes.
func Volatility(closes []float64, period int) (float64, bool) {
	mean, ok := SMA(closes, period)
	if !ok {
		return 0, false
	}
	return stdDev(closes[len(closes)-period:], mean), true
}

func stdDev(window []float64, mean float64) float64 {
	squareSum := 0.0
	for _, p := range window {
		diff := p - mean
		squareSum += diff * diff
	}
	return math.Sqrt(squareSum / float64(len(window)))
}
