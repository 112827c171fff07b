package calculator

import "github.com/ryanchan0215/stock-analysis-backend/internal/model"

// SMA computes the simple moving average of the last period prices.
// ok is false when there are fewer than period prices.
func SMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), true
}

// SMAHistory returns one trailing-window SMA per index from period-1 to
// len(prices)-1, so its length is len(prices)-period+1 (or 0).
func SMAHistory(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}
	out := make([]float64, 0, len(prices)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	out = append(out, sum/float64(period))
	for i := period; i < len(prices); i++ {
		sum += prices[i] - prices[i-period]
		out = append(out, sum/float64(period))
	}
	return out
}

// EMA computes the exponential moving average over the whole series,
// seeded with the SMA of the first period prices.
func EMA(prices []float64, period int) (float64, bool) {
	series := emaSeries(prices, period)
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// EMAAt evaluates the EMA using only prices[0..index], so a day-by-day
// history built from it has no look-ahead.
func EMAAt(prices []float64, period, index int) (float64, bool) {
	if index < period-1 || index >= len(prices) {
		return 0, false
	}
	return EMA(prices[:index+1], period)
}

// emaSeries returns the EMA for every index from period-1 onward.
// Because the recurrence only looks backwards, element k equals
// EMAAt(prices, period, period-1+k).
func emaSeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	multiplier := 2.0 / float64(period+1)
	out := make([]float64, 0, len(prices)-period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)
	out = append(out, ema)

	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		out = append(out, ema)
	}
	return out
}

// Closes extracts close prices from bars.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
