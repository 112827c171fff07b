package calculator

import "github.com/ryanchan0215/stock-analysis-backend/internal/model"

// Standard MACD periods.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACDHistory returns one MACD point per index from slow-1 to len(closes)-1.
// The result is right-aligned: point k belongs to closes[len(closes)-len(result)+k].
// Until the MACD line has signal points the signal line is reported as 0 and
// the histogram equals the MACD line.
// Requires len(closes) >= slow+signal; returns an empty slice otherwise.
func MACDHistory(closes []float64, fast, slow, signal int) []model.MACD {
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal {
		return []model.MACD{}
	}

	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)
	multiplier := 2.0 / float64(signal+1)

	out := make([]model.MACD, 0, len(closes)-slow+1)
	var (
		seedSum    float64
		signalLine float64
	)
	for idx := slow - 1; idx < len(closes); idx++ {
		macdLine := fastEMA[idx-(fast-1)] - slowEMA[idx-(slow-1)]
		n := len(out) + 1 // MACD-line points so far, including this one

		point := model.MACD{MACDLine: macdLine}
		switch {
		case n < signal:
			seedSum += macdLine
			point.Histogram = macdLine
		case n == signal:
			seedSum += macdLine
			signalLine = seedSum / float64(signal)
			point.SignalLine = signalLine
			point.Histogram = macdLine - signalLine
		default:
			signalLine = (macdLine-signalLine)*multiplier + signalLine
			point.SignalLine = signalLine
			point.Histogram = macdLine - signalLine
		}
		out = append(out, point)
	}
	return out
}

// MACDCurrent returns the latest MACD point. ok is false when there are
// fewer than slow+signal closes.
func MACDCurrent(closes []float64, fast, slow, signal int) (model.MACD, bool) {
	hist := MACDHistory(closes, fast, slow, signal)
	if len(hist) == 0 {
		return model.MACD{}, false
	}
	return hist[len(hist)-1], true
}
