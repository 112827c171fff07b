package calculator

import (
	"fmt"
	"math"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Classification thresholds.
const (
	RSIOverboughtLevel = 70.0
	RSIOversoldLevel   = 30.0
	MACDSignalMinimum  = 0.3
)

// ClassifyTrend compares price with the 50/200-day averages.
func ClassifyTrend(price, sma50, sma200 float64) model.Trend {
	switch {
	case price > sma50 && sma50 > sma200:
		return model.TrendUp
	case price < sma50 && sma50 < sma200:
		return model.TrendDown
	default:
		return model.TrendConsolidating
	}
}

// ClassifyRSI buckets an RSI reading.
func ClassifyRSI(rsi float64) model.RSILevel {
	switch {
	case rsi >= RSIOverboughtLevel:
		return model.RSIOverbought
	case rsi <= RSIOversoldLevel:
		return model.RSIOversold
	case rsi >= 50:
		return model.RSIStrong
	default:
		return model.RSIWeak
	}
}

// DetectSignals applies the rule set to the latest readings. The moving
// average rules compare against price, or the last close when price is not
// positive. Nil rsi or macd skips the corresponding rules. Conflicting buy
// and sell signals are returned together.
func DetectSignals(closes []float64, price float64, rsi *float64, macd *model.MACD) []model.Signal {
	signals := []model.Signal{}

	if rsi != nil {
		switch {
		case *rsi <= RSIOversoldLevel:
			signals = append(signals, model.Signal{
				Type: model.SignalBuy, Indicator: "RSI", Strength: model.StrengthStrong, Value: *rsi,
				Message: fmt.Sprintf("RSI %.1f is oversold", *rsi),
			})
		case *rsi >= RSIOverboughtLevel:
			signals = append(signals, model.Signal{
				Type: model.SignalSell, Indicator: "RSI", Strength: model.StrengthStrong, Value: *rsi,
				Message: fmt.Sprintf("RSI %.1f is overbought", *rsi),
			})
		}
	}

	if macd != nil && math.Abs(macd.Histogram) > MACDSignalMinimum {
		if macd.Histogram > 0 {
			signals = append(signals, model.Signal{
				Type: model.SignalBuy, Indicator: "MACD", Strength: model.StrengthMedium, Value: macd.Histogram,
				Message: "MACD histogram positive, bullish momentum",
			})
		} else {
			signals = append(signals, model.Signal{
				Type: model.SignalSell, Indicator: "MACD", Strength: model.StrengthMedium, Value: macd.Histogram,
				Message: "MACD histogram negative, bearish momentum",
			})
		}
	}

	sma50, ok50 := SMA(closes, 50)
	sma200, ok200 := SMA(closes, 200)
	if ok50 && ok200 {
		if price <= 0 {
			price = closes[len(closes)-1]
		}
		switch {
		case sma50 > sma200 && price > sma50:
			signals = append(signals, model.Signal{
				Type: model.SignalBuy, Indicator: "MA_CROSS", Strength: model.StrengthStrong, Value: sma50 - sma200,
				Message: "golden cross: SMA50 above SMA200 with price above SMA50",
			})
		case sma50 < sma200 && price < sma50:
			signals = append(signals, model.Signal{
				Type: model.SignalSell, Indicator: "MA_CROSS", Strength: model.StrengthStrong, Value: sma50 - sma200,
				Message: "death cross: SMA50 below SMA200 with price below SMA50",
			})
		}
	}

	return signals
}
