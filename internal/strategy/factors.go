package strategy

import (
	"fmt"
	"math"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Each factor scores 0 (most bearish) to MaxFactorScore (most bullish), and
// adds to the separate bullish/bearish tallies that drive the overall label.
const (
	MaxFactorScore = 2.5
	neutralScore   = MaxFactorScore / 2

	weightMACD      = 8.0
	weightMACross   = 8.0
	weightRSI       = 7.0
	weightBollinger = 7.0
	weightRSIMid    = 3.0

	// histogram magnitude treated as a full-strength MACD reading
	macdFullStrength = 0.3
)

// scaled grades a fixed weight by how extreme a reading is: half the
// weight at the threshold, full weight at or beyond fullAt.
func scaled(weight, excess, fullAt float64) float64 {
	if fullAt <= 0 {
		return weight
	}
	return weight * (0.5 + 0.5*math.Min(1, math.Max(0, excess)/fullAt))
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(MaxFactorScore, v))
}

// scoreRSI scores oversold readings high and overbought readings low.
func scoreRSI(ind *model.IndicatorSet) model.IndicatorScore {
	rsi, ok := ind.RSIValue()
	if !ok {
		return model.IndicatorScore{Name: "RSI", Score: neutralScore, Commentary: "RSI unavailable"}
	}

	var score float64
	switch {
	case rsi <= 30:
		score = 2.5
	case rsi <= 40:
		score = 2.0
	case rsi <= 60:
		score = 1.25
	case rsi < 70:
		score = 0.75
	default:
		score = 0.25
	}

	s := model.IndicatorScore{Name: "RSI", Score: score}
	switch {
	case rsi <= 30:
		s.Bullish = scaled(weightRSI, 30-rsi, 20)
		s.Commentary = fmt.Sprintf("RSI %.1f oversold", rsi)
	case rsi >= 70:
		s.Bearish = scaled(weightRSI, rsi-70, 20)
		s.Commentary = fmt.Sprintf("RSI %.1f overbought", rsi)
	default:
		tilt := weightRSIMid * (rsi - 50) / 20
		if tilt > 0 {
			s.Bullish = tilt
		} else {
			s.Bearish = -tilt
		}
		s.Commentary = fmt.Sprintf("RSI %.1f neutral", rsi)
	}
	return s
}

// scoreMACD centres on neutral and moves with the histogram.
func scoreMACD(ind *model.IndicatorSet) model.IndicatorScore {
	if ind.MACD == nil {
		return model.IndicatorScore{Name: "MACD", Score: neutralScore, Commentary: "MACD unavailable"}
	}
	hist := ind.MACD.Histogram
	s := model.IndicatorScore{
		Name:  "MACD",
		Score: clampScore(neutralScore + math.Max(-neutralScore, math.Min(neutralScore, hist))),
	}
	switch {
	case hist > 0:
		s.Bullish = scaled(weightMACD, hist, macdFullStrength)
		s.Commentary = fmt.Sprintf("histogram %+.3f, bullish momentum", hist)
	case hist < 0:
		s.Bearish = scaled(weightMACD, -hist, macdFullStrength)
		s.Commentary = fmt.Sprintf("histogram %+.3f, bearish momentum", hist)
	default:
		s.Commentary = "histogram flat"
	}
	return s
}

// scoreMA scores price against SMA50 and SMA200 alignment.
func scoreMA(ind *model.IndicatorSet) model.IndicatorScore {
	sma50, ok50 := ind.SMA50Value()
	if !ok50 {
		return model.IndicatorScore{Name: "MA", Score: neutralScore, Commentary: "moving averages unavailable"}
	}
	price := ind.Price
	sma200, ok200 := ind.SMA200Value()

	s := model.IndicatorScore{Name: "MA"}
	switch {
	case ok200 && price > sma50 && sma50 > sma200:
		s.Score = 2.5
		s.Commentary = "price above rising averages"
	case price > sma50:
		s.Score = 1.75
		s.Commentary = "price above SMA50"
	case ok200 && price < sma50 && sma50 < sma200:
		s.Score = 0.25
		s.Commentary = "price below falling averages"
	default:
		s.Score = 1.0
		s.Commentary = "price below SMA50"
	}

	if ok200 {
		switch {
		case sma50 > sma200:
			s.Bullish = weightMACross
			if price <= sma50 {
				s.Bullish *= 0.5
			}
		case sma50 < sma200:
			s.Bearish = weightMACross
			if price >= sma50 {
				s.Bearish *= 0.5
			}
		}
	}
	return s
}

// scoreBollinger scores the position inside the bands; near the lower band
// is bullish.
func scoreBollinger(ind *model.IndicatorSet) model.IndicatorScore {
	b := ind.Bollinger
	if b == nil {
		return model.IndicatorScore{Name: "Bollinger", Score: neutralScore, Commentary: "Bollinger bands unavailable"}
	}
	width := b.Upper - b.Lower
	if width <= 0 {
		return model.IndicatorScore{Name: "Bollinger", Score: neutralScore, Commentary: "bands collapsed"}
	}
	price := ind.Price
	pos := (price - b.Lower) / width

	s := model.IndicatorScore{
		Name:       "Bollinger",
		Score:      clampScore(MaxFactorScore * (1 - pos)),
		Commentary: fmt.Sprintf("%.0f%% of band width", pos*100),
	}
	switch {
	case price < b.Lower:
		s.Bullish = scaled(weightBollinger, b.Lower-price, width)
		s.Commentary = "below lower band"
	case price > b.Upper:
		s.Bearish = scaled(weightBollinger, price-b.Upper, width)
		s.Commentary = "above upper band"
	}
	return s
}
