// Package strategy turns an IndicatorSet into scores, a confidence number,
// an action and recommended price levels.
package strategy

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// RandSource supplies the confidence jitter. Implementations used by a
// shared Scorer must be safe for concurrent use.
type RandSource interface {
	Float64() float64
}

// RandFunc adapts a function to RandSource.
type RandFunc func() float64

func (f RandFunc) Float64() float64 { return f() }

// Fixed returns a RandSource that always yields v.
func Fixed(v float64) RandSource {
	return RandFunc(func() float64 { return v })
}

// Confidence bounds.
const (
	MinConfidence = 15
	MaxConfidence = 95
	jitterSpan    = 3.0
)

// Assessment is the full rule-based verdict for one holding.
type Assessment struct {
	Scores     model.ScoreCard   `json:"scores"`
	Levels     model.PriceLevels `json:"levels"`
	Action     model.Action      `json:"action"`
	Confidence int               `json:"confidence"`
}

// Scorer evaluates indicator sets. The zero value uses the global
// math/rand/v2 source.
type Scorer struct {
	Rand RandSource
}

// NewScorer creates a Scorer. A nil rnd selects the global random source.
func NewScorer(rnd RandSource) *Scorer {
	return &Scorer{Rand: rnd}
}

func (s *Scorer) source() RandSource {
	if s == nil || s.Rand == nil {
		return RandFunc(rand.Float64)
	}
	return s.Rand
}

// Score computes per-indicator scores and the bull/bear composite.
func Score(ind *model.IndicatorSet) model.ScoreCard {
	factors := []model.IndicatorScore{
		scoreRSI(ind),
		scoreMACD(ind),
		scoreMA(ind),
		scoreBollinger(ind),
	}

	card := model.ScoreCard{Indicators: factors}
	for _, f := range factors {
		card.Total += f.Score
		card.BullishScore += f.Bullish
		card.BearishScore += f.Bearish
	}
	card.BullishShare = bullishShare(card.BullishScore, card.BearishScore)
	card.Overall = overallLabel(card.BullishShare)
	return card
}

func bullishShare(bull, bear float64) float64 {
	if bull+bear <= 0 {
		return 50
	}
	return bull / (bull + bear) * 100
}

func overallLabel(share float64) string {
	switch {
	case share > 60:
		return fmt.Sprintf("bullish %.0f%%", share)
	case share < 40:
		return fmt.Sprintf("bearish %.0f%%", 100-share)
	default:
		return "neutral"
	}
}

// Confidence blends the composite share, RSI extremity, unrealized P/L and
// MACD/MA agreement into an integer in [MinConfidence, MaxConfidence].
func (s *Scorer) Confidence(card model.ScoreCard, ind *model.IndicatorSet, pnlPercent float64) int {
	c := 50.0
	c += (card.BullishShare - 50) / 50 * 25

	if rsi, ok := ind.RSIValue(); ok {
		c += math.Abs(rsi-50)/50*16 - 8
	}
	c += clamp(pnlPercent/3, -10, 10)

	bias := 0.0
	switch {
	case card.BullishShare > 50:
		bias = 1
	case card.BullishShare < 50:
		bias = -1
	}
	if bias != 0 {
		if ind.MACD != nil && ind.MACD.Histogram != 0 {
			c += 6 * agree(ind.MACD.Histogram > 0, bias > 0)
		}
		sma50, ok50 := ind.SMA50Value()
		sma200, ok200 := ind.SMA200Value()
		if ok50 && ok200 && sma50 != sma200 {
			c += 6 * agree(sma50 > sma200, bias > 0)
		}
	}

	c += math.Round(s.source().Float64()*2*jitterSpan - jitterSpan)

	if math.IsNaN(c) {
		return MinConfidence
	}
	return int(clamp(math.Round(c), MinConfidence, MaxConfidence))
}

func agree(a, b bool) float64 {
	if a == b {
		return 1
	}
	return -1
}

// ChooseAction maps the composite and P/L onto an action.
func ChooseAction(card model.ScoreCard, ind *model.IndicatorSet, pnlPercent float64) model.Action {
	rsi, rsiOK := ind.RSIValue()
	overbought := rsiOK && rsi >= 70

	switch {
	case card.BullishShare >= 65 && !overbought:
		return model.ActionBuyMore
	case card.BullishShare <= 35 && pnlPercent < -20:
		return model.ActionSell
	case card.BullishShare <= 35:
		return model.ActionReduce
	case pnlPercent > 30 && overbought:
		return model.ActionReduce
	default:
		return model.ActionHold
	}
}

// Evaluate runs the whole rule set for one holding. buyPrice <= 0 means no
// position; P/L is then 0.
func (s *Scorer) Evaluate(ind *model.IndicatorSet, currentPrice, buyPrice float64) Assessment {
	if currentPrice <= 0 {
		currentPrice = ind.Price
	}
	pnl := ProfitLossPercent(currentPrice, buyPrice)
	card := Score(ind)
	return Assessment{
		Scores:     card,
		Levels:     PriceLevels(currentPrice, buyPrice, ind),
		Action:     ChooseAction(card, ind, pnl),
		Confidence: s.Confidence(card, ind, pnl),
	}
}

// ProfitLossPercent is the unrealized gain of currentPrice over buyPrice.
func ProfitLossPercent(currentPrice, buyPrice float64) float64 {
	if buyPrice <= 0 || currentPrice <= 0 {
		return 0
	}
	return (currentPrice - buyPrice) / buyPrice * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
