package strategy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Hard bounds on recommended levels relative to the current price.
const (
	MaxStopLossRatio = 0.95
	MaxAddMoreRatio  = 0.98
	MinTargetRatio   = 1.02
	// TargetFloorProfitLimit is the profit percent above which MinTargetRatio
	// no longer applies.
	TargetFloorProfitLimit = 50.0
)

// band is one row of the profit/loss ladder.
type band struct {
	above  float64 // P/L strictly greater than this selects the row
	levels func(cur, buy float64) (stop, target, add float64)
	reason string
}

var ladder = []band{
	{20, func(cur, buy float64) (float64, float64, float64) {
		return math.Max(buy*1.10, cur*0.90), cur * 1.15, cur * 0.90
	}, "profit above 20%, stop locks in gains above cost"},
	{10, func(cur, buy float64) (float64, float64, float64) {
		return math.Max(buy*1.02, cur*0.92), cur * 1.12, cur * 0.93
	}, "profit 10-20%, stop protects cost plus 2%"},
	{0, func(cur, buy float64) (float64, float64, float64) {
		return math.Min(buy*0.97, cur*0.93), cur * 1.10, cur * 0.95
	}, "small profit, stop just below cost"},
	{-10, func(cur, buy float64) (float64, float64, float64) {
		return cur * 0.92, math.Max(buy, cur*1.08), cur * 0.95
	}, "small loss, target is breakeven"},
	{-20, func(cur, _ float64) (float64, float64, float64) {
		return cur * 0.90, cur * 1.12, cur * 0.93
	}, "loss 10-20%, wider stop"},
	{-30, func(cur, _ float64) (float64, float64, float64) {
		return cur * 0.88, cur * 1.15, cur * 0.90
	}, "loss 20-30%, averaging down only on deeper pullback"},
	{math.Inf(-1), func(cur, _ float64) (float64, float64, float64) {
		return cur * 0.85, cur * 1.20, cur * 0.88
	}, "loss beyond 30%, recovery target"},
}

// PriceLevels computes stop-loss, add-more and target prices from the P/L
// ladder, refines them with RSI and support/resistance levels, then clamps
// them to the hard bounds. Prices are rounded to the cent without crossing
// a bound.
func PriceLevels(currentPrice, buyPrice float64, ind *model.IndicatorSet) model.PriceLevels {
	if currentPrice <= 0 || math.IsNaN(currentPrice) || math.IsInf(currentPrice, 0) {
		return model.PriceLevels{
			StopLossReason: "no current price",
			AddMoreReason:  "no current price",
			TargetReason:   "no current price",
		}
	}
	cur := currentPrice
	buy := buyPrice
	if buy <= 0 {
		buy = cur
	}
	pnl := ProfitLossPercent(cur, buyPrice)

	var (
		stop, target, add float64
		base              string
	)
	for _, b := range ladder {
		if pnl > b.above {
			stop, target, add = b.levels(cur, buy)
			base = b.reason
			break
		}
	}
	stopWhy, targetWhy, addWhy := base, base, base

	rsi, rsiOK := ind.RSIValue()
	if rsiOK && rsi >= 70 {
		if capT := cur * 1.05; target > capT {
			target = capT
			targetWhy = fmt.Sprintf("RSI %.0f overbought, target capped at +5%%", rsi)
		}
		if tight := cur * 0.93; stop < tight {
			stop = tight
			stopWhy = fmt.Sprintf("RSI %.0f overbought, stop tightened to -7%%", rsi)
		}
	}
	if rsiOK && rsi <= 30 {
		if near := cur * 0.97; add < near {
			add = near
			addWhy = fmt.Sprintf("RSI %.0f oversold, add on a shallow dip", rsi)
		}
		if t := cur * 1.10; target < t {
			target = t
			targetWhy = fmt.Sprintf("RSI %.0f oversold, rebound target +10%%", rsi)
		}
	}

	if sma50, ok := ind.SMA50Value(); ok {
		if support := sma50 * 0.98; support > stop && support < cur {
			stop = support
			stopWhy = fmt.Sprintf("just below SMA50 support %.2f", sma50)
		}
	}
	lo, hi := cur*0.85, cur*0.98
	if sma200, ok := ind.SMA200Value(); ok && sma200 >= lo && sma200 <= hi && sma200 > add {
		add = sma200
		addWhy = fmt.Sprintf("SMA200 support %.2f", sma200)
	}
	if b := ind.Bollinger; b != nil {
		if b.Lower >= lo && b.Lower <= hi && b.Lower > add {
			add = b.Lower
			addWhy = fmt.Sprintf("lower Bollinger band %.2f", b.Lower)
		}
		if b.Upper > cur*MinTargetRatio && b.Upper < target {
			target = b.Upper
			targetWhy = fmt.Sprintf("upper Bollinger band resistance %.2f", b.Upper)
		}
	}

	if pnl > TargetFloorProfitLimit && rsiOK && rsi >= 70 {
		target = cur
		targetWhy = fmt.Sprintf("profit %.0f%% with RSI %.0f, take profit at market", pnl, rsi)
	}

	// Hard bounds, re-checked after rounding to the cent.
	maxStop, maxAdd, minTarget := cur*MaxStopLossRatio, cur*MaxAddMoreRatio, cur*MinTargetRatio
	if stop > maxStop {
		stopWhy += "; capped at 5% below price"
	}
	if stop = round2(math.Max(0, stop)); stop > maxStop {
		stop = roundDown(maxStop)
	}
	if add > maxAdd {
		addWhy += "; capped at 2% below price"
	}
	if add = round2(math.Max(0, add)); add > maxAdd {
		add = roundDown(maxAdd)
	}
	floorApplies := pnl <= TargetFloorProfitLimit
	if floorApplies && target < minTarget {
		targetWhy += "; raised to 2% above price"
	}
	if target = round2(target); floorApplies && target < minTarget {
		target = roundUp(minTarget)
	}

	return model.PriceLevels{
		StopLoss:          stop,
		StopLossReason:    stopWhy,
		AddMorePrice:      add,
		AddMoreReason:     addWhy,
		TargetPrice:       target,
		TargetReason:      targetWhy,
		ProfitLossPercent: round2(pnl),
	}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func roundDown(v float64) float64 {
	return decimal.NewFromFloat(v).RoundFloor(2).InexactFloat64()
}

func roundUp(v float64) float64 {
	return decimal.NewFromFloat(v).RoundCeil(2).InexactFloat64()
}
