package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Fallback renders the narrative from the computed data alone. It always
// produces every section, whatever is missing.
func Fallback(in Input) string {
	var b strings.Builder
	q := in.Quote
	ind := in.Indicators
	if ind == nil {
		ind = &model.IndicatorSet{Trend: model.TrendUnknown, RSILevel: model.RSIUnknown}
	}
	a := in.Assessment
	price := q.CurrentPrice

	b.WriteString("## Status\n")
	fmt.Fprintf(&b, "%s trades at %.2f (%+.2f, %+.2f%% today).", q.Symbol, price, q.Change, q.ChangePercent)
	if h := in.Holding; h != nil && h.BuyPrice > 0 {
		pnl := in.pnl()
		fmt.Fprintf(&b, " Position of %.4g shares bought at %.2f is %s %.2f%% (%+.2f).",
			h.Quantity, h.BuyPrice, upDown(pnl), math.Abs(pnl), (price-h.BuyPrice)*h.Quantity)
	} else {
		b.WriteString(" No open position.")
	}
	b.WriteString("\n\n")

	b.WriteString("## Key Observations\n")
	for _, line := range observations(price, ind, in.Range) {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	b.WriteString("\n")

	b.WriteString("## Technical & Fundamental Read\n")
	fmt.Fprintf(&b, "Technical: composite score %.1f/10, overall %s, trend %s.", a.Scores.Total, a.Scores.Overall, ind.Trend)
	if n := len(ind.Signals); n > 0 {
		buys, sells := 0, 0
		for _, s := range ind.Signals {
			if s.Type == model.SignalBuy {
				buys++
			} else {
				sells++
			}
		}
		fmt.Fprintf(&b, " %d buy and %d sell signals active.", buys, sells)
	}
	b.WriteString("\n")
	if p := in.Profile; p != nil && p.Name != model.Unknown {
		fmt.Fprintf(&b, "Fundamental: %s (%s, %s)", p.Name, p.Industry, p.Exchange)
		if p.MarketCapitalizationBillions > 0 {
			fmt.Fprintf(&b, ", market cap %.1fB %s", p.MarketCapitalizationBillions, p.Currency)
		}
		b.WriteString(".\n")
	} else {
		b.WriteString("Fundamental: company profile unavailable.\n")
	}
	if len(in.News) > 0 {
		fmt.Fprintf(&b, "Latest headline: %s\n", in.News[0].Headline)
	}
	b.WriteString("\n")

	lv := a.Levels
	b.WriteString("## Scenarios\n")
	fmt.Fprintf(&b, "- Bull: price reaches the %.2f target, %s the current price.\n", lv.TargetPrice, pctFrom(price, lv.TargetPrice))
	fmt.Fprintf(&b, "- Base: range trading between %.2f and %.2f.\n", lv.AddMorePrice, lv.TargetPrice)
	fmt.Fprintf(&b, "- Bear: price breaks the %.2f stop, %s the current price.\n", lv.StopLoss, pctFrom(price, lv.StopLoss))
	b.WriteString("\n")

	b.WriteString("## Action\n")
	fmt.Fprintf(&b, "%s with %d%% confidence.\n", a.Action, a.Confidence)
	fmt.Fprintf(&b, "- Stop-loss %.2f: %s\n", lv.StopLoss, lv.StopLossReason)
	fmt.Fprintf(&b, "- Add more at %.2f: %s\n", lv.AddMorePrice, lv.AddMoreReason)
	fmt.Fprintf(&b, "- Target %.2f: %s\n", lv.TargetPrice, lv.TargetReason)
	b.WriteString("\n")

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "%s: %s, %s bias, stop %.2f, target %.2f.\n", q.Symbol, a.Action, a.Scores.Overall, lv.StopLoss, lv.TargetPrice)
	return b.String()
}

func observations(price float64, ind *model.IndicatorSet, r *model.RangeStats) []string {
	var out []string
	if rsi, ok := ind.RSIValue(); ok {
		out = append(out, fmt.Sprintf("RSI %.1f reads %s.", rsi, ind.RSILevel))
	} else {
		out = append(out, "RSI unavailable.")
	}
	if sma50, ok := ind.SMA50Value(); ok {
		line := fmt.Sprintf("Price is %s SMA50 (%.2f)", pctFrom(sma50, price), sma50)
		if sma200, ok := ind.SMA200Value(); ok {
			line += fmt.Sprintf(" and %s SMA200 (%.2f)", pctFrom(sma200, price), sma200)
		}
		out = append(out, line+".")
	} else {
		out = append(out, "Moving averages need more history.")
	}
	if m := ind.MACD; m != nil {
		dir := "positive"
		if m.Histogram < 0 {
			dir = "negative"
		}
		out = append(out, fmt.Sprintf("MACD histogram %s at %+.3f.", dir, m.Histogram))
	}
	if bb := ind.Bollinger; bb != nil && bb.Upper > bb.Lower {
		out = append(out, fmt.Sprintf("Price sits at %.0f%% of the Bollinger band width.", (price-bb.Lower)/(bb.Upper-bb.Lower)*100))
	}
	if r != nil && r.High52w > 0 {
		out = append(out, fmt.Sprintf("52-week range %.2f-%.2f, price at %.0f%% of range.", r.Low52w, r.High52w, r.Position52w*100))
	}
	if ind.Message != "" {
		out = append(out, ind.Message+".")
	}
	return out
}

// pctFrom describes to relative to from, e.g. "4.2% above".
func pctFrom(from, to float64) string {
	if from == 0 {
		return "n/a"
	}
	d := (to - from) / from * 100
	return fmt.Sprintf("%.1f%% %s", math.Abs(d), aboveBelow(d))
}

func aboveBelow(d float64) string {
	if d < 0 {
		return "below"
	}
	return "above"
}

func upDown(d float64) string {
	if d < 0 {
		return "down"
	}
	return "up"
}
