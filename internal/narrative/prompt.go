// Package narrative produces the natural-language commentary attached to
// advice: it prompts a language model through an ordered list of models and
// falls back to a deterministic template when none answers.
package narrative

import (
	"fmt"
	"strings"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
	"github.com/ryanchan0215/stock-analysis-backend/internal/strategy"
)

// Input is everything the narrative may draw on. Holding, Profile, Range
// and News are optional.
type Input struct {
	Quote      model.Quote
	Indicators *model.IndicatorSet
	Range      *model.RangeStats
	Profile    *model.CompanyProfile
	News       []model.NewsItem
	Holding    *model.Holding
	Assessment strategy.Assessment
}

func (in Input) pnl() float64 {
	if in.Holding == nil {
		return 0
	}
	return strategy.ProfitLossPercent(in.Quote.CurrentPrice, in.Holding.BuyPrice)
}

const systemPrompt = `You are a disciplined equity analyst writing for a retail investor.
Use only the data provided. Be concrete about price levels and risks.
Structure the answer with these sections: Status, Key Observations,
Technical & Fundamental Read, Scenarios (bull, base, bear), Action, Summary.
End with one fenced json block of the form
{"action":"HOLD|BUY_MORE|REDUCE|SELL","confidence":0-100,"targetPrice":number,"stopLoss":number,"addMorePrice":number}`

// BuildPrompt returns the system and user messages for in.
func BuildPrompt(in Input) (system, user string) {
	var b strings.Builder
	q := in.Quote
	ind := in.Indicators
	if ind == nil {
		ind = &model.IndicatorSet{}
	}

	fmt.Fprintf(&b, "Symbol: %s\n", q.Symbol)
	fmt.Fprintf(&b, "Date: %s\n\n", time.Now().UTC().Format("2006-01-02"))

	b.WriteString("Quote\n")
	fmt.Fprintf(&b, "- price %.2f, change %+.2f (%+.2f%%)\n", q.CurrentPrice, q.Change, q.ChangePercent)
	fmt.Fprintf(&b, "- open %.2f, high %.2f, low %.2f, previous close %.2f, volume %.0f\n",
		q.Open, q.High, q.Low, q.PreviousClose, q.Volume)

	if h := in.Holding; h != nil {
		b.WriteString("\nPosition\n")
		fmt.Fprintf(&b, "- %.4g shares at %.2f, unrealized P/L %+.2f%%\n", h.Quantity, h.BuyPrice, in.pnl())
	} else {
		b.WriteString("\nPosition: none (prospective analysis)\n")
	}

	b.WriteString("\nIndicators\n")
	fmt.Fprintf(&b, "- RSI(14): %s (%s)\n", fmtPtr(ind.RSI, "%.1f"), ind.RSILevel)
	fmt.Fprintf(&b, "- SMA20: %s, SMA50: %s, SMA200: %s\n",
		fmtPtr(ind.SMA20, "%.2f"), fmtPtr(ind.SMA50, "%.2f"), fmtPtr(ind.SMA200, "%.2f"))
	if m := ind.MACD; m != nil {
		fmt.Fprintf(&b, "- MACD: line %.3f, signal %.3f, histogram %+.3f\n", m.MACDLine, m.SignalLine, m.Histogram)
	} else {
		b.WriteString("- MACD: unavailable\n")
	}
	if bb := ind.Bollinger; bb != nil {
		fmt.Fprintf(&b, "- Bollinger(20,2): upper %.2f, middle %.2f, lower %.2f\n", bb.Upper, bb.Middle, bb.Lower)
	} else {
		b.WriteString("- Bollinger: unavailable\n")
	}
	fmt.Fprintf(&b, "- volatility: %s, trend: %s\n", fmtPtr(ind.Volatility, "%.2f"), ind.Trend)
	if r := in.Range; r != nil {
		fmt.Fprintf(&b, "- 52-week range %.2f - %.2f, position %.0f%%\n", r.Low52w, r.High52w, r.Position52w*100)
	}
	if len(ind.Signals) > 0 {
		b.WriteString("- signals:")
		for _, s := range ind.Signals {
			fmt.Fprintf(&b, " %s %s (%s);", s.Strength, s.Type, s.Indicator)
		}
		b.WriteString("\n")
	}
	if ind.Message != "" {
		fmt.Fprintf(&b, "- note: %s\n", ind.Message)
	}

	a := in.Assessment
	b.WriteString("\nRule-based scoring\n")
	fmt.Fprintf(&b, "- composite %.2f/10, %s, rule action %s, confidence %d\n",
		a.Scores.Total, a.Scores.Overall, a.Action, a.Confidence)
	fmt.Fprintf(&b, "- stop-loss %.2f (%s)\n", a.Levels.StopLoss, a.Levels.StopLossReason)
	fmt.Fprintf(&b, "- add-more %.2f (%s)\n", a.Levels.AddMorePrice, a.Levels.AddMoreReason)
	fmt.Fprintf(&b, "- target %.2f (%s)\n", a.Levels.TargetPrice, a.Levels.TargetReason)

	if p := in.Profile; p != nil {
		b.WriteString("\nCompany\n")
		fmt.Fprintf(&b, "- %s, %s, %s, market cap %.1fB %s\n", p.Name, p.Industry, p.Country,
			p.MarketCapitalizationBillions, p.Currency)
	}
	if len(in.News) > 0 {
		b.WriteString("\nRecent news\n")
		for _, n := range in.News {
			fmt.Fprintf(&b, "- %s (%s)\n", n.Headline, n.Source)
		}
	}
	return systemPrompt, b.String()
}

func fmtPtr(v *float64, format string) string {
	if v == nil {
		return "unavailable"
	}
	return fmt.Sprintf(format, *v)
}
