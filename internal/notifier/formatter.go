package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

var actionIcon = map[model.Action]string{
	model.ActionBuyMore: "🟢",
	model.ActionHold:    "⚪",
	model.ActionReduce:  "🟠",
	model.ActionSell:    "🔴",
}

// Actionable keeps advice that asks for a trade: anything but HOLD, and
// never degraded records.
func Actionable(advice []model.AdviceRecord) []model.AdviceRecord {
	var out []model.AdviceRecord
	for _, r := range advice {
		if r.Degraded || r.Action == model.ActionHold {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FormatAdviceDigest formats a portfolio's actionable advice into a Telegram
// message. It returns "" when nothing needs attention.
func FormatAdviceDigest(portfolio string, advice []model.AdviceRecord) string {
	act := Actionable(advice)
	if len(act) == 0 {
		return ""
	}
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>%s</b> | %s\n\n", html.EscapeString(portfolio), time.Now().Format("2006-01-02"))
	for _, r := range act {
		fmt.Fprintf(&b, "%s <b>%s</b> %s (%d%%)\n", actionIcon[r.Action], html.EscapeString(r.Symbol), r.Action, r.Confidence)
		fmt.Fprintf(&b, "   price %.2f | P/L %+.1f%%\n", r.CurrentPrice, r.ProfitLoss)
		fmt.Fprintf(&b, "   stop %.2f | add %.2f | target %.2f\n", r.StopLoss, r.AddMorePrice, r.TargetPrice)
	}

	degraded := 0
	for _, r := range advice {
		if r.Degraded {
			degraded++
		}
	}
	fmt.Fprintf(&b, "\n%d of %d holdings need attention", len(act), len(advice))
	if degraded > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d holdings could not be analysed", degraded)
	}
	return b.String()
}

// FormatQuote formats a quote reply.
func FormatQuote(q model.Quote) string {
	icon := "📈"
	if q.Change < 0 {
		icon = "📉"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b> %.2f (%+.2f, %+.2f%%)\n", icon, html.EscapeString(q.Symbol), q.CurrentPrice, q.Change, q.ChangePercent)
	fmt.Fprintf(&b, "open %.2f | high %.2f | low %.2f\n", q.Open, q.High, q.Low)
	fmt.Fprintf(&b, "prev close %.2f | volume %.0f", q.PreviousClose, q.Volume)
	return b.String()
}

// HelpText lists the supported commands.
const HelpText = "Available commands:\n" +
	"• /quote SYMBOL - latest quote\n" +
	"• /advice PORTFOLIO_ID - run advice for a portfolio\n" +
	"• /portfolios - list portfolios"
