// Package advisor turns market data into holding advice: collect, score,
// narrate and merge the model's verdict with the rule-based assessment.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/ryanchan0215/stock-analysis-backend/internal/collector"
	"github.com/ryanchan0215/stock-analysis-backend/internal/metrics"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
	"github.com/ryanchan0215/stock-analysis-backend/internal/narrative"
	"github.com/ryanchan0215/stock-analysis-backend/internal/strategy"
)

// DefaultConcurrency bounds how many holdings a batch analyses at once.
const DefaultConcurrency = 8

// Advisor produces advice for holdings and analyses for bare symbols.
type Advisor struct {
	Collector   *collector.Collector
	Scorer      *strategy.Scorer
	Narrator    *narrative.Generator
	Metrics     *metrics.Metrics
	Concurrency int
}

// New creates an Advisor.
func New(col *collector.Collector, scorer *strategy.Scorer, narrator *narrative.Generator, m *metrics.Metrics) *Advisor {
	return &Advisor{
		Collector:   col,
		Scorer:      scorer,
		Narrator:    narrator,
		Metrics:     m,
		Concurrency: DefaultConcurrency,
	}
}

// Analysis is the no-holding view of a symbol.
type Analysis struct {
	Symbol     string                `json:"symbol"`
	Quote      model.Quote           `json:"quote"`
	Indicators *model.IndicatorSet   `json:"indicators"`
	Range      *model.RangeStats     `json:"range,omitempty"`
	Profile    *model.CompanyProfile `json:"profile,omitempty"`
	News       []model.NewsItem      `json:"news"`
	Assessment strategy.Assessment   `json:"assessment"`
	Narrative  string                `json:"narrative"`
	Model      string                `json:"model"`
}

// Analyze collects an enriched snapshot of symbol and narrates it without a
// position. Quote and series failures are returned.
func (a *Advisor) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	snap, err := a.Collector.Collect(ctx, symbol, true)
	if err != nil {
		return nil, err
	}
	price := snap.Quote.CurrentPrice
	assessment := a.Scorer.Evaluate(snap.Indicators, price, price)
	res := a.Narrator.Generate(ctx, narrative.Input{
		Quote:      snap.Quote,
		Indicators: snap.Indicators,
		Range:      snap.Range,
		Profile:    snap.Profile,
		News:       snap.News,
		Assessment: assessment,
	})
	news := snap.News
	if news == nil {
		news = []model.NewsItem{}
	}
	return &Analysis{
		Symbol:     snap.Symbol,
		Quote:      snap.Quote,
		Indicators: snap.Indicators,
		Range:      snap.Range,
		Profile:    snap.Profile,
		News:       news,
		Assessment: assessment,
		Narrative:  res.Text,
		Model:      res.Model,
	}, nil
}

// AdviseHolding produces advice for one position. It fails only when the
// quote or the price history cannot be fetched.
func (a *Advisor) AdviseHolding(ctx context.Context, h model.Holding) (model.AdviceRecord, error) {
	snap, err := a.Collector.Collect(ctx, h.Symbol, true)
	if err != nil {
		return model.AdviceRecord{}, fmt.Errorf("advise %s: %w", collector.NormalizeSymbol(h.Symbol), err)
	}
	price := snap.Quote.CurrentPrice
	assessment := a.Scorer.Evaluate(snap.Indicators, price, h.BuyPrice)

	holding := h
	res := a.Narrator.Generate(ctx, narrative.Input{
		Quote:      snap.Quote,
		Indicators: snap.Indicators,
		Range:      snap.Range,
		Profile:    snap.Profile,
		News:       snap.News,
		Holding:    &holding,
		Assessment: assessment,
	})
	d := narrative.Decide(res.Recommendation, assessment, price, a.Scorer.Rand)

	signals := snap.Indicators.Signals
	if signals == nil {
		signals = []model.Signal{}
	}
	rec := model.AdviceRecord{
		HoldingID:    h.ID,
		Symbol:       snap.Symbol,
		Action:       d.Action,
		Confidence:   d.Confidence,
		TargetPrice:  d.TargetPrice,
		StopLoss:     d.StopLoss,
		AddMorePrice: d.AddMorePrice,
		Reasoning:    res.Text,
		TechnicalSignals: model.TechnicalSignals{
			Signals: signals,
			Scores:  assessment.Scores,
		},
		CurrentPrice: price,
		ProfitLoss:   assessment.Levels.ProfitLossPercent,
		Model:        res.Model,
		GeneratedAt:  time.Now(),
	}
	a.Metrics.ObserveAdvice(string(rec.Action), false)
	return rec, nil
}

// AdvisePortfolio analyses every holding concurrently. The result is in
// holding order and always complete: a holding that fails becomes a
// degraded HOLD record instead of aborting the batch.
func (a *Advisor) AdvisePortfolio(ctx context.Context, holdings []model.Holding) []model.AdviceRecord {
	out := make([]model.AdviceRecord, len(holdings))
	var g errgroup.Group
	if a.Concurrency > 0 {
		g.SetLimit(a.Concurrency)
	}
	for i, h := range holdings {
		g.Go(func() error {
			rec, err := a.AdviseHolding(ctx, h)
			if err != nil {
				log.Warn().Str("symbol", h.Symbol).Str("holding", h.ID).Err(err).Msg("holding degraded")
				rec = model.DegradedAdvice(h.ID, collector.NormalizeSymbol(h.Symbol), err)
				a.Metrics.ObserveAdvice(string(rec.Action), true)
			}
			out[i] = rec
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Summarize condenses a batch into one line, e.g.
// "3 holdings: 1 BUY_MORE, 2 HOLD (1 degraded)".
func Summarize(advice []model.AdviceRecord) string {
	counts := map[model.Action]int{}
	degraded := 0
	for _, r := range advice {
		counts[r.Action]++
		if r.Degraded {
			degraded++
		}
	}
	var parts []string
	for _, act := range []model.Action{model.ActionBuyMore, model.ActionHold, model.ActionReduce, model.ActionSell} {
		if n := counts[act]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, act))
		}
	}
	s := fmt.Sprintf("%d holdings", len(advice))
	if len(parts) > 0 {
		s += ": " + strings.Join(parts, ", ")
	}
	if degraded > 0 {
		s += fmt.Sprintf(" (%d degraded)", degraded)
	}
	return s
}
