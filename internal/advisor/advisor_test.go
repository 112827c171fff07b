package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ryanchan0215/stock-analysis-backend/internal/collector"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
	"github.com/ryanchan0215/stock-analysis-backend/internal/narrative"
	"github.com/ryanchan0215/stock-analysis-backend/internal/provider"
	"github.com/ryanchan0215/stock-analysis-backend/internal/strategy"
)

// bySymbol routes each symbol to its own mock, failing unknown symbols.
type bySymbol map[string]*provider.Mock

func (b bySymbol) pick(symbol string) (*provider.Mock, error) {
	m, ok := b[symbol]
	if !ok {
		return nil, &provider.Error{Provider: "test", Op: "quote", Symbol: symbol, Err: provider.ErrNotFound}
	}
	return m, nil
}

func (b bySymbol) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	m, err := b.pick(symbol)
	if err != nil {
		return model.Quote{}, err
	}
	return m.GetQuote(ctx, symbol)
}

func (b bySymbol) GetHistoricalSeries(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	m, err := b.pick(symbol)
	if err != nil {
		return nil, err
	}
	return m.GetHistoricalSeries(ctx, symbol, days)
}

func (b bySymbol) GetProfile(ctx context.Context, symbol string) model.CompanyProfile {
	if m, err := b.pick(symbol); err == nil {
		return m.GetProfile(ctx, symbol)
	}
	return model.UnknownProfile(symbol)
}

func (b bySymbol) GetNews(ctx context.Context, symbol string, limit int) []model.NewsItem {
	if m, err := b.pick(symbol); err == nil {
		return m.GetNews(ctx, symbol, limit)
	}
	return []model.NewsItem{}
}

type scriptedLLM struct{ reply string }

func (s scriptedLLM) Complete(context.Context, string, string, string) (string, error) {
	if s.reply == "" {
		return "", errors.New("offline")
	}
	return s.reply, nil
}

func newAdvisor(src collector.Source, llm narrative.Completer) *Advisor {
	return New(
		collector.NewCollector(src, nil),
		strategy.NewScorer(strategy.Fixed(0.5)),
		narrative.NewGenerator(llm, []string{"m1"}, 0, nil),
		nil,
	)
}

func testSource() bySymbol {
	return bySymbol{
		"AAA": {Price: 120, Bars: provider.GenerateBars(120, 260)},
		"BBB": {Price: 40, Bars: provider.GenerateBars(40, 30)},
	}
}

func TestAdviseHolding_Template(t *testing.T) {
	a := newAdvisor(testSource(), nil)
	rec, err := a.AdviseHolding(context.Background(), model.Holding{ID: "h1", Symbol: "aaa", Quantity: 5, BuyPrice: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Symbol != "AAA" || rec.HoldingID != "h1" {
		t.Errorf("unexpected identity %+v", rec)
	}
	if rec.Model != narrative.FallbackModel {
		t.Errorf("expected template model, got %q", rec.Model)
	}
	if rec.Confidence < strategy.MinConfidence || rec.Confidence > strategy.MaxConfidence {
		t.Errorf("confidence %d out of rule bounds", rec.Confidence)
	}
	if rec.StopLoss > 0.95*rec.CurrentPrice+1e-9 || rec.TargetPrice < 1.02*rec.CurrentPrice-1e-9 {
		t.Errorf("levels violate bounds: %+v", rec)
	}
	if !strings.Contains(rec.Reasoning, "## Action") {
		t.Error("expected templated reasoning")
	}
	if rec.TechnicalSignals.Signals == nil {
		t.Error("signals must be non-nil")
	}
}

func TestAdviseHolding_ModelVerdict(t *testing.T) {
	llm := scriptedLLM{reply: "## Status\nok\n```json\n{\"action\":\"SELL\",\"confidence\":50,\"stopLoss\":1}\n```"}
	a := newAdvisor(testSource(), llm)
	rec, err := a.AdviseHolding(context.Background(), model.Holding{ID: "h1", Symbol: "AAA", Quantity: 1, BuyPrice: 100})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Action != model.ActionSell {
		t.Errorf("expected model action SELL, got %s", rec.Action)
	}
	if rec.Confidence == 50 {
		t.Error("round confidence must be perturbed")
	}
	if rec.StopLoss != 1 {
		t.Errorf("expected model stop-loss, got %.2f", rec.StopLoss)
	}
	if rec.Model != "m1" {
		t.Errorf("expected m1, got %q", rec.Model)
	}
}

func TestAdvisePortfolio_IsolatesFailures(t *testing.T) {
	a := newAdvisor(testSource(), nil)
	holdings := []model.Holding{
		{ID: "1", Symbol: "AAA", Quantity: 1, BuyPrice: 100},
		{ID: "2", Symbol: "MISSING", Quantity: 1, BuyPrice: 10},
		{ID: "3", Symbol: "BBB", Quantity: 2, BuyPrice: 50},
	}
	out := a.AdvisePortfolio(context.Background(), holdings)
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	for i, h := range holdings {
		if out[i].HoldingID != h.ID {
			t.Errorf("record %d out of order: %s", i, out[i].HoldingID)
		}
	}
	bad := out[1]
	if !bad.Degraded || bad.Action != model.ActionHold || bad.Confidence != 0 {
		t.Errorf("expected degraded HOLD, got %+v", bad)
	}
	if !strings.Contains(bad.Reasoning, "MISSING") {
		t.Errorf("reasoning should name the symbol: %q", bad.Reasoning)
	}
	if out[0].Degraded || out[2].Degraded {
		t.Error("healthy holdings must not degrade")
	}
	if got := Summarize(out); !strings.Contains(got, "3 holdings") || !strings.Contains(got, "(1 degraded)") {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestAnalyze(t *testing.T) {
	a := newAdvisor(testSource(), nil)
	res, err := a.Analyze(context.Background(), "bbb")
	if err != nil {
		t.Fatal(err)
	}
	if res.Symbol != "BBB" || res.Narrative == "" || res.News == nil {
		t.Errorf("unexpected analysis %+v", res)
	}
	if res.Indicators.Message == "" {
		t.Error("30 bars should carry an insufficient-data message")
	}

	if _, err := a.Analyze(context.Background(), "nope"); !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
