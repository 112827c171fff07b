package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
	"github.com/ryanchan0215/stock-analysis-backend/internal/provider"
)

func TestCollect_FullHistory(t *testing.T) {
	src := provider.NewFusion(&provider.Mock{
		Price:   100,
		Bars:    provider.GenerateBars(100, 260),
		Profile: &model.CompanyProfile{Name: "Acme", Industry: "Tools", MarketCapitalizationBillions: 1},
		News:    []model.NewsItem{{Headline: "Acme beats"}},
	}, nil, nil)
	c := NewCollector(src, nil)

	snap, err := c.Collect(context.Background(), " acme ", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Symbol != "ACME" {
		t.Errorf("expected normalized symbol, got %q", snap.Symbol)
	}
	ind := snap.Indicators
	if ind.RSI == nil || ind.SMA50 == nil || ind.SMA200 == nil || ind.MACD == nil || ind.Bollinger == nil {
		t.Fatalf("expected every indicator with 260 bars: %+v", ind)
	}
	if ind.Message != "" {
		t.Errorf("unexpected message %q", ind.Message)
	}
	if snap.History.SMA200.StartIndex != 260-len(snap.History.SMA200.Values) {
		t.Errorf("bad SMA200 start index %d", snap.History.SMA200.StartIndex)
	}
	if snap.Range == nil {
		t.Error("expected range stats")
	}
	if snap.Profile == nil || snap.Profile.Name != "Acme" {
		t.Errorf("expected enriched profile, got %+v", snap.Profile)
	}
	if len(snap.News) != 1 {
		t.Errorf("expected one headline, got %d", len(snap.News))
	}
}

func TestCollect_ShortHistoryDegrades(t *testing.T) {
	src := provider.NewFusion(&provider.Mock{Price: 50, Bars: provider.GenerateBars(50, 30)}, nil, nil)
	snap, err := NewCollector(src, nil).Collect(context.Background(), "X", false)
	if err != nil {
		t.Fatalf("short history must not fail: %v", err)
	}
	ind := snap.Indicators
	if ind.SMA200 != nil || ind.MACD != nil {
		t.Error("expected SMA200 and MACD unavailable")
	}
	if ind.RSI == nil {
		t.Error("expected RSI with 30 bars")
	}
	if ind.Trend != model.TrendUnknown {
		t.Errorf("expected unknown trend, got %s", ind.Trend)
	}
	if ind.Message == "" {
		t.Error("expected explanatory message")
	}
	if snap.Profile != nil {
		t.Error("profile fetched without enrich")
	}
}

func TestCollect_QuoteFailure(t *testing.T) {
	src := provider.NewFusion(
		&provider.Mock{QuoteErr: provider.ErrUpstream},
		&provider.Mock{QuoteErr: provider.ErrNotFound}, nil)
	_, err := NewCollector(src, nil).Collect(context.Background(), "X", true)
	if !errors.Is(err, provider.ErrUpstream) {
		t.Errorf("expected primary upstream error, got %v", err)
	}
}

func TestTechnicals_UsesLastClose(t *testing.T) {
	bars := provider.GenerateBars(20, 60)
	src := provider.NewFusion(&provider.Mock{Bars: bars}, nil, nil)
	snap, err := NewCollector(src, nil).Technicals(context.Background(), "y", 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := bars[len(bars)-1].Close
	if snap.Quote.CurrentPrice != last || snap.Indicators.Price != last {
		t.Errorf("expected last close %v, got quote %v indicators %v", last, snap.Quote.CurrentPrice, snap.Indicators.Price)
	}
	if snap.Quote.PreviousClose != bars[len(bars)-2].Close {
		t.Errorf("unexpected previous close %v", snap.Quote.PreviousClose)
	}
}
