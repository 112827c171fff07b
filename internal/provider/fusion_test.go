package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

func TestFusion_QuotePrimaryWins(t *testing.T) {
	f := NewFusion(&Mock{ProviderName: "p", Price: 10}, &Mock{ProviderName: "s", Price: 20}, nil)
	q, err := f.GetQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Source != "p" || q.CurrentPrice != 10 {
		t.Errorf("expected primary quote, got %+v", q)
	}
	if q.Symbol != "AAPL" {
		t.Errorf("expected upper-cased symbol, got %s", q.Symbol)
	}
}

func TestFusion_QuotePrimaryTimeoutFallsBack(t *testing.T) {
	primary := &Mock{ProviderName: "p", Price: 10, Delay: time.Second}
	secondary := &Mock{ProviderName: "s", Price: 20}
	f := NewFusion(primary, secondary, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	q, err := f.GetQuote(ctx, "MSFT")
	if err != nil {
		t.Fatalf("expected secondary quote, got error: %v", err)
	}
	if q.Source != "s" || q.CurrentPrice != 20 {
		t.Errorf("expected secondary quote, got %+v", q)
	}
}

func TestFusion_QuoteBothFailReportsPrimary(t *testing.T) {
	primary := &Mock{ProviderName: "p", QuoteErr: errors.New("primary exploded")}
	secondary := &Mock{ProviderName: "s", QuoteErr: errors.New("secondary exploded")}
	f := NewFusion(primary, secondary, nil)

	_, err := f.GetQuote(context.Background(), "TSLA")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "primary exploded") || !strings.Contains(msg, "TSLA") {
		t.Errorf("expected primary cause and symbol in %q", msg)
	}
	if strings.Contains(msg, "secondary exploded") {
		t.Errorf("secondary cause should be discarded: %q", msg)
	}
}

func TestFusion_QuoteErrorKinds(t *testing.T) {
	f := NewFusion(&Mock{QuoteErr: ErrNotFound}, nil, nil)
	_, err := f.GetQuote(context.Background(), "ZZZZ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Op != "quote" {
		t.Errorf("expected *Error with op quote, got %v", err)
	}
}

func TestFusion_SeriesWrapsSymbolAndDays(t *testing.T) {
	f := NewFusion(&Mock{SeriesErr: ErrUpstream}, &Mock{Price: 5}, nil)
	_, err := f.GetHistoricalSeries(context.Background(), "NVDA", 365)
	if err == nil {
		t.Fatal("expected error; secondary must not serve series")
	}
	if !strings.Contains(err.Error(), "NVDA") || !strings.Contains(err.Error(), "365") {
		t.Errorf("expected symbol and days in %q", err.Error())
	}
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestFusion_SeriesShortIsValid(t *testing.T) {
	f := NewFusion(&Mock{Bars: []model.OHLCV{}}, nil, nil)
	s, err := f.GetHistoricalSeries(context.Background(), "X", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty series, got %d", s.Len())
	}
}

func TestMergeProfiles_PerField(t *testing.T) {
	primary := model.UnknownProfile("ACME")
	primary.Industry = "Tech"
	secondary := model.CompanyProfile{Name: "Acme", Industry: ""}

	merged := MergeProfiles(primary, secondary, "ACME")
	if merged.Name != "Acme" {
		t.Errorf("name: expected Acme, got %s", merged.Name)
	}
	if merged.Industry != "Tech" {
		t.Errorf("industry: expected Tech, got %s", merged.Industry)
	}
	if merged.Currency != model.DefaultCurrency {
		t.Errorf("currency: expected sentinel %s, got %s", model.DefaultCurrency, merged.Currency)
	}
	if merged.Country != model.Unknown || merged.MarketCapitalizationBillions != 0 {
		t.Errorf("expected sentinels for missing fields, got %+v", merged)
	}
}

func TestMergeProfiles_PrimaryDominates(t *testing.T) {
	primary := model.CompanyProfile{Name: "Primary Co", Country: "US", MarketCapitalizationBillions: 0}
	secondary := model.CompanyProfile{Name: "Secondary Co", Country: "CA", MarketCapitalizationBillions: 12}
	merged := MergeProfiles(primary, secondary, "P")
	if merged.Name != "Primary Co" || merged.Country != "US" {
		t.Errorf("primary values must win: %+v", merged)
	}
	if merged.MarketCapitalizationBillions != 12 {
		t.Errorf("expected secondary market cap, got %v", merged.MarketCapitalizationBillions)
	}

	again := MergeProfiles(merged, secondary, "P")
	if again != merged {
		t.Errorf("merge not idempotent: %+v vs %+v", again, merged)
	}
}

func TestFusion_ProfileCompleteSkipsSecondary(t *testing.T) {
	full := &model.CompanyProfile{Name: "Apple", Industry: "Technology", MarketCapitalizationBillions: 3000}
	secondary := &model.CompanyProfile{Name: "Other", Industry: "Other", MarketCapitalizationBillions: 1}
	f := NewFusion(&Mock{Profile: full}, &Mock{Profile: secondary}, nil)

	p := f.GetProfile(context.Background(), "aapl")
	if p.Name != "Apple" || p.MarketCapitalizationBillions != 3000 {
		t.Errorf("expected primary profile, got %+v", p)
	}
	if p.Country != model.Unknown {
		t.Errorf("expected sentinel country on complete profile, got %q", p.Country)
	}
}

func TestFusion_ProfileIncompleteMerges(t *testing.T) {
	primary := &model.CompanyProfile{Name: "Apple", Industry: "Technology"}
	secondary := &model.CompanyProfile{Name: "Apple Inc", Industry: "Hardware", Country: "US", MarketCapitalizationBillions: 2900}
	f := NewFusion(&Mock{Profile: primary}, &Mock{Profile: secondary}, nil)

	p := f.GetProfile(context.Background(), "AAPL")
	if p.Name != "Apple" || p.Industry != "Technology" {
		t.Errorf("primary fields must win: %+v", p)
	}
	if p.Country != "US" || p.MarketCapitalizationBillions != 2900 {
		t.Errorf("expected secondary to fill gaps: %+v", p)
	}
}

func TestFusion_NewsAndSearchFallback(t *testing.T) {
	news := []model.NewsItem{{Headline: "h1"}, {Headline: "h2"}}
	matches := []model.SymbolMatch{{Symbol: "AAPL"}}

	tests := []struct {
		name        string
		primary     *Mock
		secondary   *Mock
		wantNews    int
		wantMatches int
	}{
		{"primary has data", &Mock{News: news, Matches: matches}, &Mock{}, 2, 1},
		{"secondary fills", &Mock{}, &Mock{News: news, Matches: matches}, 2, 1},
		{"both empty", &Mock{}, &Mock{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFusion(tt.primary, tt.secondary, nil)
			got := f.GetNews(context.Background(), "AAPL", 10)
			if got == nil || len(got) != tt.wantNews {
				t.Errorf("news: expected %d items, got %v", tt.wantNews, got)
			}
			m := f.SearchSymbols(context.Background(), "app")
			if m == nil || len(m) != tt.wantMatches {
				t.Errorf("search: expected %d matches, got %v", tt.wantMatches, m)
			}
		})
	}
}
