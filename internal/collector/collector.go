// Package collector fetches market data for one symbol and derives its
// technical indicators.
package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/ryanchan0215/stock-analysis-backend/internal/calculator"
	"github.com/ryanchan0215/stock-analysis-backend/internal/metrics"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// DefaultDaysBack covers enough sessions for SMA200 plus a 52-week range.
const DefaultDaysBack = 400

// DefaultNewsLimit is how many headlines an enriched snapshot carries.
const DefaultNewsLimit = 5

// Source is the market data the collector needs. *provider.Fusion satisfies it.
type Source interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	GetHistoricalSeries(ctx context.Context, symbol string, daysBack int) (*model.PriceSeries, error)
	GetProfile(ctx context.Context, symbol string) model.CompanyProfile
	GetNews(ctx context.Context, symbol string, limit int) []model.NewsItem
}

// Snapshot is everything known about one symbol at one point in time.
type Snapshot struct {
	Symbol      string                  `json:"symbol"`
	Quote       model.Quote             `json:"quote"`
	Series      *model.PriceSeries      `json:"-"`
	Indicators  *model.IndicatorSet     `json:"indicators"`
	History     *model.IndicatorHistory `json:"-"`
	Range       *model.RangeStats       `json:"range,omitempty"`
	Profile     *model.CompanyProfile   `json:"profile,omitempty"`
	News        []model.NewsItem        `json:"news,omitempty"`
	CollectedAt time.Time               `json:"collectedAt"`
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Source    Source
	Metrics   *metrics.Metrics
	DaysBack  int
	NewsLimit int
}

// NewCollector creates a new Collector.
func NewCollector(source Source, m *metrics.Metrics) *Collector {
	return &Collector{
		Source:    source,
		Metrics:   m,
		DaysBack:  DefaultDaysBack,
		NewsLimit: DefaultNewsLimit,
	}
}

// Collect fetches quote and series concurrently and computes all indicators.
// With enrich set, profile and news are fetched alongside; they never fail.
func (c *Collector) Collect(ctx context.Context, symbol string, enrich bool) (*Snapshot, error) {
	symbol = NormalizeSymbol(symbol)
	var (
		quote   model.Quote
		series  *model.PriceSeries
		profile model.CompanyProfile
		news    []model.NewsItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := c.Source.GetQuote(gctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch quote: %w", err)
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		s, err := c.Source.GetHistoricalSeries(gctx, symbol, c.daysBack())
		if err != nil {
			return fmt.Errorf("fetch series: %w", err)
		}
		series = s
		return nil
	})
	if enrich {
		// Enrichment uses the parent ctx so a failed quote does not cancel it
		// mid-flight; the group still waits for it.
		g.Go(func() error {
			profile = c.Source.GetProfile(ctx, symbol)
			return nil
		})
		g.Go(func() error {
			news = c.Source.GetNews(ctx, symbol, c.NewsLimit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := c.derive(symbol, quote, series)
	if enrich {
		snap.Profile = &profile
		snap.News = news
	}
	return snap, nil
}

// Technicals fetches only the series and derives indicators against the
// last close. Used where no live quote is needed (indicator and chart views).
func (c *Collector) Technicals(ctx context.Context, symbol string, daysBack int) (*Snapshot, error) {
	symbol = NormalizeSymbol(symbol)
	if daysBack <= 0 {
		daysBack = c.daysBack()
	}
	series, err := c.Source.GetHistoricalSeries(ctx, symbol, daysBack)
	if err != nil {
		return nil, fmt.Errorf("fetch series: %w", err)
	}
	quote := model.Quote{Symbol: symbol, CurrentPrice: series.LastClose(), Source: "series"}
	if n := series.Len(); n > 0 {
		quote.Timestamp = series.Timestamps[n-1]
		quote.High = series.High[n-1]
		quote.Low = series.Low[n-1]
		quote.Open = series.Open[n-1]
		quote.Volume = series.Volume[n-1]
		if n > 1 {
			quote.PreviousClose = series.Close[n-2]
		}
		quote.Derive()
	}
	return c.derive(symbol, quote, series), nil
}

func (c *Collector) derive(symbol string, quote model.Quote, series *model.PriceSeries) *Snapshot {
	start := time.Now()
	ind := calculator.Compute(series, quote.CurrentPrice)
	ind.Symbol = symbol
	hist := calculator.History(series)
	c.Metrics.ObserveCompute(time.Since(start))

	if ind.Message != "" {
		log.Warn().Str("symbol", symbol).Int("points", series.Len()).Msg(ind.Message)
	}

	snap := &Snapshot{
		Symbol:      symbol,
		Quote:       quote,
		Series:      series,
		Indicators:  ind,
		History:     hist,
		CollectedAt: time.Now(),
	}
	if rs, ok := calculator.RangeStats(series, quote.CurrentPrice); ok {
		snap.Range = &rs
	} else {
		log.Warn().Str("symbol", symbol).Msg("52-week range unavailable: empty series")
	}
	return snap
}

func (c *Collector) daysBack() int {
	if c.DaysBack > 0 {
		return c.DaysBack
	}
	return DefaultDaysBack
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
