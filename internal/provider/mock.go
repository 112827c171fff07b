package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Mock returns controllable fixed data for development and testing.
// A non-nil QuoteErr or SeriesErr makes the corresponding call fail.
type Mock struct {
	ProviderName string
	Price        float64
	Bars         []model.OHLCV
	Profile      *model.CompanyProfile
	News         []model.NewsItem
	Matches      []model.SymbolMatch

	QuoteErr  error
	SeriesErr error
	// Delay blocks each quote call until it elapses or ctx is done.
	Delay time.Duration
}

func (m *Mock) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *Mock) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return model.Quote{}, &Error{Provider: m.Name(), Op: "quote", Symbol: symbol,
				Err: fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())}
		}
	}
	if m.QuoteErr != nil {
		return model.Quote{}, &Error{Provider: m.Name(), Op: "quote", Symbol: symbol, Err: m.QuoteErr}
	}
	q := model.Quote{
		Symbol:        strings.ToUpper(symbol),
		CurrentPrice:  m.Price,
		PreviousClose: m.Price,
		High:          m.Price,
		Low:           m.Price,
		Open:          m.Price,
		Timestamp:     time.Now().Unix(),
		Source:        m.Name(),
	}
	if n := len(m.Bars); n > 1 {
		q.PreviousClose = m.Bars[n-2].Close
	}
	q.Derive()
	return q, nil
}

func (m *Mock) GetHistoricalSeries(_ context.Context, symbol string, daysBack int) (*model.PriceSeries, error) {
	if m.SeriesErr != nil {
		return nil, &Error{Provider: m.Name(), Op: "series", Symbol: symbol, Err: m.SeriesErr}
	}
	bars := m.Bars
	if bars == nil {
		bars = GenerateBars(m.Price, daysBack)
	}
	return model.NewPriceSeries(strings.ToUpper(symbol), bars), nil
}

func (m *Mock) GetProfile(_ context.Context, symbol string) model.CompanyProfile {
	if m.Profile == nil {
		return model.UnknownProfile(strings.ToUpper(symbol))
	}
	p := *m.Profile
	p.Symbol = strings.ToUpper(symbol)
	return p
}

func (m *Mock) GetNews(_ context.Context, _ string, limit int) []model.NewsItem {
	if limit > 0 && len(m.News) > limit {
		return m.News[:limit]
	}
	if m.News == nil {
		return []model.NewsItem{}
	}
	return m.News
}

func (m *Mock) SearchSymbols(_ context.Context, _ string) []model.SymbolMatch {
	if m.Matches == nil {
		return []model.SymbolMatch{}
	}
	return m.Matches
}

// GenerateBars builds count daily bars drifting gently around basePrice.
func GenerateBars(basePrice float64, count int) []model.OHLCV {
	if count < 0 {
		count = 0
	}
	bars := make([]model.OHLCV, count)
	day := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   day.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
