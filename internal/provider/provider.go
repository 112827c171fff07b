// Package provider fetches market data from upstream APIs and fuses the
// primary and secondary sources into one normalised view.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Provider is one upstream market-data source.
//
// Quote and series calls fail loudly so the caller can choose a fallback.
// Profile, news and search are enrichment data: they never fail and degrade
// to sentinel or empty results instead.
type Provider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	GetHistoricalSeries(ctx context.Context, symbol string, daysBack int) (*model.PriceSeries, error)
	GetProfile(ctx context.Context, symbol string) model.CompanyProfile
	GetNews(ctx context.Context, symbol string, limit int) []model.NewsItem
	SearchSymbols(ctx context.Context, query string) []model.SymbolMatch
}

// Sentinel error kinds. Every provider error unwraps to one of them.
var (
	ErrNotFound = errors.New("not found")
	ErrUpstream = errors.New("upstream error")
)

// Error describes a failed upstream call.
type Error struct {
	Provider string
	Op       string
	Symbol   string
	Err      error
}

func (e *Error) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Provider, e.Op, e.Symbol, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ParseError reports a payload that did not have the expected structure.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "malformed payload: " + e.Reason }

// Unwrap classifies malformed payloads as upstream failures.
func (e *ParseError) Unwrap() error { return ErrUpstream }

func parseErr(format string, args ...any) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// Options configures a concrete provider.
type Options struct {
	BaseURL string
	APIKey  string
	Proxy   string
	// QuoteTimeout bounds quote, profile, news and search calls.
	QuoteTimeout time.Duration
	// SeriesTimeout bounds historical series calls.
	SeriesTimeout time.Duration
}

func (o Options) quoteTimeout() time.Duration {
	if o.QuoteTimeout > 0 {
		return o.QuoteTimeout
	}
	return 10 * time.Second
}

func (o Options) seriesTimeout() time.Duration {
	if o.SeriesTimeout > 0 {
		return o.SeriesTimeout
	}
	return 30 * time.Second
}
