package provider

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/ryanchan0215/stock-analysis-backend/internal/metrics"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Fusion combines a primary and a secondary provider behind a fixed
// precedence. The primary always wins when it answers; the secondary fills
// gaps. Both providers are injected so tests can substitute doubles.
type Fusion struct {
	primary   Provider
	secondary Provider
	metrics   *metrics.Metrics
}

// NewFusion creates a Fusion. secondary may be nil, in which case every
// operation is served by the primary alone.
func NewFusion(primary, secondary Provider, m *metrics.Metrics) *Fusion {
	return &Fusion{primary: primary, secondary: secondary, metrics: m}
}

// Primary returns the primary provider.
func (f *Fusion) Primary() Provider { return f.primary }

// GetQuote tries the primary then the secondary. When both fail the
// primary's error is returned.
func (f *Fusion) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	q, err := f.primary.GetQuote(ctx, symbol)
	if err == nil {
		return q, nil
	}
	if f.secondary == nil {
		return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}

	log.Warn().Str("symbol", symbol).Str("op", "quote").Err(err).
		Str("fallback", f.secondary.Name()).Msg("primary provider failed")
	q, secErr := f.secondary.GetQuote(ctx, symbol)
	if secErr != nil {
		log.Warn().Str("symbol", symbol).Str("op", "quote").Err(secErr).Msg("secondary provider failed")
		return model.Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	f.metrics.Fallback("quote")
	return q, nil
}

// GetHistoricalSeries is served by the primary only. An empty or short
// series is a valid result.
func (f *Fusion) GetHistoricalSeries(ctx context.Context, symbol string, daysBack int) (*model.PriceSeries, error) {
	series, err := f.primary.GetHistoricalSeries(ctx, symbol, daysBack)
	if err != nil {
		return nil, fmt.Errorf("historical series %s (%d days): %w", symbol, daysBack, err)
	}
	return series, nil
}

// ProfileComplete reports whether p needs no enrichment.
func ProfileComplete(p model.CompanyProfile) bool {
	return known(p.Name) && known(p.Industry) && p.MarketCapitalizationBillions > 0
}

// GetProfile returns the primary profile, merged field by field with the
// secondary when the primary is incomplete.
func (f *Fusion) GetProfile(ctx context.Context, symbol string) model.CompanyProfile {
	p := f.primary.GetProfile(ctx, symbol)
	if ProfileComplete(p) || f.secondary == nil {
		return normalizeProfile(p, symbol)
	}
	s := f.secondary.GetProfile(ctx, symbol)
	f.metrics.Fallback("profile")
	return MergeProfiles(p, s, symbol)
}

// MergeProfiles takes each field from primary when it is known, otherwise
// from secondary, otherwise the field's sentinel.
func MergeProfiles(primary, secondary model.CompanyProfile, symbol string) model.CompanyProfile {
	merged := model.UnknownProfile(symbol)
	merged.Name = pick(primary.Name, secondary.Name, model.Unknown)
	merged.Country = pick(primary.Country, secondary.Country, model.Unknown)
	merged.Currency = pick(primary.Currency, secondary.Currency, model.DefaultCurrency)
	merged.Exchange = pick(primary.Exchange, secondary.Exchange, model.Unknown)
	merged.Industry = pick(primary.Industry, secondary.Industry, model.Unknown)
	merged.WebsiteURL = pick(primary.WebsiteURL, secondary.WebsiteURL, model.Unknown)
	switch {
	case primary.MarketCapitalizationBillions > 0:
		merged.MarketCapitalizationBillions = primary.MarketCapitalizationBillions
	case secondary.MarketCapitalizationBillions > 0:
		merged.MarketCapitalizationBillions = secondary.MarketCapitalizationBillions
	}
	return merged
}

func normalizeProfile(p model.CompanyProfile, symbol string) model.CompanyProfile {
	return MergeProfiles(p, model.CompanyProfile{}, symbol)
}

// GetNews prefers a non-empty primary result.
func (f *Fusion) GetNews(ctx context.Context, symbol string, limit int) []model.NewsItem {
	if items := f.primary.GetNews(ctx, symbol, limit); len(items) > 0 {
		return items
	}
	if f.secondary == nil {
		return []model.NewsItem{}
	}
	items := f.secondary.GetNews(ctx, symbol, limit)
	if len(items) == 0 {
		return []model.NewsItem{}
	}
	f.metrics.Fallback("news")
	return items
}

// SearchSymbols prefers a non-empty primary result and never fails.
func (f *Fusion) SearchSymbols(ctx context.Context, query string) []model.SymbolMatch {
	if matches := f.primary.SearchSymbols(ctx, query); len(matches) > 0 {
		return matches
	}
	if f.secondary == nil {
		return []model.SymbolMatch{}
	}
	matches := f.secondary.SearchSymbols(ctx, query)
	if len(matches) == 0 {
		return []model.SymbolMatch{}
	}
	f.metrics.Fallback("search")
	return matches
}

func known(v string) bool {
	return v != "" && v != model.Unknown
}

func pick(primary, secondary, sentinel string) string {
	switch {
	case known(primary):
		return primary
	case known(secondary):
		return secondary
	default:
		return sentinel
	}
}
