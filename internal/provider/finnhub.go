package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ryanchan0215/stock-analysis-backend/internal/metrics"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// DefaultFinnhubBaseURL is the Finnhub REST API root.
const DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub implements Provider using the Finnhub REST API.
type Finnhub struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Metrics *metrics.Metrics

	opts Options
}

// NewFinnhub creates the Finnhub provider with optional proxy support.
func NewFinnhub(opts Options, m *metrics.Metrics) *Finnhub {
	base := opts.BaseURL
	if base == "" {
		base = DefaultFinnhubBaseURL
	}
	return &Finnhub{
		BaseURL: strings.TrimRight(base, "/"),
		APIKey:  opts.APIKey,
		Client:  newHTTPClient(opts.Proxy),
		Metrics: m,
		opts:    opts,
	}
}

func (f *Finnhub) Name() string { return "finnhub" }

func (f *Finnhub) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", f.APIKey)
	return f.BaseURL + path + "?" + params.Encode()
}

// finnhubQuote is the /quote payload.
type finnhubQuote struct {
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	DP float64 `json:"dp"`
	H  float64 `json:"h"`
	L  float64 `json:"l"`
	O  float64 `json:"o"`
	PC float64 `json:"pc"`
	T  int64   `json:"t"`
}

func (f *Finnhub) GetQuote(ctx context.Context, symbol string) (q model.Quote, err error) {
	start := time.Now()
	defer func() { observe(f.Metrics, f.Name(), "quote", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, f.opts.quoteTimeout())
	defer cancel()

	sym := strings.ToUpper(symbol)
	var raw finnhubQuote
	if err := getJSON(ctx, f.Client, f.endpoint("/quote", url.Values{"symbol": {sym}}), nil, &raw); err != nil {
		return model.Quote{}, &Error{Provider: f.Name(), Op: "quote", Symbol: symbol, Err: err}
	}
	// Finnhub answers unknown symbols with an all-zero quote.
	if raw.C == 0 && raw.T == 0 {
		return model.Quote{}, &Error{Provider: f.Name(), Op: "quote", Symbol: symbol,
			Err: fmt.Errorf("%w: empty quote", ErrNotFound)}
	}

	q = model.Quote{
		Symbol:        sym,
		CurrentPrice:  raw.C,
		High:          raw.H,
		Low:           raw.L,
		Open:          raw.O,
		PreviousClose: raw.PC,
		Timestamp:     raw.T,
		Source:        f.Name(),
	}
	q.Derive()
	return q, nil
}

type finnhubCandles struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	C []float64 `json:"c"`
	V []float64 `json:"v"`
}

// GetHistoricalSeries reads daily candles. Fusion does not route series to
// the secondary provider; this is used by the collector's diagnostics and
// tests.
func (f *Finnhub) GetHistoricalSeries(ctx context.Context, symbol string, daysBack int) (series *model.PriceSeries, err error) {
	start := time.Now()
	defer func() { observe(f.Metrics, f.Name(), "series", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, f.opts.seriesTimeout())
	defer cancel()

	now := time.Now()
	params := url.Values{
		"symbol":     {strings.ToUpper(symbol)},
		"resolution": {"D"},
		"from":       {fmt.Sprint(now.AddDate(0, 0, -daysBack).Unix())},
		"to":         {fmt.Sprint(now.Unix())},
	}
	var raw finnhubCandles
	if err := getJSON(ctx, f.Client, f.endpoint("/stock/candle", params), nil, &raw); err != nil {
		return nil, &Error{Provider: f.Name(), Op: "series", Symbol: symbol, Err: err}
	}
	switch raw.S {
	case "ok":
	case "no_data":
		return model.NewPriceSeries(strings.ToUpper(symbol), nil), nil
	default:
		return nil, &Error{Provider: f.Name(), Op: "series", Symbol: symbol, Err: parseErr("candle status %q", raw.S)}
	}
	n := len(raw.T)
	if len(raw.O) != n || len(raw.H) != n || len(raw.L) != n || len(raw.C) != n {
		return nil, &Error{Provider: f.Name(), Op: "series", Symbol: symbol,
			Err: parseErr("candle arrays misaligned: %d timestamps, %d closes", n, len(raw.C))}
	}

	bars := make([]model.OHLCV, n)
	for i := range raw.T {
		bars[i] = model.OHLCV{
			Time:  time.Unix(raw.T[i], 0).UTC(),
			Open:  raw.O[i],
			High:  raw.H[i],
			Low:   raw.L[i],
			Close: raw.C[i],
		}
		if i < len(raw.V) {
			bars[i].Volume = raw.V[i]
		}
	}
	return model.NewPriceSeries(strings.ToUpper(symbol), bars), nil
}

type finnhubProfile struct {
	Name                 string  `json:"name"`
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	Exchange             string  `json:"exchange"`
	Industry             string  `json:"finnhubIndustry"`
	MarketCapitalization float64 `json:"marketCapitalization"` // millions
	WebURL               string  `json:"weburl"`
}

func (f *Finnhub) GetProfile(ctx context.Context, symbol string) model.CompanyProfile {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, f.opts.quoteTimeout())
	defer cancel()

	profile := model.UnknownProfile(strings.ToUpper(symbol))
	var raw finnhubProfile
	err := getJSON(ctx, f.Client, f.endpoint("/stock/profile2", url.Values{"symbol": {strings.ToUpper(symbol)}}), nil, &raw)
	observe(f.Metrics, f.Name(), "profile", start, err)
	if err != nil {
		log.Warn().Str("provider", f.Name()).Str("symbol", symbol).Err(err).Msg("profile unavailable")
		return profile
	}

	profile.Name = firstNonEmpty(raw.Name, profile.Name)
	profile.Country = firstNonEmpty(raw.Country, profile.Country)
	profile.Currency = firstNonEmpty(raw.Currency, profile.Currency)
	profile.Exchange = firstNonEmpty(raw.Exchange, profile.Exchange)
	profile.Industry = firstNonEmpty(raw.Industry, profile.Industry)
	profile.WebsiteURL = firstNonEmpty(raw.WebURL, profile.WebsiteURL)
	if raw.MarketCapitalization > 0 {
		profile.MarketCapitalizationBillions = raw.MarketCapitalization / 1000
	}
	return profile
}

type finnhubNews struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"`
}

func (f *Finnhub) GetNews(ctx context.Context, symbol string, limit int) []model.NewsItem {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, f.opts.quoteTimeout())
	defer cancel()

	now := time.Now()
	params := url.Values{
		"symbol": {strings.ToUpper(symbol)},
		"from":   {now.AddDate(0, 0, -7).Format("2006-01-02")},
		"to":     {now.Format("2006-01-02")},
	}
	var raw []finnhubNews
	err := getJSON(ctx, f.Client, f.endpoint("/company-news", params), nil, &raw)
	observe(f.Metrics, f.Name(), "news", start, err)
	if err != nil {
		log.Warn().Str("provider", f.Name()).Str("symbol", symbol).Err(err).Msg("news unavailable")
		return []model.NewsItem{}
	}

	items := make([]model.NewsItem, 0, len(raw))
	for _, n := range raw {
		if n.Headline == "" {
			continue
		}
		items = append(items, model.NewsItem{
			Headline:    n.Headline,
			Summary:     n.Summary,
			Source:      n.Source,
			URL:         n.URL,
			PublishedAt: n.Datetime,
		})
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items
}

type finnhubSearch struct {
	Count  int `json:"count"`
	Result []struct {
		Description   string `json:"description"`
		DisplaySymbol string `json:"displaySymbol"`
		Symbol        string `json:"symbol"`
		Type          string `json:"type"`
	} `json:"result"`
}

func (f *Finnhub) SearchSymbols(ctx context.Context, query string) []model.SymbolMatch {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, f.opts.quoteTimeout())
	defer cancel()

	var raw finnhubSearch
	err := getJSON(ctx, f.Client, f.endpoint("/search", url.Values{"q": {query}}), nil, &raw)
	observe(f.Metrics, f.Name(), "search", start, err)
	if err != nil {
		log.Warn().Str("provider", f.Name()).Str("query", query).Err(err).Msg("search unavailable")
		return []model.SymbolMatch{}
	}

	matches := make([]model.SymbolMatch, 0, len(raw.Result))
	for _, r := range raw.Result {
		if r.Symbol == "" {
			continue
		}
		matches = append(matches, model.SymbolMatch{
			Symbol: firstNonEmpty(r.DisplaySymbol, r.Symbol),
			Name:   r.Description,
			Type:   r.Type,
		})
	}
	return matches
}
