package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ryanchan0215/stock-analysis-backend/internal/metrics"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo implements Provider using the Yahoo Finance public API.
type Yahoo struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Metrics   *metrics.Metrics

	opts Options
}

// NewYahoo creates the Yahoo Finance provider.
func NewYahoo(opts Options, m *metrics.Metrics) *Yahoo {
	base := opts.BaseURL
	if base == "" {
		base = DefaultYahooBaseURL
	}
	return &Yahoo{
		BaseURL: strings.TrimRight(base, "/"),
		Client:  newHTTPClient(opts.Proxy),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		Metrics: m,
		opts:    opts,
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) yahooSymbol(symbol string) string {
	if mapped, ok := y.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return strings.ToUpper(symbol)
}

// yahooChart is the response structure from the chart API.
// Null OHLCV entries decode to nil pointers.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
				RegularMarketHigh  float64 `json:"regularMarketDayHigh"`
				RegularMarketLow   float64 `json:"regularMarketDayLow"`
				RegularMarketVol   float64 `json:"regularMarketVolume"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func val(p []*float64, i int) float64 {
	if i >= len(p) || p[i] == nil {
		return 0
	}
	return *p[i]
}

func (y *Yahoo) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		y.BaseURL, url.PathEscape(y.yahooSymbol(symbol)), interval, rng)

	var chart yahooChart
	err := getJSON(ctx, y.Client, u, http.Header{"User-Agent": {"Mozilla/5.0"}}, &chart)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if chart.Chart.Error != nil {
		if strings.EqualFold(chart.Chart.Error.Code, "Not Found") || errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, chart.Chart.Error.Description)
		}
		return nil, fmt.Errorf("%w: api error: %s", ErrUpstream, chart.Chart.Error.Description)
	}
	if err != nil {
		return nil, err
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: no chart result", ErrNotFound)
	}
	return &chart, nil
}

// parseBars converts the first chart result into chronologically ordered bars.
func parseBars(chart *yahooChart) ([]model.OHLCV, error) {
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return []model.OHLCV{}, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, parseErr("chart has timestamps but no quote indicators")
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Close) != n || len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n {
		return nil, parseErr("chart arrays misaligned: %d timestamps, %d closes", n, len(quote.Close))
	}

	bars := make([]model.OHLCV, 0, n)
	for i, ts := range result.Timestamp {
		if quote.Open[i] == nil && quote.High[i] == nil && quote.Low[i] == nil && quote.Close[i] == nil {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   val(quote.Open, i),
			High:   val(quote.High, i),
			Low:    val(quote.Low, i),
			Close:  val(quote.Close, i),
			Volume: val(quote.Volume, i),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	// Yahoo occasionally repeats the live bar; keep timestamps unique.
	deduped := bars[:0]
	for _, b := range bars {
		if len(deduped) > 0 && deduped[len(deduped)-1].Time.Equal(b.Time) {
			deduped[len(deduped)-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped, nil
}

// rangeFor picks the smallest chart range covering daysBack calendar days.
func rangeFor(daysBack int) string {
	switch {
	case daysBack <= 5:
		return "5d"
	case daysBack <= 31:
		return "1mo"
	case daysBack <= 92:
		return "3mo"
	case daysBack <= 183:
		return "6mo"
	case daysBack <= 366:
		return "1y"
	case daysBack <= 731:
		return "2y"
	case daysBack <= 1827:
		return "5y"
	default:
		return "max"
	}
}

func (y *Yahoo) GetHistoricalSeries(ctx context.Context, symbol string, daysBack int) (series *model.PriceSeries, err error) {
	start := time.Now()
	defer func() { observe(y.Metrics, y.Name(), "series", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, y.opts.seriesTimeout())
	defer cancel()

	chart, err := y.fetchChart(ctx, symbol, "1d", rangeFor(daysBack))
	if err != nil {
		return nil, &Error{Provider: y.Name(), Op: "series", Symbol: symbol, Err: err}
	}
	bars, err := parseBars(chart)
	if err != nil {
		return nil, &Error{Provider: y.Name(), Op: "series", Symbol: symbol, Err: err}
	}

	// Trim to the requested window
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	first := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(cutoff) })
	bars = bars[first:]

	return model.NewPriceSeries(strings.ToUpper(symbol), bars), nil
}

func (y *Yahoo) GetQuote(ctx context.Context, symbol string) (q model.Quote, err error) {
	start := time.Now()
	defer func() { observe(y.Metrics, y.Name(), "quote", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, y.opts.quoteTimeout())
	defer cancel()

	chart, err := y.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return model.Quote{}, &Error{Provider: y.Name(), Op: "quote", Symbol: symbol, Err: err}
	}
	q, err = parseYahooQuote(symbol, chart)
	if err != nil {
		return model.Quote{}, &Error{Provider: y.Name(), Op: "quote", Symbol: symbol, Err: err}
	}
	return q, nil
}

func parseYahooQuote(symbol string, chart *yahooChart) (model.Quote, error) {
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return model.Quote{}, parseErr("chart meta has no regularMarketPrice")
	}
	prev := meta.ChartPreviousClose
	if meta.PreviousClose > 0 {
		prev = meta.PreviousClose
	}

	q := model.Quote{
		Symbol:        strings.ToUpper(symbol),
		CurrentPrice:  meta.RegularMarketPrice,
		High:          meta.RegularMarketHigh,
		Low:           meta.RegularMarketLow,
		PreviousClose: prev,
		Volume:        meta.RegularMarketVol,
		Timestamp:     meta.RegularMarketTime,
		Source:        "yahoo",
	}
	// Open and any missing intraday fields come from the latest bar.
	if bars, err := parseBars(chart); err == nil && len(bars) > 0 {
		last := bars[len(bars)-1]
		q.Open = last.Open
		if q.High == 0 {
			q.High = last.High
		}
		if q.Low == 0 {
			q.Low = last.Low
		}
		if q.Volume == 0 {
			q.Volume = last.Volume
		}
		if len(bars) > 1 && q.PreviousClose == 0 {
			q.PreviousClose = bars[len(bars)-2].Close
		}
	}
	if q.Timestamp == 0 {
		q.Timestamp = time.Now().Unix()
	}
	q.Derive()
	return q, nil
}

type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile *struct {
				Country  string `json:"country"`
				Industry string `json:"industry"`
				Sector   string `json:"sector"`
				Website  string `json:"website"`
			} `json:"assetProfile"`
			Price *struct {
				LongName     string `json:"longName"`
				ShortName    string `json:"shortName"`
				Currency     string `json:"currency"`
				ExchangeName string `json:"exchangeName"`
				MarketCap    struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

func (y *Yahoo) GetProfile(ctx context.Context, symbol string) model.CompanyProfile {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, y.opts.quoteTimeout())
	defer cancel()

	profile := model.UnknownProfile(strings.ToUpper(symbol))
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile,price",
		y.BaseURL, url.PathEscape(y.yahooSymbol(symbol)))

	var summary yahooQuoteSummary
	err := getJSON(ctx, y.Client, u, http.Header{"User-Agent": {"Mozilla/5.0"}}, &summary)
	if err == nil && len(summary.QuoteSummary.Result) == 0 {
		err = fmt.Errorf("%w: empty quoteSummary", ErrNotFound)
	}
	observe(y.Metrics, y.Name(), "profile", start, err)
	if err != nil {
		log.Warn().Str("provider", y.Name()).Str("symbol", symbol).Err(err).Msg("profile unavailable")
		return profile
	}

	res := summary.QuoteSummary.Result[0]
	if p := res.Price; p != nil {
		profile.Name = firstNonEmpty(p.LongName, p.ShortName, profile.Name)
		profile.Currency = firstNonEmpty(p.Currency, profile.Currency)
		profile.Exchange = firstNonEmpty(p.ExchangeName, profile.Exchange)
		profile.MarketCapitalizationBillions = p.MarketCap.Raw / 1e9
	}
	if a := res.AssetProfile; a != nil {
		profile.Country = firstNonEmpty(a.Country, profile.Country)
		profile.Industry = firstNonEmpty(a.Industry, a.Sector, profile.Industry)
		profile.WebsiteURL = firstNonEmpty(a.Website, profile.WebsiteURL)
	}
	return profile
}

type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
		ExchDisp  string `json:"exchDisp"`
	} `json:"quotes"`
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

func (y *Yahoo) search(ctx context.Context, query string, quotes, news int) (*yahooSearch, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=%d&newsCount=%d",
		y.BaseURL, url.QueryEscape(query), quotes, news)
	var res yahooSearch
	if err := getJSON(ctx, y.Client, u, http.Header{"User-Agent": {"Mozilla/5.0"}}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (y *Yahoo) GetNews(ctx context.Context, symbol string, limit int) []model.NewsItem {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, y.opts.quoteTimeout())
	defer cancel()

	res, err := y.search(ctx, y.yahooSymbol(symbol), 0, limit)
	observe(y.Metrics, y.Name(), "news", start, err)
	if err != nil {
		log.Warn().Str("provider", y.Name()).Str("symbol", symbol).Err(err).Msg("news unavailable")
		return []model.NewsItem{}
	}

	items := make([]model.NewsItem, 0, len(res.News))
	for _, n := range res.News {
		if n.Title == "" {
			continue
		}
		items = append(items, model.NewsItem{
			Headline:    n.Title,
			Source:      n.Publisher,
			URL:         n.Link,
			PublishedAt: n.ProviderPublishTime,
		})
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items
}

func (y *Yahoo) SearchSymbols(ctx context.Context, query string) []model.SymbolMatch {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, y.opts.quoteTimeout())
	defer cancel()

	res, err := y.search(ctx, query, 10, 0)
	observe(y.Metrics, y.Name(), "search", start, err)
	if err != nil {
		log.Warn().Str("provider", y.Name()).Str("query", query).Err(err).Msg("search unavailable")
		return []model.SymbolMatch{}
	}

	matches := make([]model.SymbolMatch, 0, len(res.Quotes))
	for _, q := range res.Quotes {
		if q.Symbol == "" {
			continue
		}
		matches = append(matches, model.SymbolMatch{
			Symbol:   q.Symbol,
			Name:     firstNonEmpty(q.LongName, q.ShortName),
			Type:     q.QuoteType,
			Exchange: firstNonEmpty(q.ExchDisp, q.Exchange),
		})
	}
	return matches
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
