package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds daily candles as parallel arrays, oldest first.
// Missing upstream values are normalised to 0.
type PriceSeries struct {
	Symbol     string    `json:"symbol"`
	Timestamps []int64   `json:"timestamps"`
	Open       []float64 `json:"open"`
	High       []float64 `json:"high"`
	Low        []float64 `json:"low"`
	Close      []float64 `json:"close"`
	Volume     []float64 `json:"volume"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// NewPriceSeries builds a PriceSeries from bars.
func NewPriceSeries(symbol string, bars []OHLCV) *PriceSeries {
	s := &PriceSeries{
		Symbol:     symbol,
		Timestamps: make([]int64, len(bars)),
		Open:       make([]float64, len(bars)),
		High:       make([]float64, len(bars)),
		Low:        make([]float64, len(bars)),
		Close:      make([]float64, len(bars)),
		Volume:     make([]float64, len(bars)),
		FetchedAt:  time.Now(),
	}
	for i, b := range bars {
		s.Timestamps[i] = b.Time.Unix()
		s.Open[i] = b.Open
		s.High[i] = b.High
		s.Low[i] = b.Low
		s.Close[i] = b.Close
		s.Volume[i] = b.Volume
	}
	return s
}

// Len returns the number of trading days in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Timestamps)
}

// Valid reports whether every per-field array matches the timestamp array.
func (s *PriceSeries) Valid() bool {
	n := s.Len()
	return n > 0 && len(s.Open) == n && len(s.High) == n &&
		len(s.Low) == n && len(s.Close) == n && len(s.Volume) == n
}

// Bar returns the i-th day as an OHLCV value.
func (s *PriceSeries) Bar(i int) OHLCV {
	return OHLCV{
		Time:   time.Unix(s.Timestamps[i], 0).UTC(),
		Open:   s.Open[i],
		High:   s.High[i],
		Low:    s.Low[i],
		Close:  s.Close[i],
		Volume: s.Volume[i],
	}
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s *PriceSeries) LastClose() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Close[len(s.Close)-1]
}

// Quote is a point-in-time price snapshot.
type Quote struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"currentPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
	Volume        float64 `json:"volume"`
	Timestamp     int64   `json:"timestamp"`
	Source        string  `json:"source,omitempty"`
}

// Derive recomputes Change and ChangePercent from CurrentPrice and PreviousClose.
func (q *Quote) Derive() {
	q.Change = q.CurrentPrice - q.PreviousClose
	if q.PreviousClose != 0 {
		q.ChangePercent = q.Change / q.PreviousClose * 100
	} else {
		q.ChangePercent = 0
	}
}

// Sentinels used by CompanyProfile fields that are unknown.
const (
	Unknown         = "N/A"
	DefaultCurrency = "USD"
)

// CompanyProfile describes the listed company behind a symbol.
type CompanyProfile struct {
	Symbol                       string  `json:"symbol"`
	Name                         string  `json:"name"`
	Country                      string  `json:"country"`
	Currency                     string  `json:"currency"`
	Exchange                     string  `json:"exchange"`
	Industry                     string  `json:"industry"`
	MarketCapitalizationBillions float64 `json:"marketCapitalization"`
	WebsiteURL                   string  `json:"weburl"`
}

// UnknownProfile returns a profile with every field set to its sentinel.
func UnknownProfile(symbol string) CompanyProfile {
	return CompanyProfile{
		Symbol:     symbol,
		Name:       Unknown,
		Country:    Unknown,
		Currency:   DefaultCurrency,
		Exchange:   Unknown,
		Industry:   Unknown,
		WebsiteURL: Unknown,
	}
}

// NewsItem is one company news headline.
type NewsItem struct {
	Headline    string `json:"headline"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt int64  `json:"publishedAt"`
}

// SymbolMatch is one symbol search hit.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Exchange string `json:"exchange"`
	Region   string `json:"region"`
}
