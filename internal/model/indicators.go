package model

// Trend classifies price against the 50/200-day moving averages.
type Trend string

const (
	TrendUp            Trend = "uptrend"
	TrendDown          Trend = "downtrend"
	TrendConsolidating Trend = "consolidating"
	TrendUnknown       Trend = "unknown"
)

// RSILevel buckets an RSI reading.
type RSILevel string

const (
	RSIOverbought RSILevel = "overbought"
	RSIOversold   RSILevel = "oversold"
	RSIStrong     RSILevel = "strong"
	RSIWeak       RSILevel = "weak"
	RSIUnknown    RSILevel = "unknown"
)

// SignalType is the direction of a technical signal.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
)

// Strength grades a technical signal.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// Signal is one rule hit produced by signal detection.
type Signal struct {
	Type      SignalType `json:"type"`
	Indicator string     `json:"indicator"`
	Strength  Strength   `json:"strength"`
	Value     float64    `json:"value"`
	Message   string     `json:"message"`
}

// MACD is one point of the MACD indicator.
type MACD struct {
	MACDLine   float64 `json:"macdLine"`
	SignalLine float64 `json:"signalLine"`
	Histogram  float64 `json:"histogram"`
}

// Bollinger holds the three Bollinger bands.
type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSet is the as-of technical picture for one symbol.
// Nil pointers mean the indicator is unavailable for lack of history.
type IndicatorSet struct {
	Symbol     string     `json:"symbol"`
	Price      float64    `json:"price"`
	RSI        *float64   `json:"rsi"`
	SMA20      *float64   `json:"sma20"`
	SMA50      *float64   `json:"sma50"`
	SMA200     *float64   `json:"sma200"`
	MACD       *MACD      `json:"macd"`
	Bollinger  *Bollinger `json:"bollinger"`
	Volatility *float64   `json:"volatility"`
	Trend      Trend      `json:"trend"`
	RSILevel   RSILevel   `json:"rsiLevel"`
	Signals    []Signal   `json:"signals"`
	DataPoints int        `json:"dataPoints"`
	Message    string     `json:"message,omitempty"`
}

// RSIValue returns the RSI and whether it is known.
func (s *IndicatorSet) RSIValue() (float64, bool) { return deref(s.RSI) }

// SMA50Value returns SMA50 and whether it is known.
func (s *IndicatorSet) SMA50Value() (float64, bool) { return deref(s.SMA50) }

// SMA200Value returns SMA200 and whether it is known.
func (s *IndicatorSet) SMA200Value() (float64, bool) { return deref(s.SMA200) }

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// SeriesHistory is a windowed indicator series right-aligned to its source
// PriceSeries: Values[i] belongs to source index StartIndex+i.
type SeriesHistory struct {
	StartIndex int       `json:"startIndex"`
	Values     []float64 `json:"values"`
}

// MACDHistory is the MACD series right-aligned to its source PriceSeries.
type MACDHistory struct {
	StartIndex int    `json:"startIndex"`
	Points     []MACD `json:"points"`
}

// IndicatorHistory carries the per-day indicator series used by charts.
type IndicatorHistory struct {
	SMA50  SeriesHistory `json:"sma50"`
	SMA200 SeriesHistory `json:"sma200"`
	MACD   MACDHistory   `json:"macd"`
}

// RangeStats summarises the price range of a series.
type RangeStats struct {
	High52w     float64 `json:"high52w"`
	Low52w      float64 `json:"low52w"`
	Position52w float64 `json:"position52w"` // 0.0 ~ 1.0
}
