// Package chart aligns windowed indicator series back onto the daily candle
// axis for time-series payloads.
package chart

import (
	"math"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Row is one trading day. Indicator fields are nil during their warm-up.
type Row struct {
	Timestamp  int64    `json:"timestamp"`
	Date       string   `json:"date"`
	Open       float64  `json:"open"`
	High       float64  `json:"high"`
	Low        float64  `json:"low"`
	Close      float64  `json:"close"`
	Volume     float64  `json:"volume"`
	SMA50      *float64 `json:"sma50"`
	SMA200     *float64 `json:"sma200"`
	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"macdSignal"`
	MACDHist   *float64 `json:"macdHistogram"`
}

// Summary describes the whole series.
type Summary struct {
	FirstDate    string  `json:"firstDate"`
	LastDate     string  `json:"lastDate"`
	MaxHigh      float64 `json:"maxHigh"`
	MinLow       float64 `json:"minLow"`
	MeanVolume   float64 `json:"meanVolume"`
	Points       int     `json:"points"`
	SMA50Points  int     `json:"sma50Points"`
	SMA200Points int     `json:"sma200Points"`
	MACDPoints   int     `json:"macdPoints"`
}

// Chart is the assembled payload.
type Chart struct {
	Symbol  string  `json:"symbol"`
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

const dateLayout = "2006-01-02"

// Assemble merges the series with its indicator histories into one row per
// day. A history value lands on day i when i - StartIndex is a valid offset.
func Assemble(series *model.PriceSeries, sma50, sma200 model.SeriesHistory, macd model.MACDHistory) *Chart {
	n := series.Len()
	c := &Chart{Rows: make([]Row, 0, n)}
	if series != nil {
		c.Symbol = series.Symbol
	}
	if n == 0 {
		return c
	}

	for i := 0; i < n; i++ {
		row := Row{
			Timestamp: series.Timestamps[i],
			Date:      time.Unix(series.Timestamps[i], 0).UTC().Format(dateLayout),
			Open:      series.Open[i],
			High:      series.High[i],
			Low:       series.Low[i],
			Close:     series.Close[i],
			Volume:    series.Volume[i],
		}
		if v, ok := at(sma50, i); ok {
			row.SMA50 = &v
		}
		if v, ok := at(sma200, i); ok {
			row.SMA200 = &v
		}
		if off := i - macd.StartIndex; off >= 0 && off < len(macd.Points) {
			p := macd.Points[off]
			row.MACD, row.MACDSignal, row.MACDHist = &p.MACDLine, &p.SignalLine, &p.Histogram
		}
		c.Rows = append(c.Rows, row)
	}

	c.Summary = summarize(series)
	c.Summary.SMA50Points = len(sma50.Values)
	c.Summary.SMA200Points = len(sma200.Values)
	c.Summary.MACDPoints = len(macd.Points)
	return c
}

// AssembleHistory is Assemble with all three series taken from h.
func AssembleHistory(series *model.PriceSeries, h *model.IndicatorHistory) *Chart {
	if h == nil {
		h = &model.IndicatorHistory{}
	}
	return Assemble(series, h.SMA50, h.SMA200, h.MACD)
}

func at(h model.SeriesHistory, i int) (float64, bool) {
	off := i - h.StartIndex
	if off < 0 || off >= len(h.Values) {
		return 0, false
	}
	return h.Values[off], true
}

func summarize(series *model.PriceSeries) Summary {
	n := series.Len()
	s := Summary{
		FirstDate: time.Unix(series.Timestamps[0], 0).UTC().Format(dateLayout),
		LastDate:  time.Unix(series.Timestamps[n-1], 0).UTC().Format(dateLayout),
		MaxHigh:   math.Inf(-1),
		MinLow:    math.Inf(1),
		Points:    n,
	}
	var vol float64
	for i := 0; i < n; i++ {
		s.MaxHigh = math.Max(s.MaxHigh, series.High[i])
		if series.Low[i] > 0 {
			s.MinLow = math.Min(s.MinLow, series.Low[i])
		}
		vol += series.Volume[i]
	}
	if math.IsInf(s.MinLow, 1) {
		s.MinLow = 0
	}
	s.MeanVolume = vol / float64(n)
	return s
}
