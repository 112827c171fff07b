package chart

import (
	"math"
	"testing"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/calculator"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

func makeSeries(n int) *model.PriceSeries {
	bars := make([]model.OHLCV, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		p := 100 + float64(i%17) - float64(i%5)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p,
			High:   p + 2,
			Low:    p - 2,
			Close:  p + 0.5,
			Volume: float64(1000 + i),
		}
	}
	return model.NewPriceSeries("TEST", bars)
}

func TestAssemble_Alignment(t *testing.T) {
	for _, n := range []int{1, 30, 50, 120, 250} {
		series := makeSeries(n)
		h := calculator.History(series)
		c := AssembleHistory(series, h)

		if len(c.Rows) != n {
			t.Fatalf("n=%d: expected %d rows, got %d", n, n, len(c.Rows))
		}
		for i, row := range c.Rows {
			if (row.SMA50 != nil) != (i >= h.SMA50.StartIndex) {
				t.Errorf("n=%d row %d: sma50 presence wrong (start %d)", n, i, h.SMA50.StartIndex)
			}
			if (row.SMA200 != nil) != (i >= h.SMA200.StartIndex) {
				t.Errorf("n=%d row %d: sma200 presence wrong (start %d)", n, i, h.SMA200.StartIndex)
			}
			if (row.MACD != nil) != (i >= h.MACD.StartIndex) {
				t.Errorf("n=%d row %d: macd presence wrong (start %d)", n, i, h.MACD.StartIndex)
			}
		}
	}
}

func TestAssemble_ValuesMatchHistory(t *testing.T) {
	series := makeSeries(120)
	h := calculator.History(series)
	c := AssembleHistory(series, h)

	last := c.Rows[len(c.Rows)-1]
	want, _ := calculator.SMA(series.Close, 50)
	if last.SMA50 == nil || math.Abs(*last.SMA50-want) > 1e-9 {
		t.Errorf("last SMA50 expected %v, got %v", want, last.SMA50)
	}
	first := c.Rows[49]
	want, _ = calculator.SMA(series.Close[:50], 50)
	if first.SMA50 == nil || math.Abs(*first.SMA50-want) > 1e-9 {
		t.Errorf("first SMA50 expected %v, got %v", want, first.SMA50)
	}
	if c.Rows[48].SMA50 != nil {
		t.Error("row 48 must have no SMA50")
	}

	lastMACD := h.MACD.Points[len(h.MACD.Points)-1]
	if last.MACDHist == nil || *last.MACDHist != lastMACD.Histogram {
		t.Errorf("last histogram mismatch")
	}
	// distinct rows must not share the same pointer
	if c.Rows[len(c.Rows)-2].MACD == last.MACD {
		t.Error("rows alias the same MACD value")
	}
}

func TestAssemble_Summary(t *testing.T) {
	series := makeSeries(3)
	series.High = []float64{10, 30, 20}
	series.Low = []float64{5, 0, 7}
	series.Volume = []float64{100, 200, 300}

	c := Assemble(series, model.SeriesHistory{}, model.SeriesHistory{}, model.MACDHistory{})
	s := c.Summary
	if s.FirstDate != "2024-01-01" || s.LastDate != "2024-01-03" {
		t.Errorf("unexpected dates %s..%s", s.FirstDate, s.LastDate)
	}
	if s.MaxHigh != 30 || s.MinLow != 5 {
		t.Errorf("unexpected range %v..%v", s.MinLow, s.MaxHigh)
	}
	if s.MeanVolume != 200 || s.Points != 3 {
		t.Errorf("unexpected mean volume %v / points %d", s.MeanVolume, s.Points)
	}
	if s.SMA50Points != 0 || s.MACDPoints != 0 {
		t.Errorf("expected zero indicator points")
	}
}

func TestAssemble_Empty(t *testing.T) {
	c := Assemble(nil, model.SeriesHistory{}, model.SeriesHistory{}, model.MACDHistory{})
	if c.Rows == nil || len(c.Rows) != 0 {
		t.Errorf("expected empty rows, got %v", c.Rows)
	}
}
