package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// ErrInsufficientData marks indicators that could not be computed for lack of history.
var ErrInsufficientData = errors.New("insufficient price history")

// LongWindow is the longest lookback any indicator needs.
const LongWindow = 200

// Compute derives the full IndicatorSet from a series. currentPrice is the
// live quote; 0 falls back to the last close. Indicators lacking history are
// left nil and listed in Message.
func Compute(series *model.PriceSeries, currentPrice float64) *model.IndicatorSet {
	var closes []float64
	symbol := ""
	if series != nil {
		closes = series.Close
		symbol = series.Symbol
	}
	if currentPrice <= 0 && len(closes) > 0 {
		currentPrice = closes[len(closes)-1]
	}

	set := &model.IndicatorSet{
		Symbol:     symbol,
		Price:      currentPrice,
		Trend:      model.TrendUnknown,
		RSILevel:   model.RSIUnknown,
		Signals:    []model.Signal{},
		DataPoints: len(closes),
	}
	var missing []string

	if v, ok := RSI(closes, DefaultRSIPeriod); ok {
		set.RSI = &v
		set.RSILevel = ClassifyRSI(v)
	} else {
		missing = append(missing, "RSI")
	}
	if v, ok := SMA(closes, 20); ok {
		set.SMA20 = &v
	} else {
		missing = append(missing, "SMA20")
	}
	if v, ok := SMA(closes, 50); ok {
		set.SMA50 = &v
	} else {
		missing = append(missing, "SMA50")
	}
	if v, ok := SMA(closes, LongWindow); ok {
		set.SMA200 = &v
	} else {
		missing = append(missing, "SMA200")
	}
	if v, ok := MACDCurrent(closes, MACDFast, MACDSlow, MACDSignal); ok {
		set.MACD = &v
	} else {
		missing = append(missing, "MACD")
	}
	if v, ok := Bollinger(closes, BollingerPeriod, BollingerDeviations); ok {
		set.Bollinger = &v
	} else {
		missing = append(missing, "Bollinger")
	}
	if v, ok := Volatility(closes, BollingerPeriod); ok {
		set.Volatility = &v
	} else {
		missing = append(missing, "volatility")
	}

	if set.SMA50 != nil && set.SMA200 != nil {
		set.Trend = ClassifyTrend(currentPrice, *set.SMA50, *set.SMA200)
	}
	set.Signals = DetectSignals(closes, currentPrice, set.RSI, set.MACD)

	if len(missing) > 0 {
		set.Message = fmt.Sprintf("%v: %d points available, %s unavailable",
			ErrInsufficientData, len(closes), strings.Join(missing, ", "))
	}
	return set
}

// History builds the chart-aligned SMA50, SMA200 and MACD series.
func History(series *model.PriceSeries) *model.IndicatorHistory {
	var closes []float64
	if series != nil {
		closes = series.Close
	}
	sma50 := SMAHistory(closes, 50)
	sma200 := SMAHistory(closes, LongWindow)
	macd := MACDHistory(closes, MACDFast, MACDSlow, MACDSignal)
	return &model.IndicatorHistory{
		SMA50:  model.SeriesHistory{StartIndex: len(closes) - len(sma50), Values: sma50},
		SMA200: model.SeriesHistory{StartIndex: len(closes) - len(sma200), Values: sma200},
		MACD:   model.MACDHistory{StartIndex: len(closes) - len(macd), Points: macd},
	}
}
