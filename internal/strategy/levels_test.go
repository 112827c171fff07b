package strategy

import (
	"testing"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

func TestPriceLevels_Clamps(t *testing.T) {
	sets := map[string]*model.IndicatorSet{
		"unknown":  {},
		"bullish":  bullishSet(),
		"bearish":  bearishSet(),
		"oversold": {RSI: f(12), SMA50: f(50), SMA200: f(45), Bollinger: &model.Bollinger{Upper: 60, Middle: 52, Lower: 47}},
		// support levels above the price must not lift the stop over the cap
		"inverted": {RSI: f(50), SMA50: f(500), SMA200: f(600), Bollinger: &model.Bollinger{Upper: 49, Middle: 45, Lower: 48}},
	}
	prices := []float64{0.37, 1, 48.5, 100, 123.456, 5000}
	pnls := []float64{-80, -35, -25, -15, -5, 0, 5, 15, 25, 45, 60, 300}

	for name, ind := range sets {
		for _, cur := range prices {
			for _, pnl := range pnls {
				buy := cur / (1 + pnl/100)
				lv := PriceLevels(cur, buy, ind)

				if lv.StopLoss > cur*MaxStopLossRatio || lv.StopLoss < 0 {
					t.Errorf("%s cur=%.3f pnl=%.0f: stop %.4f violates bounds", name, cur, pnl, lv.StopLoss)
				}
				if lv.AddMorePrice > cur*MaxAddMoreRatio || lv.AddMorePrice < 0 {
					t.Errorf("%s cur=%.3f pnl=%.0f: add %.4f violates bounds", name, cur, pnl, lv.AddMorePrice)
				}
				if lv.ProfitLossPercent <= TargetFloorProfitLimit && lv.TargetPrice < cur*MinTargetRatio {
					t.Errorf("%s cur=%.3f pnl=%.0f: target %.4f below floor", name, cur, pnl, lv.TargetPrice)
				}
				if lv.StopLossReason == "" || lv.AddMoreReason == "" || lv.TargetReason == "" {
					t.Errorf("%s cur=%.3f pnl=%.0f: missing justification", name, cur, pnl)
				}
			}
		}
	}
}

func TestPriceLevels_Bands(t *testing.T) {
	ind := &model.IndicatorSet{}
	tests := []struct {
		name                 string
		buy                  float64
		wantStop, wantTarget float64
		wantAdd              float64
	}{
		{"profit 25%", 80, 90, 115, 90},
		{"profit 15%", 100.0 / 1.15, 92, 112, 93},
		{"profit 5%", 100.0 / 1.05, 92.38, 110, 95},
		{"loss 5%", 100.0 / 0.95, 92, 108, 95},
		{"loss 15%", 100.0 / 0.85, 90, 112, 93},
		{"loss 25%", 100.0 / 0.75, 88, 115, 90},
		{"loss 40%", 100.0 / 0.60, 85, 120, 88},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lv := PriceLevels(100, tt.buy, ind)
			if lv.StopLoss != tt.wantStop {
				t.Errorf("stop: expected %.2f, got %.2f", tt.wantStop, lv.StopLoss)
			}
			if lv.TargetPrice != tt.wantTarget {
				t.Errorf("target: expected %.2f, got %.2f", tt.wantTarget, lv.TargetPrice)
			}
			if lv.AddMorePrice != tt.wantAdd {
				t.Errorf("add: expected %.2f, got %.2f", tt.wantAdd, lv.AddMorePrice)
			}
		})
	}
}

func TestPriceLevels_Refinements(t *testing.T) {
	// Overbought caps the target.
	lv := PriceLevels(100, 90, &model.IndicatorSet{RSI: f(75)})
	if lv.TargetPrice != 105 {
		t.Errorf("overbought: expected target 105, got %.2f", lv.TargetPrice)
	}

	// SMA50 support raises the stop.
	lv = PriceLevels(100, 100, &model.IndicatorSet{SMA50: f(96)})
	if lv.StopLoss != 94.08 {
		t.Errorf("sma50 support: expected stop 94.08, got %.2f", lv.StopLoss)
	}

	// SMA200 inside the add window becomes the add price.
	lv = PriceLevels(100, 100, &model.IndicatorSet{SMA200: f(96.5)})
	if lv.AddMorePrice != 96.5 {
		t.Errorf("sma200 support: expected add 96.5, got %.2f", lv.AddMorePrice)
	}

	// Large profit while overbought takes profit at market.
	lv = PriceLevels(100, 50, &model.IndicatorSet{RSI: f(80)})
	if lv.TargetPrice != 100 {
		t.Errorf("take profit: expected target 100, got %.2f", lv.TargetPrice)
	}
}

func TestPriceLevels_NoPrice(t *testing.T) {
	lv := PriceLevels(0, 10, &model.IndicatorSet{})
	if lv.StopLoss != 0 || lv.TargetPrice != 0 || lv.AddMorePrice != 0 {
		t.Errorf("expected zero levels, got %+v", lv)
	}
}
