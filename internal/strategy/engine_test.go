package strategy

import (
	"strings"
	"testing"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

func f(v float64) *float64 { return &v }

func bullishSet() *model.IndicatorSet {
	return &model.IndicatorSet{
		Price:     120,
		RSI:       f(28),
		SMA50:     f(110),
		SMA200:    f(100),
		MACD:      &model.MACD{MACDLine: 1.2, SignalLine: 0.6, Histogram: 0.6},
		Bollinger: &model.Bollinger{Upper: 130, Middle: 122, Lower: 121},
	}
}

func bearishSet() *model.IndicatorSet {
	return &model.IndicatorSet{
		Price:     80,
		RSI:       f(78),
		SMA50:     f(90),
		SMA200:    f(100),
		MACD:      &model.MACD{MACDLine: -1, SignalLine: -0.4, Histogram: -0.6},
		Bollinger: &model.Bollinger{Upper: 79, Middle: 75, Lower: 71},
	}
}

func TestScore_Bullish(t *testing.T) {
	card := Score(bullishSet())
	if len(card.Indicators) != 4 {
		t.Fatalf("expected 4 indicator scores, got %d", len(card.Indicators))
	}
	if card.BearishScore != 0 {
		t.Errorf("expected no bearish weight, got %.2f", card.BearishScore)
	}
	if !strings.HasPrefix(card.Overall, "bullish") {
		t.Errorf("expected bullish label, got %q", card.Overall)
	}
	if card.Total < 0 || card.Total > 10 {
		t.Errorf("composite out of range: %.2f", card.Total)
	}
}

func TestScore_Bearish(t *testing.T) {
	card := Score(bearishSet())
	if card.BullishScore != 0 {
		t.Errorf("expected no bullish weight, got %.2f", card.BullishScore)
	}
	if card.Overall != "bearish 100%" {
		t.Errorf("expected bearish 100%%, got %q", card.Overall)
	}
}

func TestScore_UnknownIsNeutral(t *testing.T) {
	card := Score(&model.IndicatorSet{Price: 10})
	if card.Total != 4*neutralScore {
		t.Errorf("expected neutral composite %.2f, got %.2f", 4*neutralScore, card.Total)
	}
	if card.Overall != "neutral" || card.BullishShare != 50 {
		t.Errorf("expected neutral 50%%, got %q %.1f", card.Overall, card.BullishShare)
	}
}

func TestScoreRSI_Ladder(t *testing.T) {
	tests := []struct {
		rsi  float64
		want float64
	}{
		{10, 2.5}, {30, 2.5}, {35, 2.0}, {50, 1.25}, {65, 0.75}, {70, 0.25}, {95, 0.25},
	}
	for _, tt := range tests {
		s := scoreRSI(&model.IndicatorSet{RSI: f(tt.rsi)})
		if s.Score != tt.want {
			t.Errorf("RSI %.0f: expected %.2f, got %.2f", tt.rsi, tt.want, s.Score)
		}
		if s.Score < 0 || s.Score > MaxFactorScore {
			t.Errorf("RSI %.0f: score out of range", tt.rsi)
		}
	}
}

func TestScoreMACD_Clamped(t *testing.T) {
	for _, h := range []float64{-50, -1, 0, 0.2, 3, 50} {
		s := scoreMACD(&model.IndicatorSet{MACD: &model.MACD{Histogram: h}})
		if s.Score < 0 || s.Score > MaxFactorScore {
			t.Errorf("hist %.1f: score %.2f out of range", h, s.Score)
		}
		if s.Bullish > weightMACD || s.Bearish > weightMACD {
			t.Errorf("hist %.1f: tally exceeds weight", h)
		}
	}
	weak := scoreMACD(&model.IndicatorSet{MACD: &model.MACD{Histogram: 0.01}})
	strong := scoreMACD(&model.IndicatorSet{MACD: &model.MACD{Histogram: 0.3}})
	if weak.Bullish >= strong.Bullish || strong.Bullish != weightMACD {
		t.Errorf("expected scaling by extremity: weak %.2f strong %.2f", weak.Bullish, strong.Bullish)
	}
}

func TestConfidence_Bounds(t *testing.T) {
	sets := []*model.IndicatorSet{bullishSet(), bearishSet(), {Price: 1}}
	pnls := []float64{-99, -30, 0, 30, 500}
	rands := []float64{0, 0.5, 0.999}
	for _, ind := range sets {
		card := Score(ind)
		for _, pnl := range pnls {
			for _, r := range rands {
				c := NewScorer(Fixed(r)).Confidence(card, ind, pnl)
				if c < MinConfidence || c > MaxConfidence {
					t.Errorf("confidence %d out of [%d,%d] (pnl %.0f, r %.2f)", c, MinConfidence, MaxConfidence, pnl, r)
				}
			}
		}
	}
}

func TestConfidence_Deterministic(t *testing.T) {
	ind := &model.IndicatorSet{Price: 10}
	card := Score(ind)
	s := NewScorer(Fixed(0.5))
	if got := s.Confidence(card, ind, 0); got != 50 {
		t.Errorf("expected 50 with no information and zero jitter, got %d", got)
	}
	if got := NewScorer(Fixed(0)).Confidence(card, ind, 0); got != 47 {
		t.Errorf("expected jitter -3, got %d", got)
	}
	if got := NewScorer(Fixed(0.9999)).Confidence(card, ind, 0); got != 53 {
		t.Errorf("expected jitter +3, got %d", got)
	}
}

func TestConfidence_AgreementRaises(t *testing.T) {
	ind := bullishSet()
	card := Score(ind)
	agreeing := NewScorer(Fixed(0.5)).Confidence(card, ind, 0)

	ind.MACD.Histogram = -0.01
	ind.SMA50, ind.SMA200 = f(100), f(110)
	contrary := NewScorer(Fixed(0.5)).Confidence(card, ind, 0)
	if agreeing <= contrary {
		t.Errorf("expected agreement to raise confidence: %d vs %d", agreeing, contrary)
	}
}

func TestChooseAction(t *testing.T) {
	tests := []struct {
		name  string
		share float64
		rsi   float64
		pnl   float64
		want  model.Action
	}{
		{"strong bullish", 80, 50, 0, model.ActionBuyMore},
		{"bullish but overbought", 80, 75, 0, model.ActionHold},
		{"bearish deep loss", 20, 50, -25, model.ActionSell},
		{"bearish", 20, 50, -5, model.ActionReduce},
		{"big gain overbought", 50, 72, 40, model.ActionReduce},
		{"neutral", 50, 50, 5, model.ActionHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChooseAction(model.ScoreCard{BullishShare: tt.share}, &model.IndicatorSet{RSI: f(tt.rsi)}, tt.pnl)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	a := NewScorer(Fixed(0.5)).Evaluate(bullishSet(), 120, 100)
	if a.Action != model.ActionBuyMore {
		t.Errorf("expected BUY_MORE, got %s", a.Action)
	}
	if a.Levels.ProfitLossPercent != 20 {
		t.Errorf("expected P/L 20, got %.2f", a.Levels.ProfitLossPercent)
	}
	if a.Confidence < MinConfidence || a.Confidence > MaxConfidence {
		t.Errorf("confidence out of range: %d", a.Confidence)
	}
}
