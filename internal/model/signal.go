package model

import "time"

// Action is the recommendation for a holding.
type Action string

const (
	ActionHold    Action = "HOLD"
	ActionBuyMore Action = "BUY_MORE"
	ActionReduce  Action = "REDUCE"
	ActionSell    Action = "SELL"
)

// ParseAction maps free text onto an Action. ok is false for unrecognised input.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionHold, ActionBuyMore, ActionReduce, ActionSell:
		return Action(s), true
	}
	switch s {
	case "BUY", "ADD", "BUY MORE", "buy_more", "buy", "add":
		return ActionBuyMore, true
	case "hold":
		return ActionHold, true
	case "reduce", "TRIM", "trim":
		return ActionReduce, true
	case "sell", "EXIT", "exit":
		return ActionSell, true
	}
	return "", false
}

// IndicatorScore is one indicator's contribution to the composite score.
type IndicatorScore struct {
	Name       string  `json:"name"`
	Score      float64 `json:"score"` // 0 ~ 2.5
	Bullish    float64 `json:"bullish"`
	Bearish    float64 `json:"bearish"`
	Commentary string  `json:"commentary"`
}

// ScoreCard is the output of signal scoring.
type ScoreCard struct {
	Indicators   []IndicatorScore `json:"indicators"`
	Total        float64          `json:"total"` // 0 ~ 10
	BullishScore float64          `json:"bullishScore"`
	BearishScore float64          `json:"bearishScore"`
	BullishShare float64          `json:"bullishShare"` // percent
	Overall      string           `json:"overall"`
}

// PriceLevels holds recommended prices and their justifications.
type PriceLevels struct {
	StopLoss          float64 `json:"stopLoss"`
	StopLossReason    string  `json:"stopLossReason"`
	AddMorePrice      float64 `json:"addMorePrice"`
	AddMoreReason     string  `json:"addMoreReason"`
	TargetPrice       float64 `json:"targetPrice"`
	TargetReason      string  `json:"targetReason"`
	ProfitLossPercent float64 `json:"profitLossPercent"`
}

// TechnicalSignals is the signal-derived scoring attached to advice.
type TechnicalSignals struct {
	Signals []Signal  `json:"signals"`
	Scores  ScoreCard `json:"scores"`
}

// AdviceRecord is the per-holding recommendation.
type AdviceRecord struct {
	HoldingID        string           `json:"holdingId,omitempty"`
	Symbol           string           `json:"symbol"`
	Action           Action           `json:"action"`
	Confidence       int              `json:"confidence"`
	TargetPrice      float64          `json:"targetPrice"`
	StopLoss         float64          `json:"stopLoss"`
	AddMorePrice     float64          `json:"addMorePrice"`
	Reasoning        string           `json:"reasoning"`
	TechnicalSignals TechnicalSignals `json:"technicalSignals"`
	CurrentPrice     float64          `json:"currentPrice"`
	ProfitLoss       float64          `json:"profitLossPercent"`
	Degraded         bool             `json:"degraded,omitempty"`
	Model            string           `json:"model,omitempty"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// DegradedAdvice returns the HOLD/zero-confidence record used when a
// holding could not be analysed.
func DegradedAdvice(holdingID, symbol string, cause error) AdviceRecord {
	reason := "analysis unavailable"
	if cause != nil {
		reason = "analysis unavailable: " + cause.Error()
	}
	return AdviceRecord{
		HoldingID:        holdingID,
		Symbol:           symbol,
		Action:           ActionHold,
		Confidence:       0,
		Reasoning:        reason,
		TechnicalSignals: TechnicalSignals{Signals: []Signal{}},
		Degraded:         true,
		GeneratedAt:      time.Now(),
	}
}
