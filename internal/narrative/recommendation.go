package narrative

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
	"github.com/ryanchan0215/stock-analysis-backend/internal/strategy"
)

// Recommendation is the structured verdict a model may append to its text.
// Nil fields were absent or unusable.
type Recommendation struct {
	Action       *model.Action
	Confidence   *float64
	TargetPrice  *float64
	StopLoss     *float64
	AddMorePrice *float64
}

// looseFloat accepts a JSON number or a numeric string such as "72" or "$101.5".
type looseFloat struct {
	v  float64
	ok bool
}

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "$"), "%")
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil // unusable values are treated as absent
	}
	f.v, f.ok = v, true
	return nil
}

func (f looseFloat) ptr() *float64 {
	if !f.ok {
		return nil
	}
	v := f.v
	return &v
}

type rawRecommendation struct {
	Action       string     `json:"action"`
	Confidence   looseFloat `json:"confidence"`
	TargetPrice  looseFloat `json:"targetPrice"`
	StopLoss     looseFloat `json:"stopLoss"`
	AddMorePrice looseFloat `json:"addMorePrice"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractRecommendation finds the JSON verdict in text. It returns the
// recommendation, the text with the JSON removed, and whether one was found.
func ExtractRecommendation(text string) (*Recommendation, string, bool) {
	candidate, rest := "", text
	if m := fencedJSON.FindStringSubmatchIndex(text); m != nil {
		candidate = text[m[2]:m[3]]
		rest = text[:m[0]] + text[m[1]:]
	} else if start, end, ok := lastObject(text); ok {
		candidate = text[start:end]
		rest = text[:start] + text[end:]
	}
	if candidate == "" {
		return nil, text, false
	}

	var raw rawRecommendation
	dec := json.NewDecoder(bytes.NewReader([]byte(candidate)))
	if err := dec.Decode(&raw); err != nil {
		return nil, text, false
	}

	rec := &Recommendation{
		Confidence:   raw.Confidence.ptr(),
		TargetPrice:  raw.TargetPrice.ptr(),
		StopLoss:     raw.StopLoss.ptr(),
		AddMorePrice: raw.AddMorePrice.ptr(),
	}
	if a, ok := model.ParseAction(strings.TrimSpace(raw.Action)); ok {
		rec.Action = &a
	} else if a, ok := model.ParseAction(strings.ToUpper(strings.TrimSpace(raw.Action))); ok {
		rec.Action = &a
	}
	if rec.Action == nil && rec.Confidence == nil && rec.TargetPrice == nil &&
		rec.StopLoss == nil && rec.AddMorePrice == nil {
		return nil, text, false
	}
	return rec, strings.TrimSpace(rest), true
}

// lastObject locates the last balanced {...} in s that mentions "action".
func lastObject(s string) (start, end int, ok bool) {
	for i := strings.LastIndex(s, "{"); i >= 0; i = strings.LastIndex(s[:i], "{") {
		depth := 0
		for j := i; j < len(s); j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				if strings.Contains(s[i:j+1], `"action"`) {
					return i, j + 1, true
				}
				break
			}
		}
	}
	return 0, 0, false
}

// PerturbConfidence nudges confidences that land on a multiple of 25 by a
// nonzero amount within ±8, keeping the result in [0, 100].
func PerturbConfidence(c int, rnd strategy.RandSource) int {
	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	if c%25 != 0 {
		return c
	}
	if rnd == nil {
		rnd = strategy.RandFunc(rand.Float64)
	}
	v := int(rnd.Float64() * 16)
	if v > 15 {
		v = 15
	}
	if v < 0 {
		v = 0
	}
	delta := v - 8 // -8..-1
	if v >= 8 {
		delta = v - 7 // 1..8
	}
	if c+delta < 0 || c+delta > 100 {
		delta = -delta
	}
	return c + delta
}

// Decision is the final verdict after merging the model's recommendation
// with the rule-based assessment.
type Decision struct {
	Action       model.Action
	Confidence   int
	TargetPrice  float64
	StopLoss     float64
	AddMorePrice float64
}

// Decide takes each field from rec when present and within the same hard
// bounds the rule ladder enforces, otherwise from the rule-based assessment.
func Decide(rec *Recommendation, a strategy.Assessment, currentPrice float64, rnd strategy.RandSource) Decision {
	d := Decision{
		Action:       a.Action,
		Confidence:   a.Confidence,
		TargetPrice:  a.Levels.TargetPrice,
		StopLoss:     a.Levels.StopLoss,
		AddMorePrice: a.Levels.AddMorePrice,
	}
	if rec == nil {
		return d
	}
	if rec.Action != nil {
		d.Action = *rec.Action
	}
	if rec.Confidence != nil {
		c := math.Max(0, math.Min(100, *rec.Confidence))
		d.Confidence = PerturbConfidence(int(math.Round(c)), rnd)
	}
	if v := rec.TargetPrice; v != nil && *v > currentPrice && targetAllowed(*v, a.Levels.ProfitLossPercent, currentPrice) {
		d.TargetPrice = *v
	}
	if v := rec.StopLoss; v != nil && *v > 0 && *v <= currentPrice*strategy.MaxStopLossRatio {
		d.StopLoss = *v
	}
	if v := rec.AddMorePrice; v != nil && *v > 0 && *v <= currentPrice*strategy.MaxAddMoreRatio {
		d.AddMorePrice = *v
	}
	return d
}

// targetAllowed applies the same floor as the rule ladder: at or below the
// profit limit a target must clear MinTargetRatio.
func targetAllowed(target, pnl, currentPrice float64) bool {
	if pnl > strategy.TargetFloorProfitLimit {
		return true
	}
	return target >= currentPrice*strategy.MinTargetRatio
}
