package narrative

import (
	"context"
	"time"

	"github.com/phuslu/log"

	"github.com/ryanchan0215/stock-analysis-backend/internal/metrics"
)

// FallbackModel names the template in Result.Model.
const FallbackModel = "template"

// Result is a generated narrative.
type Result struct {
	Text           string
	Model          string
	Fallback       bool
	Recommendation *Recommendation
}

// Generator tries each model in order and falls back to the template.
type Generator struct {
	LLM     Completer
	Models  []string
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// NewGenerator creates a Generator. A nil llm or empty models list always
// uses the template.
func NewGenerator(llm Completer, models []string, timeout time.Duration, m *metrics.Metrics) *Generator {
	return &Generator{LLM: llm, Models: models, Timeout: timeout, Metrics: m}
}

// Generate never fails: when every model errors or returns nothing usable
// the deterministic template is returned.
func (g *Generator) Generate(ctx context.Context, in Input) Result {
	if g != nil && g.LLM != nil {
		system, user := BuildPrompt(in)
		for _, name := range g.Models {
			text, err := g.complete(ctx, name, system, user)
			if err != nil {
				g.Metrics.ObserveLLM(name, metrics.OutcomeError)
				log.Warn().Str("symbol", in.Quote.Symbol).Str("model", name).Err(err).Msg("language model failed")
				continue
			}
			text = StripControlTokens(text)
			rec, body, _ := ExtractRecommendation(text)
			if body == "" && rec == nil {
				g.Metrics.ObserveLLM(name, metrics.OutcomeEmpty)
				log.Warn().Str("symbol", in.Quote.Symbol).Str("model", name).Msg("language model returned no text")
				continue
			}
			g.Metrics.ObserveLLM(name, metrics.OutcomeOK)
			if body == "" {
				// verdict only: keep it, describe it with the template
				body = Fallback(in)
			}
			return Result{Text: body, Model: name, Recommendation: rec}
		}
		if ctx.Err() == nil && len(g.Models) > 0 {
			log.Warn().Str("symbol", in.Quote.Symbol).Int("models", len(g.Models)).Msg("all language models failed, using template")
		}
	}
	return Result{Text: Fallback(in), Model: FallbackModel, Fallback: true}
}

func (g *Generator) complete(ctx context.Context, model, system, user string) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	return g.LLM.Complete(ctx, model, system, user)
}
