package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// Repository is the persistence a portfolio run needs. *store.SQLiteStore
// satisfies it.
type Repository interface {
	ListHoldings(ctx context.Context, portfolioID string) ([]model.Holding, error)
	SaveSuggestion(ctx context.Context, holdingID, text string) error
	CreateAnalysis(ctx context.Context, a *model.AnalysisRecord) error
}

// RunPortfolio advises every holding of a portfolio, writes each healthy
// record's suggestion back onto its holding and persists the batch as an
// analysis record.
func (a *Advisor) RunPortfolio(ctx context.Context, repo Repository, portfolioID string) (*model.AnalysisRecord, error) {
	holdings, err := repo.ListHoldings(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	advice := a.AdvisePortfolio(ctx, holdings)
	for _, r := range advice {
		if r.Degraded || r.HoldingID == "" {
			continue
		}
		if err := repo.SaveSuggestion(ctx, r.HoldingID, SuggestionText(r)); err != nil {
			log.Error().Str("holding", r.HoldingID).Err(err).Msg("save suggestion")
		}
	}

	rec := &model.AnalysisRecord{
		PortfolioID: portfolioID,
		Advice:      advice,
		Summary:     Summarize(advice),
	}
	if err := repo.CreateAnalysis(ctx, rec); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	log.Info().Str("portfolio", portfolioID).Str("summary", rec.Summary).Msg("portfolio analysed")
	return rec, nil
}

// SuggestionText is the ai_suggestions value stored on a holding.
func SuggestionText(r model.AdviceRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d%% confidence) at %.2f\n", r.Action, r.Confidence, r.CurrentPrice)
	fmt.Fprintf(&b, "Target %.2f | Stop-loss %.2f | Add more %.2f\n\n", r.TargetPrice, r.StopLoss, r.AddMorePrice)
	b.WriteString(r.Reasoning)
	return b.String()
}
