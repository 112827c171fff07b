// Package store persists portfolios, holdings and analysis history.
package store

import (
	"context"
	"errors"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// ErrNotFound is returned when a portfolio, holding or analysis does not exist.
var ErrNotFound = errors.New("not found")

// Store is key-based CRUD over portfolios, holdings and analyses.
type Store interface {
	CreatePortfolio(ctx context.Context, p *model.Portfolio) error
	ListPortfolios(ctx context.Context) ([]model.Portfolio, error)
	GetPortfolio(ctx context.Context, id string) (model.Portfolio, error)
	UpdatePortfolio(ctx context.Context, p *model.Portfolio) error
	DeletePortfolio(ctx context.Context, id string) error

	CreateHolding(ctx context.Context, h *model.Holding) error
	ListHoldings(ctx context.Context, portfolioID string) ([]model.Holding, error)
	GetHolding(ctx context.Context, id string) (model.Holding, error)
	UpdateHolding(ctx context.Context, h *model.Holding) error
	DeleteHolding(ctx context.Context, id string) error
	// SaveSuggestion writes the latest advice text onto a holding.
	SaveSuggestion(ctx context.Context, holdingID, text string) error

	CreateAnalysis(ctx context.Context, a *model.AnalysisRecord) error
	// ListAnalyses returns the newest analyses first; limit <= 0 means all.
	ListAnalyses(ctx context.Context, portfolioID string, limit int) ([]model.AnalysisRecord, error)

	Close() error
}
