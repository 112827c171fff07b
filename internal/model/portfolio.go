package model

import "time"

// Portfolio groups holdings for one owner.
type Portfolio struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Holding is a position in a portfolio.
type Holding struct {
	ID            string    `json:"id"`
	PortfolioID   string    `json:"portfolioId"`
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	BuyPrice      float64   `json:"buyPrice"`
	AISuggestions string    `json:"aiSuggestions,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AnalysisRecord is a persisted batch advice run for a portfolio.
type AnalysisRecord struct {
	ID          string         `json:"id"`
	PortfolioID string         `json:"portfolioId"`
	Advice      []AdviceRecord `json:"advice"`
	Summary     string         `json:"summary"`
	CreatedAt   time.Time      `json:"createdAt"`
}
