package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/ryanchan0215/stock-analysis-backend/internal/advisor"
	"github.com/ryanchan0215/stock-analysis-backend/internal/collector"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

const defaultAnalysesLimit = 20

type portfolioRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type holdingRequest struct {
	Symbol   string  `json:"symbol" binding:"required"`
	Quantity float64 `json:"quantity" binding:"gt=0"`
	BuyPrice float64 `json:"buyPrice" binding:"gt=0"`
}

// holdingPatch updates only the fields present.
type holdingPatch struct {
	Symbol   *string  `json:"symbol"`
	Quantity *float64 `json:"quantity" binding:"omitempty,gt=0"`
	BuyPrice *float64 `json:"buyPrice" binding:"omitempty,gt=0"`
}

func (s *Server) createPortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	p := &model.Portfolio{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.Store.CreatePortfolio(c.Request.Context(), p); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

func (s *Server) listPortfolios(c *gin.Context) {
	ps, err := s.Store.ListPortfolios(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ps)
}

func (s *Server) getPortfolio(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.Store.GetPortfolio(ctx, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	hs, err := s.Store.ListHoldings(ctx, p.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"portfolio": p, "holdings": hs})
}

func (s *Server) updatePortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	p, err := s.Store.GetPortfolio(ctx, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	p.Name, p.Description = strings.TrimSpace(req.Name), req.Description
	if err := s.Store.UpdatePortfolio(ctx, &p); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (s *Server) deletePortfolio(c *gin.Context) {
	if err := s.Store.DeletePortfolio(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (s *Server) createHolding(c *gin.Context) {
	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	h := &model.Holding{
		PortfolioID: c.Param("id"),
		Symbol:      collector.NormalizeSymbol(req.Symbol),
		Quantity:    req.Quantity,
		BuyPrice:    req.BuyPrice,
	}
	if h.Symbol == "" {
		fail(c, http.StatusBadRequest, "symbol is required")
		return
	}
	if err := s.Store.CreateHolding(c.Request.Context(), h); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, h)
}

func (s *Server) listHoldings(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.Store.GetPortfolio(ctx, c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	hs, err := s.Store.ListHoldings(ctx, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, hs)
}

func (s *Server) updateHolding(c *gin.Context) {
	var req holdingPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	h, err := s.Store.GetHolding(ctx, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	if req.Symbol != nil {
		if sym := collector.NormalizeSymbol(*req.Symbol); sym != "" {
			h.Symbol = sym
		}
	}
	if req.Quantity != nil {
		h.Quantity = *req.Quantity
	}
	if req.BuyPrice != nil {
		h.BuyPrice = *req.BuyPrice
	}
	if err := s.Store.UpdateHolding(ctx, &h); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, h)
}

func (s *Server) deleteHolding(c *gin.Context) {
	if err := s.Store.DeleteHolding(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (s *Server) adviseHolding(c *gin.Context) {
	ctx := c.Request.Context()
	h, err := s.Store.GetHolding(ctx, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	rec, err := s.Advisor.AdviseHolding(ctx, h)
	if err != nil {
		failErr(c, err)
		return
	}
	if err := s.Store.SaveSuggestion(ctx, h.ID, advisor.SuggestionText(rec)); err != nil {
		log.Error().Str("holding", h.ID).Err(err).Msg("save suggestion")
	}
	ok(c, http.StatusOK, rec)
}

func (s *Server) advisePortfolio(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.Store.GetPortfolio(ctx, c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	rec, err := s.Advisor.RunPortfolio(ctx, s.Store, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

func (s *Server) listAnalyses(c *gin.Context) {
	limit, valid := intQuery(c, "limit", defaultAnalysesLimit, 500)
	if !valid {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.Store.GetPortfolio(ctx, c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	as, err := s.Store.ListAnalyses(ctx, c.Param("id"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, as)
}
