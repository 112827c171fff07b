package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ryanchan0215/stock-analysis-backend/internal/chart"
	"github.com/ryanchan0215/stock-analysis-backend/internal/collector"
)

const (
	defaultNewsLimit = 10
	maxNewsLimit     = 50
	defaultChartDays = 365
	maxDays          = 3650
)

// intQuery reads a positive integer query parameter, falling back to def
// and capping at ceiling.
func intQuery(c *gin.Context, key string, def, ceiling int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		fail(c, http.StatusBadRequest, key+" must be a positive integer")
		return 0, false
	}
	if v > ceiling {
		v = ceiling
	}
	return v, true
}

func symbolParam(c *gin.Context) (string, bool) {
	sym := collector.NormalizeSymbol(c.Param("symbol"))
	if sym == "" || len(sym) > 20 {
		fail(c, http.StatusBadRequest, "invalid symbol")
		return "", false
	}
	return sym, true
}

func (s *Server) searchSymbols(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, "q is required")
		return
	}
	ok(c, http.StatusOK, s.Market.SearchSymbols(c.Request.Context(), q))
}

func (s *Server) getQuote(c *gin.Context) {
	sym, valid := symbolParam(c)
	if !valid {
		return
	}
	q, err := s.Market.GetQuote(c.Request.Context(), sym)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

func (s *Server) getProfile(c *gin.Context) {
	sym, valid := symbolParam(c)
	if !valid {
		return
	}
	ok(c, http.StatusOK, s.Market.GetProfile(c.Request.Context(), sym))
}

func (s *Server) getNews(c *gin.Context) {
	sym, valid := symbolParam(c)
	if !valid {
		return
	}
	limit, valid := intQuery(c, "limit", defaultNewsLimit, maxNewsLimit)
	if !valid {
		return
	}
	ok(c, http.StatusOK, s.Market.GetNews(c.Request.Context(), sym, limit))
}

func (s *Server) getIndicators(c *gin.Context) {
	sym, valid := symbolParam(c)
	if !valid {
		return
	}
	days, valid := intQuery(c, "days", collector.DefaultDaysBack, maxDays)
	if !valid {
		return
	}
	snap, err := s.Collector.Technicals(c.Request.Context(), sym, days)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"symbol":     snap.Symbol,
		"price":      snap.Quote.CurrentPrice,
		"points":     snap.Series.Len(),
		"indicators": snap.Indicators,
		"range":      snap.Range,
	})
}

func (s *Server) getChart(c *gin.Context) {
	sym, valid := symbolParam(c)
	if !valid {
		return
	}
	days, valid := intQuery(c, "days", defaultChartDays, maxDays)
	if !valid {
		return
	}
	snap, err := s.Collector.Technicals(c.Request.Context(), sym, days)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, chart.AssembleHistory(snap.Series, snap.History))
}

func (s *Server) getAnalysis(c *gin.Context) {
	sym, valid := symbolParam(c)
	if !valid {
		return
	}
	res, err := s.Advisor.Analyze(c.Request.Context(), sym)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
