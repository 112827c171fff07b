// Package api is the HTTP surface: stock data, portfolio CRUD and advice,
// all answered in a {success, data|error} envelope.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryanchan0215/stock-analysis-backend/internal/advisor"
	"github.com/ryanchan0215/stock-analysis-backend/internal/collector"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
	"github.com/ryanchan0215/stock-analysis-backend/internal/provider"
	"github.com/ryanchan0215/stock-analysis-backend/internal/store"
)

// Market is the fused market data the handlers read. *provider.Fusion
// satisfies it.
type Market interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	GetProfile(ctx context.Context, symbol string) model.CompanyProfile
	GetNews(ctx context.Context, symbol string, limit int) []model.NewsItem
	SearchSymbols(ctx context.Context, query string) []model.SymbolMatch
}

// Server wires handlers to their collaborators.
type Server struct {
	Market      Market
	Collector   *collector.Collector
	Advisor     *advisor.Advisor
	Store       store.Store
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors(s.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		ok(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	if s.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	stocks := api.Group("/stocks")
	{
		stocks.GET("/search", s.searchSymbols)
		stocks.GET("/:symbol/quote", s.getQuote)
		stocks.GET("/:symbol/profile", s.getProfile)
		stocks.GET("/:symbol/news", s.getNews)
		stocks.GET("/:symbol/indicators", s.getIndicators)
		stocks.GET("/:symbol/chart", s.getChart)
		stocks.GET("/:symbol/analysis", s.getAnalysis)
	}
	portfolios := api.Group("/portfolios")
	{
		portfolios.POST("", s.createPortfolio)
		portfolios.GET("", s.listPortfolios)
		portfolios.GET("/:id", s.getPortfolio)
		portfolios.PUT("/:id", s.updatePortfolio)
		portfolios.DELETE("/:id", s.deletePortfolio)
		portfolios.POST("/:id/holdings", s.createHolding)
		portfolios.GET("/:id/holdings", s.listHoldings)
		portfolios.POST("/:id/advice", s.advisePortfolio)
		portfolios.GET("/:id/analyses", s.listAnalyses)
	}
	holdings := api.Group("/holdings")
	{
		holdings.PUT("/:id", s.updateHolding)
		holdings.DELETE("/:id", s.deleteHolding)
		holdings.POST("/:id/advice", s.adviseHolding)
	}
	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})
	return r
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: msg})
}

// failErr maps err onto an HTTP status: absent things are 404, upstream
// trouble is 502, anything else 500.
func failErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, provider.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, provider.ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		log.Error().Str("path", c.FullPath()).Err(err).Msg("request failed")
	}
	fail(c, status, err.Error())
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

func cors(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := map[string]bool{}
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
