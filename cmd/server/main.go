package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ryanchan0215/stock-analysis-backend/internal/advisor"
	"github.com/ryanchan0215/stock-analysis-backend/internal/api"
	"github.com/ryanchan0215/stock-analysis-backend/internal/collector"
	"github.com/ryanchan0215/stock-analysis-backend/internal/config"
	"github.com/ryanchan0215/stock-analysis-backend/internal/logger"
	"github.com/ryanchan0215/stock-analysis-backend/internal/metrics"
	"github.com/ryanchan0215/stock-analysis-backend/internal/narrative"
	"github.com/ryanchan0215/stock-analysis-backend/internal/notifier"
	"github.com/ryanchan0215/stock-analysis-backend/internal/provider"
	"github.com/ryanchan0215/stock-analysis-backend/internal/scheduler"
	"github.com/ryanchan0215/stock-analysis-backend/internal/store"
	"github.com/ryanchan0215/stock-analysis-backend/internal/strategy"
)

func main() {
	// Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("addr", cfg.Server.Addr).Msg("stock analysis backend starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Market data
	fusion := newFusion(cfg, m)
	col := collector.NewCollector(fusion, m)

	// Narrative
	var llm narrative.Completer
	if cfg.LLMEnabled() {
		llm = narrative.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.Proxy)
		log.Info().Strs("models", cfg.LLM.Models).Msg("language model enabled")
	} else {
		log.Warn().Msg("no LLM api key, narratives use the template")
	}
	gen := narrative.NewGenerator(llm, cfg.LLM.Models, cfg.LLM.Timeout, m)
	adv := advisor.New(col, strategy.NewScorer(nil), gen, m)

	// Store
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notifications and scheduler
	var tn *notifier.TelegramNotifier
	var sender notifier.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}
	sched := scheduler.NewScheduler(ctx, st, adv, fusion, sender)
	if err := sched.RegisterAll(cfg.Schedule.AdviceCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing advice task now")
		go sched.RunAdviceNow()
	}

	// HTTP
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &api.Server{
		Market:      fusion,
		Collector:   col,
		Advisor:     adv,
		Store:       st,
		Gatherer:    reg,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()
	log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("stopped")
}

func newFusion(cfg *config.Config, m *metrics.Metrics) *provider.Fusion {
	if cfg.Providers.Mock {
		log.Warn().Msg("using mock market data")
		return provider.NewFusion(&provider.Mock{ProviderName: "mock", Price: 100}, nil, m)
	}
	opts := provider.Options{
		Proxy:         cfg.Proxy,
		QuoteTimeout:  cfg.Providers.QuoteTimeout,
		SeriesTimeout: cfg.Providers.SeriesTimeout,
	}
	yopts := opts
	yopts.BaseURL = cfg.Providers.YahooBaseURL
	primary := provider.NewYahoo(yopts, m)

	var secondary provider.Provider
	if cfg.Providers.FinnhubAPIKey != "" {
		fopts := opts
		fopts.BaseURL = cfg.Providers.FinnhubBaseURL
		fopts.APIKey = cfg.Providers.FinnhubAPIKey
		secondary = provider.NewFinnhub(fopts, m)
	} else {
		log.Warn().Msg("no finnhub api key, running without a secondary provider")
	}
	log.Info().Str("primary", primary.Name()).Msg("market data providers ready")
	return provider.NewFusion(primary, secondary, m)
}
