package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/ryanchan0215/stock-analysis-backend/internal/advisor"
	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
	"github.com/ryanchan0215/stock-analysis-backend/internal/notifier"
	"github.com/ryanchan0215/stock-analysis-backend/internal/store"
)

// Quoter fetches a live quote for the /quote command.
type Quoter interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
}

// Scheduler manages all cron tasks and answers bot commands.
type Scheduler struct {
	Cron     *cron.Cron
	Store    store.Store
	Advisor  *advisor.Advisor
	Quotes   Quoter
	Notifier notifier.Sender // nil disables notifications
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, st store.Store, adv *advisor.Advisor, quotes Quoter, n notifier.Sender) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Store:    st,
		Advisor:  adv,
		Quotes:   quotes,
		Notifier: n,
		Ctx:      ctx,
	}
}

// RegisterAll registers the periodic advice task.
func (s *Scheduler) RegisterAll(adviceCron string) error {
	if _, err := s.Cron.AddFunc(adviceCron, s.adviceTask); err != nil {
		return fmt.Errorf("register advice task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunAdviceNow executes the advice task immediately.
func (s *Scheduler) RunAdviceNow() {
	s.adviceTask()
}

func (s *Scheduler) adviceTask() {
	log.Info().Msg("running advice task")
	portfolios, err := s.Store.ListPortfolios(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("advice task: list portfolios")
		return
	}
	for _, p := range portfolios {
		if s.Ctx.Err() != nil {
			return
		}
		rec, err := s.Advisor.RunPortfolio(s.Ctx, s.Store, p.ID)
		if err != nil {
			log.Error().Str("portfolio", p.ID).Err(err).Msg("advice task")
			continue
		}
		if msg := notifier.FormatAdviceDigest(p.Name, rec.Advice); msg != "" {
			s.trySend(msg)
		}
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// "/quote@MyBot AAPL" addresses a specific bot in group chats
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	switch name {
	case "/quote":
		if len(fields) < 2 {
			return "usage: /quote SYMBOL"
		}
		q, err := s.Quotes.GetQuote(ctx, strings.ToUpper(fields[1]))
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatQuote(q)
	case "/advice":
		if len(fields) < 2 {
			return "usage: /advice PORTFOLIO_ID"
		}
		p, err := s.Store.GetPortfolio(ctx, fields[1])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		rec, err := s.Advisor.RunPortfolio(ctx, s.Store, p.ID)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		if msg := notifier.FormatAdviceDigest(p.Name, rec.Advice); msg != "" {
			return msg
		}
		return fmt.Sprintf("✅ %s: nothing to do (%s)", p.Name, rec.Summary)
	case "/portfolios":
		ps, err := s.Store.ListPortfolios(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		if len(ps) == 0 {
			return "no portfolios"
		}
		var b strings.Builder
		for _, p := range ps {
			fmt.Fprintf(&b, "• %s <code>%s</code>\n", html.EscapeString(p.Name), p.ID)
		}
		return b.String()
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
