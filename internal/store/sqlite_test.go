package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPortfolioCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := &model.Portfolio{Name: "Core", Description: "long term"}
	if err := s.CreatePortfolio(ctx, p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", p)
	}

	got, err := s.GetPortfolio(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Core" || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, p)
	}

	p.Name = "Renamed"
	if err := s.UpdatePortfolio(ctx, p); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListPortfolios(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "Renamed" {
		t.Errorf("unexpected list %+v", list)
	}

	if err := s.UpdatePortfolio(ctx, &model.Portfolio{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
	if _, err := s.GetPortfolio(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on get, got %v", err)
	}
}

func TestHoldingsAndSuggestions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := &model.Portfolio{Name: "Growth"}
	if err := s.CreatePortfolio(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateHolding(ctx, &model.Holding{PortfolioID: "nope", Symbol: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("holding in unknown portfolio: expected ErrNotFound, got %v", err)
	}

	symbols := []string{"AAPL", "MSFT", "NVDA"}
	var ids []string
	for i, sym := range symbols {
		h := &model.Holding{PortfolioID: p.ID, Symbol: sym, Quantity: float64(i + 1), BuyPrice: 100.5}
		if err := s.CreateHolding(ctx, h); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, h.ID)
	}

	list, err := s.ListHoldings(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 holdings, got %d", len(list))
	}
	for i, h := range list {
		if h.Symbol != symbols[i] {
			t.Errorf("holding %d: expected %s, got %s", i, symbols[i], h.Symbol)
		}
	}

	if err := s.SaveSuggestion(ctx, ids[0], "HOLD 60%"); err != nil {
		t.Fatal(err)
	}
	h, err := s.GetHolding(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if h.AISuggestions != "HOLD 60%" {
		t.Errorf("suggestion not saved: %q", h.AISuggestions)
	}

	h.Quantity = 10
	if err := s.UpdateHolding(ctx, &h); err != nil {
		t.Fatal(err)
	}
	h, _ = s.GetHolding(ctx, ids[0])
	if h.Quantity != 10 || h.AISuggestions != "HOLD 60%" {
		t.Errorf("update lost data: %+v", h)
	}

	if err := s.DeleteHolding(ctx, ids[1]); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteHolding(ctx, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if err := s.SaveSuggestion(ctx, ids[1], "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("suggestion on deleted holding: expected ErrNotFound, got %v", err)
	}
}

func TestAnalysesAndCascade(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := &model.Portfolio{Name: "Income"}
	if err := s.CreatePortfolio(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateHolding(ctx, &model.Holding{PortfolioID: p.ID, Symbol: "KO", Quantity: 1, BuyPrice: 60}); err != nil {
		t.Fatal(err)
	}

	for _, summary := range []string{"first", "second"} {
		a := &model.AnalysisRecord{
			PortfolioID: p.ID,
			Summary:     summary,
			Advice: []model.AdviceRecord{{
				Symbol:     "KO",
				Action:     model.ActionBuyMore,
				Confidence: 71,
				Reasoning:  "steady",
				TechnicalSignals: model.TechnicalSignals{
					Signals: []model.Signal{{Type: model.SignalBuy, Indicator: "RSI", Strength: model.StrengthStrong}},
				},
			}},
		}
		if err := s.CreateAnalysis(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListAnalyses(ctx, p.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Summary != "second" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	adv := list[0].Advice
	if len(adv) != 1 || adv[0].Action != model.ActionBuyMore || adv[0].Confidence != 71 ||
		len(adv[0].TechnicalSignals.Signals) != 1 {
		t.Errorf("advice blob not preserved: %+v", adv)
	}
	if limited, _ := s.ListAnalyses(ctx, p.ID, 1); len(limited) != 1 {
		t.Errorf("expected limit 1, got %d", len(limited))
	}

	if err := s.DeletePortfolio(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if hs, _ := s.ListHoldings(ctx, p.ID); len(hs) != 0 {
		t.Errorf("holdings survived portfolio delete: %d", len(hs))
	}
	if as, _ := s.ListAnalyses(ctx, p.ID, 0); len(as) != 0 {
		t.Errorf("analyses survived portfolio delete: %d", len(as))
	}
	if err := s.DeletePortfolio(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPragmasOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// Hold two connections at once so the pool cannot hand back the same one.
	c1, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer c1.Close()
	c2, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()

	for i, c := range []*sql.Conn{c1, c2} {
		var timeout, fk int
		if err := c.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout); err != nil {
			t.Fatal(err)
		}
		if err := c.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
			t.Fatal(err)
		}
		if timeout != 5000 || fk != 1 {
			t.Errorf("conn %d: busy_timeout=%d foreign_keys=%d", i, timeout, fk)
		}
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.db.ExecContext(ctx, `INSERT INTO holdings
		(id, portfolio_id, symbol, quantity, buy_price, created_at, updated_at)
		VALUES ('h1', 'gone', 'AAPL', 1, 1, 0, 0)`)
	if err == nil {
		t.Fatal("holding without a portfolio must be rejected")
	}
	if !errors.Is(orphan(err, "gone"), ErrNotFound) {
		t.Errorf("foreign key violation should map to ErrNotFound, got %v", err)
	}
}
