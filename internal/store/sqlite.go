package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

// SQLiteStore persists data to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	// Pragmas in the DSN apply to every pooled connection.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS holdings (
			id             TEXT PRIMARY KEY,
			portfolio_id   TEXT NOT NULL REFERENCES portfolios(id),
			symbol         TEXT NOT NULL,
			quantity       REAL NOT NULL,
			buy_price      REAL NOT NULL,
			ai_suggestions TEXT NOT NULL DEFAULT '',
			created_at     INTEGER NOT NULL,
			updated_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_holdings_portfolio ON holdings(portfolio_id)`,

		`CREATE TABLE IF NOT EXISTS analyses (
			id           TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id),
			advice       TEXT NOT NULL,
			summary      TEXT NOT NULL DEFAULT '',
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_portfolio ON analyses(portfolio_id, created_at)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// orphan maps a foreign key violation on insert to ErrNotFound for the
// parent portfolio, which was deleted after the existence check.
func orphan(err error, portfolioID string) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return fmt.Errorf("portfolio %s: %w", portfolioID, ErrNotFound)
	}
	return err
}

// notFound maps a zero-row result to ErrNotFound.
func notFound(res sql.Result, err error, what, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) CreatePortfolio(ctx context.Context, p *model.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	_, err := s.db.ExecContext(ctx, `INSERT INTO portfolios
		(id, name, description, created_at, updated_at) VALUES (?,?,?,?,?)`,
		p.ID, p.Name, p.Description, p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli(),
	)
	return err
}

func (s *SQLiteStore) ListPortfolios(ctx context.Context) ([]model.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, created_at, updated_at
		FROM portfolios ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetPortfolio(ctx context.Context, id string) (model.Portfolio, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, description, created_at, updated_at
		FROM portfolios WHERE id = ?`, id)
	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, fmt.Errorf("portfolio %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *SQLiteStore) UpdatePortfolio(ctx context.Context, p *model.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx, `UPDATE portfolios SET name = ?, description = ?, updated_at = ?
		WHERE id = ?`, p.Name, p.Description, p.UpdatedAt.UnixMilli(), p.ID)
	return notFound(res, err, "portfolio", p.ID)
}

// DeletePortfolio removes the portfolio together with its holdings and analyses.
func (s *SQLiteStore) DeletePortfolio(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range []string{
		`DELETE FROM holdings WHERE portfolio_id = ?`,
		`DELETE FROM analyses WHERE portfolio_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, st, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id)
	if err := notFound(res, err, "portfolio", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) CreateHolding(ctx context.Context, h *model.Holding) error {
	if _, err := s.GetPortfolio(ctx, h.PortfolioID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = uuid.NewString()
	h.CreatedAt = now()
	h.UpdatedAt = h.CreatedAt
	_, err := s.db.ExecContext(ctx, `INSERT INTO holdings
		(id, portfolio_id, symbol, quantity, buy_price, ai_suggestions, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		h.ID, h.PortfolioID, h.Symbol, h.Quantity, h.BuyPrice, h.AISuggestions,
		h.CreatedAt.UnixMilli(), h.UpdatedAt.UnixMilli(),
	)
	return orphan(err, h.PortfolioID)
}

func (s *SQLiteStore) ListHoldings(ctx context.Context, portfolioID string) ([]model.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, portfolio_id, symbol, quantity, buy_price,
		ai_suggestions, created_at, updated_at
		FROM holdings WHERE portfolio_id = ? ORDER BY created_at, rowid`, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetHolding(ctx context.Context, id string) (model.Holding, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, portfolio_id, symbol, quantity, buy_price,
		ai_suggestions, created_at, updated_at FROM holdings WHERE id = ?`, id)
	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, fmt.Errorf("holding %s: %w", id, ErrNotFound)
	}
	return h, err
}

func (s *SQLiteStore) UpdateHolding(ctx context.Context, h *model.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx, `UPDATE holdings SET symbol = ?, quantity = ?, buy_price = ?, updated_at = ?
		WHERE id = ?`, h.Symbol, h.Quantity, h.BuyPrice, h.UpdatedAt.UnixMilli(), h.ID)
	return notFound(res, err, "holding", h.ID)
}

func (s *SQLiteStore) DeleteHolding(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = ?`, id)
	return notFound(res, err, "holding", id)
}

func (s *SQLiteStore) SaveSuggestion(ctx context.Context, holdingID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE holdings SET ai_suggestions = ?, updated_at = ? WHERE id = ?`,
		text, now().UnixMilli(), holdingID)
	return notFound(res, err, "holding", holdingID)
}

func (s *SQLiteStore) CreateAnalysis(ctx context.Context, a *model.AnalysisRecord) error {
	if _, err := s.GetPortfolio(ctx, a.PortfolioID); err != nil {
		return err
	}
	advice := a.Advice
	if advice == nil {
		advice = []model.AdviceRecord{}
	}
	blob, err := json.Marshal(advice)
	if err != nil {
		return fmt.Errorf("marshal advice: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = uuid.NewString()
	a.CreatedAt = now()
	_, err = s.db.ExecContext(ctx, `INSERT INTO analyses (id, portfolio_id, advice, summary, created_at)
		VALUES (?,?,?,?,?)`, a.ID, a.PortfolioID, string(blob), a.Summary, a.CreatedAt.UnixMilli())
	return orphan(err, a.PortfolioID)
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, portfolioID string, limit int) ([]model.AnalysisRecord, error) {
	q := `SELECT id, portfolio_id, advice, summary, created_at FROM analyses
		WHERE portfolio_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{portfolioID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AnalysisRecord{}
	for rows.Next() {
		var (
			a       model.AnalysisRecord
			blob    string
			created int64
		)
		if err := rows.Scan(&a.ID, &a.PortfolioID, &blob, &a.Summary, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(blob), &a.Advice); err != nil {
			return nil, fmt.Errorf("decode analysis %s: %w", a.ID, err)
		}
		a.CreatedAt = fromMillis(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("closing sqlite store")
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(r scanner) (model.Portfolio, error) {
	var (
		p                model.Portfolio
		created, updated int64
	)
	if err := r.Scan(&p.ID, &p.Name, &p.Description, &created, &updated); err != nil {
		return model.Portfolio{}, err
	}
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return p, nil
}

func scanHolding(r scanner) (model.Holding, error) {
	var (
		h                model.Holding
		created, updated int64
	)
	if err := r.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &h.Quantity, &h.BuyPrice,
		&h.AISuggestions, &created, &updated); err != nil {
		return model.Holding{}, err
	}
	h.CreatedAt, h.UpdatedAt = fromMillis(created), fromMillis(updated)
	return h, nil
}
