package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"quantbt/internal/backtest"
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	label                TEXT NOT NULL,
	created_at           TEXT NOT NULL,
	start_date           TEXT NOT NULL,
	end_date             TEXT NOT NULL,
	initial_capital      REAL NOT NULL,
	final_capital        REAL NOT NULL,
	total_return_percent REAL NOT NULL,
	annualized_return    REAL NOT NULL,
	max_drawdown         REAL NOT NULL,
	sharpe_ratio         REAL NOT NULL,
	sortino_ratio        TEXT NOT NULL,
	win_rate             REAL NOT NULL,
	profit_factor        TEXT NOT NULL,
	total_trades         INTEGER NOT NULL,
	winning_trades       INTEGER NOT NULL,
	losing_trades        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_trades (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        INTEGER NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
	symbol        TEXT NOT NULL,
	entry_date    TEXT NOT NULL,
	exit_date     TEXT NOT NULL,
	entry_price   REAL NOT NULL,
	exit_price    REAL NOT NULL,
	position_type TEXT NOT NULL,
	quantity      INTEGER NOT NULL,
	entry_signal  TEXT NOT NULL,
	exit_reason   TEXT NOT NULL,
	pnl           REAL NOT NULL,
	pnl_percent   REAL NOT NULL,
	holding_days  INTEGER NOT NULL,
	strategy_name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backtest_trades_run ON backtest_trades(run_id);
`

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run summary and its trades in one transaction and
// returns the new run id.
func (s *SQLiteStore) SaveRun(ctx context.Context, label string, results *backtest.Results) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO backtest_runs (
			label, created_at, start_date, end_date,
			initial_capital, final_capital, total_return_percent,
			annualized_return, max_drawdown, sharpe_ratio, sortino_ratio,
			win_rate, profit_factor, total_trades, winning_trades, losing_trades
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		label,
		time.Now().UTC().Format(time.RFC3339),
		results.StartDate.Format(time.RFC3339),
		results.EndDate.Format(time.RFC3339),
		results.InitialCapital,
		results.FinalCapital,
		results.TotalReturnPercent,
		results.AnnualizedReturn,
		results.MaxDrawdown,
		results.SharpeRatio,
		encodeRatio(results.SortinoRatio),
		results.WinRate,
		encodeRatio(results.ProfitFactor),
		results.TotalTrades,
		results.WinningTrades,
		results.LosingTrades,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO backtest_trades (
			run_id, symbol, entry_date, exit_date, entry_price, exit_price,
			position_type, quantity, entry_signal, exit_reason,
			pnl, pnl_percent, holding_days, strategy_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, t := range results.Trades {
		if _, err := stmt.ExecContext(ctx,
			runID,
			t.Symbol,
			t.EntryDate.Format(time.RFC3339),
			t.ExitDate.Format(time.RFC3339),
			t.EntryPrice,
			t.ExitPrice,
			string(t.Type),
			t.Quantity,
			t.EntrySignal,
			t.ExitReason,
			t.PnL,
			t.PnLPercent,
			t.HoldingDays,
			t.Strategy,
		); err != nil {
			return 0, fmt.Errorf("inserting trade for %s: %w", t.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns summaries of all recorded runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, created_at, start_date, end_date,
		       initial_capital, final_capital, total_return_percent,
		       annualized_return, max_drawdown, sharpe_ratio, sortino_ratio,
		       win_rate, profit_factor, total_trades, winning_trades, losing_trades
		FROM backtest_runs
		ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var createdAt, startDate, endDate, sortino, profitFactor string
		if err := rows.Scan(
			&r.ID, &r.Label, &createdAt, &startDate, &endDate,
			&r.InitialCapital, &r.FinalCapital, &r.TotalReturnPercent,
			&r.AnnualizedReturn, &r.MaxDrawdown, &r.SharpeRatio, &sortino,
			&r.WinRate, &profitFactor, &r.TotalTrades, &r.WinningTrades, &r.LosingTrades,
		); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(createdAt)
		r.StartDate = parseTime(startDate)
		r.EndDate = parseTime(endDate)
		r.SortinoRatio = decodeRatio(sortino)
		r.ProfitFactor = decodeRatio(profitFactor)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunTrades returns the trades of one recorded run in close order.
func (s *SQLiteStore) GetRunTrades(ctx context.Context, runID int64) ([]backtest.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, entry_date, exit_date, entry_price, exit_price,
		       position_type, quantity, entry_signal, exit_reason,
		       pnl, pnl_percent, holding_days, strategy_name
		FROM backtest_trades
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		var entryDate, exitDate, positionType string
		if err := rows.Scan(
			&t.Symbol, &entryDate, &exitDate, &t.EntryPrice, &t.ExitPrice,
			&positionType, &t.Quantity, &t.EntrySignal, &t.ExitReason,
			&t.PnL, &t.PnLPercent, &t.HoldingDays, &t.Strategy,
		); err != nil {
			return nil, err
		}
		t.EntryDate = parseTime(entryDate)
		t.ExitDate = parseTime(exitDate)
		t.Type = backtest.PositionType(positionType)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// encodeRatio stores a possibly-unbounded ratio as text; SQLite REAL cannot
// round-trip an infinity.
func encodeRatio(r backtest.Ratio) string {
	switch {
	case math.IsInf(float64(r), 1):
		return "inf"
	case math.IsInf(float64(r), -1):
		return "-inf"
	default:
		return strconv.FormatFloat(float64(r), 'g', -1, 64)
	}
}

func decodeRatio(s string) backtest.Ratio {
	switch s {
	case "inf":
		return backtest.Ratio(math.Inf(1))
	case "-inf":
		return backtest.Ratio(math.Inf(-1))
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return backtest.Ratio(v)
	}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
