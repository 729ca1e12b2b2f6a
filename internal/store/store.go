// Package store persists quantbt's durable data: historical daily bars in
// Parquet files and completed backtest runs in SQLite.
package store

import (
	"context"
	"time"

	"quantbt/internal/backtest"
	"quantbt/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with existing data.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end].
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// RunStore records completed backtest runs and their trade lists.
type RunStore interface {
	// SaveRun inserts a run summary plus its trades and returns the run id.
	SaveRun(ctx context.Context, label string, results *backtest.Results) (int64, error)

	// ListRuns returns summaries of all recorded runs, newest first.
	ListRuns(ctx context.Context) ([]RunSummary, error)

	// GetRunTrades returns the trades of one recorded run in close order.
	GetRunTrades(ctx context.Context, runID int64) ([]backtest.Trade, error)
}

// RunSummary is the headline row of one recorded backtest run.
type RunSummary struct {
	ID                 int64
	Label              string
	CreatedAt          time.Time
	StartDate          time.Time
	EndDate            time.Time
	InitialCapital     float64
	FinalCapital       float64
	TotalReturnPercent float64
	AnnualizedReturn   float64
	MaxDrawdown        float64
	SharpeRatio        float64
	SortinoRatio       backtest.Ratio
	WinRate            float64
	ProfitFactor       backtest.Ratio
	TotalTrades        int
	WinningTrades      int
	LosingTrades       int
}
