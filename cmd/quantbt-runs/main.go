// Command quantbt-runs inspects the SQLite run history: it lists recorded
// backtest runs newest first, or prints the trades of one run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"quantbt/internal/backtest"
	"quantbt/internal/config"
	"quantbt/internal/store"
	"quantbt/internal/util"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		tradesRun  = flag.Int64("trades", 0, "print the trades of this run id instead of the run list")
	)
	flag.Parse()

	if err := run(*configPath, *tradesRun); err != nil {
		fmt.Fprintf(os.Stderr, "quantbt-runs: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, tradesRun int64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening run db: %w", err)
	}
	defer db.Close()

	if tradesRun > 0 {
		return printTrades(ctx, db, tradesRun)
	}
	return printRuns(ctx, db)
}

func printRuns(ctx context.Context, db *store.SQLiteStore) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	fmt.Printf("%-5s %-20s %-23s %9s %7s %7s %7s %6s %6s\n",
		"ID", "LABEL", "WINDOW", "RETURN%", "SHARPE", "SORT", "PF", "TRADES", "WIN%")
	for _, r := range runs {
		window := r.StartDate.Format("2006-01-02") + ".." + r.EndDate.Format("2006-01-02")
		fmt.Printf("%-5d %-20s %-23s %+9.2f %7.2f %7s %7s %6d %5.1f%%\n",
			r.ID, truncate(r.Label, 20), window,
			r.TotalReturnPercent, r.SharpeRatio,
			formatRatio(r.SortinoRatio), formatRatio(r.ProfitFactor),
			r.TotalTrades, r.WinRate)
	}
	return nil
}

func printTrades(ctx context.Context, db *store.SQLiteStore, runID int64) error {
	trades, err := db.GetRunTrades(ctx, runID)
	if err != nil {
		return fmt.Errorf("reading trades for run %d: %w", runID, err)
	}
	if len(trades) == 0 {
		fmt.Printf("no trades recorded for run %d\n", runID)
		return nil
	}

	fmt.Printf("%-8s %-5s %-10s %-10s %10s %10s %6s %11s %8s %4s %s\n",
		"SYMBOL", "TYPE", "ENTRY", "EXIT", "IN", "OUT", "QTY", "PNL", "PNL%", "DAYS", "REASON")
	for _, t := range trades {
		fmt.Printf("%-8s %-5s %-10s %-10s %10.2f %10.2f %6d %+11.2f %+7.2f%% %4d %s\n",
			t.Symbol, t.Type,
			t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"),
			t.EntryPrice, t.ExitPrice, t.Quantity,
			t.PnL, t.PnLPercent, t.HoldingDays, t.ExitReason)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func formatRatio(r backtest.Ratio) string {
	if r.IsInf() {
		return "inf"
	}
	return fmt.Sprintf("%.2f", float64(r))
}
