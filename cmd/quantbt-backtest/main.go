// Command quantbt-backtest runs one backtest over locally stored daily
// bars and exports the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"quantbt/internal/backtest"
	"quantbt/internal/config"
	"quantbt/internal/domain"
	"quantbt/internal/report"
	"quantbt/internal/signal"
	"quantbt/internal/store"
	"quantbt/internal/util"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		startStr   = flag.String("start", "", "backtest start date (YYYY-MM-DD)")
		endStr     = flag.String("end", "", "backtest end date (YYYY-MM-DD)")
		symbolsCSV = flag.String("symbols", "", "comma-separated symbols (default: all stored)")
		label      = flag.String("label", "backtest", "label recorded with the run")
		noDB       = flag.Bool("no-db", false, "skip recording the run in SQLite")
	)
	flag.Parse()

	if err := run(*configPath, *startStr, *endStr, *symbolsCSV, *label, *noDB); err != nil {
		fmt.Fprintf(os.Stderr, "quantbt-backtest: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, startStr, endStr, symbolsCSV, label string, noDB bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	start, end, err := parseWindow(startStr, endStr)
	if err != nil {
		return err
	}

	// Cancelling with SIGINT/SIGTERM stops the simulation between daily
	// iterations and still produces a valid partial results object.
	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	data, err := loadSeries(ctx, bars, symbolsCSV)
	if err != nil {
		return err
	}

	oracle, err := signal.NewScorerFromConfig(cfg.Strategies)
	if err != nil {
		return fmt.Errorf("building oracle: %w", err)
	}

	engine, err := backtest.NewEngine(cfg.Backtest)
	if err != nil {
		return err
	}
	results, err := engine.Run(ctx, data, oracle, start, end)
	if err != nil {
		return err
	}

	sink := report.NewFileSink(cfg.Storage.OutputDir)
	path, err := sink.Write(ctx, results)
	if err != nil {
		return err
	}

	if !noDB {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("opening run db: %w", err)
		}
		defer db.Close()

		runID, err := db.SaveRun(ctx, label, results)
		if err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		slog.Info("run recorded", "id", runID)
	}

	printSummary(results, path)
	return nil
}

// loadSeries reads every requested symbol's bars from the store into a
// date-indexed series. Symbols without any stored bars are skipped.
func loadSeries(ctx context.Context, bars store.BarStore, symbolsCSV string) (map[string]domain.Series, error) {
	var symbols []string
	if symbolsCSV != "" {
		for _, s := range strings.Split(symbolsCSV, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
	} else {
		var err error
		symbols, err = bars.ListSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing symbols: %w", err)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to backtest")
	}

	wideStart := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	wideEnd := domain.Day(time.Now())

	data := make(map[string]domain.Series, len(symbols))
	for _, sym := range symbols {
		b, err := bars.ReadBars(ctx, sym, wideStart, wideEnd)
		if err != nil {
			return nil, fmt.Errorf("reading bars for %s: %w", sym, err)
		}
		if len(b) == 0 {
			slog.Warn("no stored bars, skipping", "symbol", sym)
			continue
		}
		data[sym] = domain.NewSeries(b)
	}
	return data, nil
}

func parseWindow(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		if start, err = time.Parse("2006-01-02", startStr); err != nil {
			return start, end, fmt.Errorf("parsing -start: %w", err)
		}
	}
	if endStr != "" {
		if end, err = time.Parse("2006-01-02", endStr); err != nil {
			return start, end, fmt.Errorf("parsing -end: %w", err)
		}
	}
	return start, end, nil
}

func printSummary(r *backtest.Results, path string) {
	fmt.Printf("Backtest %s .. %s\n", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	fmt.Printf("  Capital:        %.2f -> %.2f (%+.2f%%)\n", r.InitialCapital, r.FinalCapital, r.TotalReturnPercent)
	fmt.Printf("  Annualized:     %+.2f%%\n", r.AnnualizedReturn)
	fmt.Printf("  Max drawdown:   %.2f%%\n", r.MaxDrawdown)
	fmt.Printf("  Sharpe:         %.2f\n", r.SharpeRatio)
	fmt.Printf("  Sortino:        %s\n", formatRatio(r.SortinoRatio))
	fmt.Printf("  Trades:         %d (%d W / %d L, %.1f%% win rate)\n", r.TotalTrades, r.WinningTrades, r.LosingTrades, r.WinRate)
	fmt.Printf("  Profit factor:  %s\n", formatRatio(r.ProfitFactor))
	fmt.Printf("  Results:        %s\n", path)
}

func formatRatio(r backtest.Ratio) string {
	if r.IsInf() {
		return "inf"
	}
	return fmt.Sprintf("%.2f", float64(r))
}
