// Command quantbt-sweep runs a grid of backtests over risk-parameter
// combinations in parallel and prints the outcomes ranked by Sharpe ratio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"quantbt/internal/backtest"
	"quantbt/internal/config"
	"quantbt/internal/domain"
	"quantbt/internal/signal"
	"quantbt/internal/store"
	"quantbt/internal/util"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		startStr    = flag.String("start", "", "backtest start date (YYYY-MM-DD)")
		endStr      = flag.String("end", "", "backtest end date (YYYY-MM-DD)")
		stopLosses  = flag.String("stop-loss", "3,5,8", "stop-loss percentages to sweep")
		takeProfits = flag.String("take-profit", "10,15,20", "take-profit percentages to sweep")
		sizes       = flag.String("size", "5,10", "position-size percentages to sweep")
		workers     = flag.Int("workers", runtime.NumCPU(), "concurrent backtest runs")
	)
	flag.Parse()

	if err := run(*configPath, *startStr, *endStr, *stopLosses, *takeProfits, *sizes, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "quantbt-sweep: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, startStr, endStr, stopLosses, takeProfits, sizes string, workers int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	start, end, err := parseWindow(startStr, endStr)
	if err != nil {
		return err
	}

	grid, err := buildGrid(cfg.Backtest, stopLosses, takeProfits, sizes)
	if err != nil {
		return err
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	symbols, err := bars.ListSymbols(ctx)
	if err != nil {
		return fmt.Errorf("listing symbols: %w", err)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no stored symbols; run quantbt-gather first")
	}

	wideStart := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	wideEnd := domain.Day(time.Now())
	data := make(map[string]domain.Series, len(symbols))
	for _, sym := range symbols {
		b, err := bars.ReadBars(ctx, sym, wideStart, wideEnd)
		if err != nil {
			return fmt.Errorf("reading bars for %s: %w", sym, err)
		}
		if len(b) > 0 {
			data[sym] = domain.NewSeries(b)
		}
	}

	oracleFactory := func() signal.Oracle {
		oracle, err := signal.NewScorerFromConfig(cfg.Strategies)
		if err != nil {
			// Already validated below before the sweep starts.
			panic(err)
		}
		return oracle
	}
	if _, err := signal.NewScorerFromConfig(cfg.Strategies); err != nil {
		return fmt.Errorf("building oracle: %w", err)
	}

	outcomes := backtest.RunSweep(ctx, grid, data, oracleFactory, workers, start, end)

	sort.SliceStable(outcomes, func(i, j int) bool {
		si, sj := -1e18, -1e18
		if outcomes[i].Results != nil {
			si = outcomes[i].Results.SharpeRatio
		}
		if outcomes[j].Results != nil {
			sj = outcomes[j].Results.SharpeRatio
		}
		return si > sj
	})

	fmt.Printf("%-8s %-8s %-8s %10s %10s %8s %8s\n",
		"stop", "take", "size", "return%", "sharpe", "trades", "win%")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%-8.1f %-8.1f %-8.1f failed: %v\n",
				o.Config.StopLossPercent, o.Config.TakeProfitPercent, o.Config.PositionSizePercent, o.Err)
			continue
		}
		fmt.Printf("%-8.1f %-8.1f %-8.1f %10.2f %10.2f %8d %8.1f\n",
			o.Config.StopLossPercent,
			o.Config.TakeProfitPercent,
			o.Config.PositionSizePercent,
			o.Results.TotalReturnPercent,
			o.Results.SharpeRatio,
			o.Results.TotalTrades,
			o.Results.WinRate,
		)
	}
	return nil
}

// buildGrid expands the comma-separated parameter lists into one Config per
// combination, based on the configured defaults.
func buildGrid(base backtest.Config, stopLosses, takeProfits, sizes string) ([]backtest.Config, error) {
	stops, err := parseFloats(stopLosses)
	if err != nil {
		return nil, fmt.Errorf("parsing -stop-loss: %w", err)
	}
	takes, err := parseFloats(takeProfits)
	if err != nil {
		return nil, fmt.Errorf("parsing -take-profit: %w", err)
	}
	szs, err := parseFloats(sizes)
	if err != nil {
		return nil, fmt.Errorf("parsing -size: %w", err)
	}

	var grid []backtest.Config
	for _, sl := range stops {
		for _, tp := range takes {
			for _, sz := range szs {
				cfg := base
				cfg.StopLossPercent = sl
				cfg.TakeProfitPercent = tp
				cfg.PositionSizePercent = sz
				grid = append(grid, cfg)
			}
		}
	}
	return grid, nil
}

func parseFloats(csv string) ([]float64, error) {
	var out []float64
	for _, s := range strings.Split(csv, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
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
