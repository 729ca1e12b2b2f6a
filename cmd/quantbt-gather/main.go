// Command quantbt-gather fetches historical daily bars from the Alpaca
// market-data API into the local Parquet store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"quantbt/internal/config"
	"quantbt/internal/gather"
	"quantbt/internal/store"
	"quantbt/internal/util"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		symbolsCSV = flag.String("symbols", "", "comma-separated symbols (overrides config)")
	)
	flag.Parse()

	if err := run(*configPath, *symbolsCSV); err != nil {
		fmt.Fprintf(os.Stderr, "quantbt-gather: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, symbolsCSV string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		return fmt.Errorf("alpaca credentials not configured (set APCA_API_KEY_ID / APCA_API_SECRET_KEY)")
	}

	symbols := cfg.Gather.Symbols
	if symbolsCSV != "" {
		symbols = nil
		for _, s := range strings.Split(symbolsCSV, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	g := gather.NewDailyBarGatherer(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		bars,
		symbols,
		cfg.Gather.BatchSize,
		cfg.Gather.RateLimitPerMin,
		cfg.Gather.StartDate,
	)
	return g.Run(ctx)
}
