// Package gather fetches historical daily bars from the Alpaca market-data
// API into the local bar store.
package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"quantbt/internal/domain"
	"quantbt/internal/store"
	"quantbt/internal/util"
)

// barFetcher is the slice of the Alpaca client the gatherer uses; it lets
// tests substitute a canned response.
type barFetcher interface {
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
}

// DailyBarGatherer fetches daily OHLCV bars for a fixed symbol list via the
// Alpaca market-data API and writes them to the bar store.
type DailyBarGatherer struct {
	client    barFetcher
	store     store.BarStore
	symbols   []string
	batchSize int
	limiter   *util.RateLimiter
	startDate string
	log       *slog.Logger
}

// NewDailyBarGatherer creates a gatherer for the given symbols, configured
// with Alpaca credentials and batching/rate-limit parameters.
func NewDailyBarGatherer(apiKey, apiSecret, dataURL string, s store.BarStore, symbols []string, batchSize, rateLimitPerMin int, startDate string) *DailyBarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &DailyBarGatherer{
		client:    marketdata.NewClient(opts),
		store:     s,
		symbols:   symbols,
		batchSize: batchSize,
		limiter:   util.NewRateLimiter(rateLimitPerMin),
		startDate: startDate,
		log:       slog.Default().With("component", "gather"),
	}
}

// Run fetches bars for every configured symbol in batches and persists
// them. Each batch is rate limited and retried with backoff; a batch that
// still fails is logged and skipped.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	if len(g.symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}
	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.startDate, err)
	}
	end := domain.Day(time.Now())

	batchSize := g.batchSize
	if batchSize <= 0 {
		batchSize = len(g.symbols)
	}

	runStart := time.Now()
	var fetched int
	for i := 0; i < len(g.symbols); i += batchSize {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j := min(i+batchSize, len(g.symbols))
		batch := g.symbols[i:j]

		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		var bars []domain.Bar
		err := util.Retry(ctx, 3, time.Second, func() error {
			var ferr error
			bars, ferr = g.fetchBatch(batch, start, end)
			return ferr
		})
		if err != nil {
			g.log.Error("batch fetch failed", "symbols", batch, "err", err)
			continue
		}

		if err := g.store.WriteBars(ctx, bars); err != nil {
			return fmt.Errorf("writing bars: %w", err)
		}
		fetched += len(bars)

		g.log.Info("batch done",
			"symbols", len(batch),
			"bars", len(bars),
			"elapsed", time.Since(runStart).Round(time.Second),
		)
	}

	g.log.Info("gather complete", "bars", fetched)
	return nil
}

// fetchBatch fetches daily bars for one batch of symbols in a single API
// call.
func (g *DailyBarGatherer) fetchBatch(symbols []string, start, end time.Time) ([]domain.Bar, error) {
	multiBars, err := g.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Date:       domain.Day(ab.Timestamp),
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}
