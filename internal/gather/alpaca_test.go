package gather

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"quantbt/internal/domain"
	"quantbt/internal/util"
)

type fakeFetcher struct {
	calls   [][]string
	bars    map[string][]marketdata.Bar
	failSym string // every call containing this symbol fails
}

func (f *fakeFetcher) GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error) {
	f.calls = append(f.calls, symbols)
	for _, s := range symbols {
		if s == f.failSym {
			return nil, errors.New("upstream unavailable")
		}
	}
	out := make(map[string][]marketdata.Bar, len(symbols))
	for _, s := range symbols {
		if bars, ok := f.bars[s]; ok {
			out[s] = bars
		}
	}
	return out, nil
}

type memBarStore struct {
	bars []domain.Bar
}

func (m *memBarStore) WriteBars(_ context.Context, bars []domain.Bar) error {
	m.bars = append(m.bars, bars...)
	return nil
}

func (m *memBarStore) ReadBars(context.Context, string, time.Time, time.Time) ([]domain.Bar, error) {
	return nil, nil
}

func (m *memBarStore) ListSymbols(context.Context) ([]string, error) {
	return nil, nil
}

func newTestGatherer(fetcher *fakeFetcher, st *memBarStore, symbols []string, batchSize int) *DailyBarGatherer {
	return &DailyBarGatherer{
		client:    fetcher,
		store:     st,
		symbols:   symbols,
		batchSize: batchSize,
		limiter:   util.NewRateLimiter(6000),
		startDate: "2024-01-01",
		log:       slog.Default(),
	}
}

func TestGathererBatchesAndWrites(t *testing.T) {
	ts := time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		bars: map[string][]marketdata.Bar{
			"AAPL": {{Timestamp: ts, Open: 184, High: 187, Low: 183, Close: 186, Volume: 900, TradeCount: 12, VWAP: 185.2}},
			"MSFT": {{Timestamp: ts, Open: 400, High: 405, Low: 399, Close: 404, Volume: 700, TradeCount: 9, VWAP: 402.1}},
			"NVDA": {{Timestamp: ts, Open: 880, High: 905, Low: 878, Close: 900, Volume: 1200, TradeCount: 30, VWAP: 894.7}},
		},
	}
	st := &memBarStore{}
	g := newTestGatherer(fetcher, st, []string{"AAPL", "MSFT", "NVDA"}, 2)

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(fetcher.calls) != 2 {
		t.Fatalf("API calls = %d, want 2 batches of size 2", len(fetcher.calls))
	}
	if len(fetcher.calls[0]) != 2 || len(fetcher.calls[1]) != 1 {
		t.Errorf("batch sizes = %d/%d, want 2/1", len(fetcher.calls[0]), len(fetcher.calls[1]))
	}
	if len(st.bars) != 3 {
		t.Fatalf("stored bars = %d, want 3", len(st.bars))
	}
	for _, b := range st.bars {
		// Timestamps are normalized to midnight UTC dates.
		if !b.Date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("bar date = %v, want midnight UTC", b.Date)
		}
	}
}

func TestGathererSkipsFailedBatch(t *testing.T) {
	ts := time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		failSym: "BAD",
		bars: map[string][]marketdata.Bar{
			"AAPL": {{Timestamp: ts, Close: 186}},
		},
	}
	st := &memBarStore{}
	g := newTestGatherer(fetcher, st, []string{"BAD", "AAPL"}, 1)

	// A persistently failing batch is retried, logged, and skipped; the
	// remaining batches still run.
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.bars) != 1 || st.bars[0].Symbol != "AAPL" {
		t.Errorf("stored bars = %+v, want only AAPL", st.bars)
	}
}

func TestGathererValidation(t *testing.T) {
	st := &memBarStore{}

	g := newTestGatherer(&fakeFetcher{}, st, nil, 10)
	if err := g.Run(context.Background()); err == nil {
		t.Error("Run with no symbols succeeded, want error")
	}

	g = newTestGatherer(&fakeFetcher{}, st, []string{"AAPL"}, 10)
	g.startDate = "not-a-date"
	if err := g.Run(context.Background()); err == nil {
		t.Error("Run with a bad start date succeeded, want error")
	}
}

func TestGathererCancelledContext(t *testing.T) {
	st := &memBarStore{}
	g := newTestGatherer(&fakeFetcher{}, st, []string{"AAPL"}, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}
