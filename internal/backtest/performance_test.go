package backtest

import (
	"math"
	"testing"
	"time"
)

func TestSharpeRatio(t *testing.T) {
	if got := sharpeRatio(nil, 0.06); got != 0 {
		t.Errorf("empty returns: sharpe = %v, want 0", got)
	}
	if got := sharpeRatio([]float64{0.01, 0.01, 0.01}, 0.06); got != 0 {
		t.Errorf("zero variance: sharpe = %v, want 0", got)
	}

	returns := []float64{0.01, 0.02, 0.03}
	want := (0.02 - 0) / 0.01 * math.Sqrt(tradingDaysPerYear)
	if got := sharpeRatio(returns, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("sharpe = %v, want %v", got, want)
	}

	// A risk-free rate shifts the numerator down.
	withRF := sharpeRatio(returns, 0.06)
	if withRF >= want {
		t.Errorf("sharpe with risk-free rate = %v, want < %v", withRF, want)
	}
}

func TestSortinoRatio(t *testing.T) {
	if got := sortinoRatio(nil, 0.06); got != 0 {
		t.Errorf("empty returns: sortino = %v, want 0", got)
	}

	// All excess returns positive: no downside observations, unbounded.
	up := sortinoRatio([]float64{0.01, 0.02, 0.03}, 0)
	if !up.IsInf() || up < 0 {
		t.Errorf("no-downside sortino = %v, want +Inf", up)
	}

	// No downside but non-positive mean excess: 0, not -Inf.
	if got := sortinoRatio([]float64{0, 0, 0}, 0); got != 0 {
		t.Errorf("flat returns: sortino = %v, want 0", got)
	}

	// Mixed returns with a negative mean produce a finite negative ratio.
	down := sortinoRatio([]float64{-0.01, -0.03, 0.02}, 0)
	if down.IsInf() || down >= 0 {
		t.Errorf("losing sortino = %v, want finite negative", down)
	}

	// A single downside sample has no defined deviation: the ratio must
	// not report +Inf just because the sample deviation degenerates to 0.
	if got := sortinoRatio([]float64{0.05, 0.05, -0.01}, 0); got != 0 {
		t.Errorf("single-downside sortino = %v, want 0", got)
	}
	// Same for several identical downside samples.
	if got := sortinoRatio([]float64{0.05, -0.01, -0.01}, 0); got != 0 {
		t.Errorf("identical-downside sortino = %v, want 0", got)
	}
}

func TestProfitFactor(t *testing.T) {
	winners := []Trade{{PnL: 10}, {PnL: 20}}
	losers := []Trade{{PnL: -15}}

	if got := profitFactor(winners, losers); math.Abs(float64(got)-2.0) > 1e-9 {
		t.Errorf("profit factor = %v, want 2.0", got)
	}
	if got := profitFactor(winners, nil); !got.IsInf() {
		t.Errorf("no losers: profit factor = %v, want +Inf", got)
	}
	if got := profitFactor(nil, nil); got != 0 {
		t.Errorf("no trades: profit factor = %v, want 0", got)
	}
	if got := profitFactor(nil, losers); got != 0 {
		t.Errorf("only losers: profit factor = %v, want 0", got)
	}
}

func TestDailyReturns(t *testing.T) {
	dates := []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3)}
	equity := []float64{100, 110, 99}

	returns := dailyReturns(dates, equity)
	if len(returns) != 2 {
		t.Fatalf("len(returns) = %d, want 2", len(returns))
	}
	if !returns[0].Date.Equal(dates[1]) {
		t.Errorf("first return keyed by %v, want the later sample's date", returns[0].Date)
	}
	if math.Abs(returns[0].Value-0.1) > 1e-9 {
		t.Errorf("returns[0] = %v, want 0.1", returns[0].Value)
	}
	if math.Abs(returns[1].Value+0.1) > 1e-9 {
		t.Errorf("returns[1] = %v, want -0.1", returns[1].Value)
	}

	if got := dailyReturns(dates[:1], equity[:1]); got != nil {
		t.Errorf("single sample: returns = %v, want nil", got)
	}
}

func TestStddev(t *testing.T) {
	if got := stddev(nil); got != 0 {
		t.Errorf("stddev(nil) = %v, want 0", got)
	}
	if got := stddev([]float64{5}); got != 0 {
		t.Errorf("stddev of one value = %v, want 0", got)
	}
	// Sample (n-1) standard deviation of {2, 4, 4, 4, 5, 5, 7, 9}.
	got := stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("stddev = %v, want %v", got, want)
	}
}

func TestBuildResultsAnnualized(t *testing.T) {
	cfg := DefaultConfig()
	start := day(2024, 1, 1)
	// Exactly one mean Gregorian year, so doubling annualizes to 100%.
	end := start.Add(time.Duration(365.25 * 24 * float64(time.Hour)))

	dates := []time.Time{start, end}
	equity := []float64{cfg.InitialCapital, 2 * cfg.InitialCapital}

	r := buildResults(cfg, start, end, nil, dates, equity, 0)

	if r.FinalCapital != 2*cfg.InitialCapital {
		t.Errorf("FinalCapital = %v, want doubled", r.FinalCapital)
	}
	if math.Abs(r.TotalReturnPercent-100) > 1e-9 {
		t.Errorf("TotalReturnPercent = %v, want 100", r.TotalReturnPercent)
	}
	if math.Abs(r.AnnualizedReturn-100) > 1e-6 {
		t.Errorf("AnnualizedReturn = %v, want 100", r.AnnualizedReturn)
	}
}

func TestBuildResultsEmptyEquity(t *testing.T) {
	cfg := DefaultConfig()
	r := buildResults(cfg, day(2024, 1, 1), day(2024, 1, 1), nil, nil, nil, 0)

	if r.FinalCapital != cfg.InitialCapital {
		t.Errorf("FinalCapital = %v, want initial capital", r.FinalCapital)
	}
	if r.TotalReturn != 0 || r.TotalReturnPercent != 0 || r.AnnualizedReturn != 0 {
		t.Errorf("returns = %v/%v/%v, want all zero",
			r.TotalReturn, r.TotalReturnPercent, r.AnnualizedReturn)
	}
	if r.TotalTrades != 0 || r.WinRate != 0 {
		t.Errorf("trade stats = %d/%v, want zero", r.TotalTrades, r.WinRate)
	}
}

func TestBuildResultsTradeStats(t *testing.T) {
	cfg := DefaultConfig()
	trades := []Trade{
		{PnL: 100, HoldingDays: 10},
		{PnL: 50, HoldingDays: 20},
		{PnL: -30, HoldingDays: 6},
		{PnL: 0, HoldingDays: 4}, // break-even counts as a loss
	}
	dates := []time.Time{day(2024, 1, 1), day(2024, 3, 1)}
	equity := []float64{cfg.InitialCapital, cfg.InitialCapital + 120}

	r := buildResults(cfg, dates[0], dates[1], trades, dates, equity, 1.5)

	if r.TotalTrades != 4 || r.WinningTrades != 2 || r.LosingTrades != 2 {
		t.Errorf("counts = %d/%d/%d, want 4/2/2", r.TotalTrades, r.WinningTrades, r.LosingTrades)
	}
	if r.WinRate != 50 {
		t.Errorf("WinRate = %v, want 50", r.WinRate)
	}
	if r.AvgWin != 75 {
		t.Errorf("AvgWin = %v, want 75", r.AvgWin)
	}
	if r.AvgLoss != -15 {
		t.Errorf("AvgLoss = %v, want -15", r.AvgLoss)
	}
	if r.AvgHoldingDays != 10 {
		t.Errorf("AvgHoldingDays = %v, want 10", r.AvgHoldingDays)
	}
	if want := Ratio(150.0 / 30.0); math.Abs(float64(r.ProfitFactor-want)) > 1e-9 {
		t.Errorf("ProfitFactor = %v, want %v", r.ProfitFactor, want)
	}
	if r.MaxDrawdown != 1.5 {
		t.Errorf("MaxDrawdown = %v, want pass-through 1.5", r.MaxDrawdown)
	}
}
