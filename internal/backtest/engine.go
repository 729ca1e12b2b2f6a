package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"quantbt/internal/domain"
	"quantbt/internal/signal"
)

// Engine owns all mutable state of one backtest run: remaining cash, the
// open-position set keyed by symbol, the accumulating trade list, and the
// daily equity samples. An Engine must not be shared between concurrently
// executing runs; a parameter sweep uses one Engine per run (see sweep.go).
type Engine struct {
	cfg Config
	log *slog.Logger

	cash        float64
	positions   map[string]*Position
	trades      []Trade
	equityDates []time.Time
	equity      []float64
	peakEquity  float64
	maxDrawdown float64
}

// NewEngine creates an Engine for the given configuration. The
// configuration is validated up front; nothing else can fail before Run.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest config: %w", err)
	}
	e := &Engine{
		cfg: cfg,
		log: slog.Default().With("component", "backtest"),
	}
	e.reset()
	return e, nil
}

// reset clears all run state so the same Engine can be reused sequentially.
func (e *Engine) reset() {
	e.cash = e.cfg.InitialCapital
	e.positions = make(map[string]*Position)
	e.trades = nil
	e.equityDates = nil
	e.equity = nil
	e.peakEquity = e.cfg.InitialCapital
	e.maxDrawdown = 0
}

// Run simulates the portfolio day by day over the intersection of trading
// dates of all series in data, clipped to the optional [start, end] window.
// Exits are evaluated before entries on every date; the first WarmupDays
// dates are skipped entirely so indicator columns can stabilize.
//
// Oracle failures and per-day failures are logged and skipped, never fatal.
// Cancelling ctx stops the loop between daily iterations; remaining
// positions are force-closed and a valid partial result is returned. Only
// an invalid input (empty mapping, fewer than MinAlignedDays aligned days)
// makes Run fail.
func (e *Engine) Run(ctx context.Context, data map[string]domain.Series, oracle signal.Oracle, start, end time.Time) (*Results, error) {
	dates, err := CommonDates(data, start, end)
	if err != nil {
		return nil, err
	}
	e.reset()

	// Fixed iteration order makes runs deterministic and defines the
	// admission tie-break when several symbols qualify on the same date.
	symbols := make([]string, 0, len(data))
	for sym := range data {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	e.log.Info("starting backtest",
		"start", dates[0].Format("2006-01-02"),
		"end", dates[len(dates)-1].Format("2006-01-02"),
		"days", len(dates),
		"symbols", len(symbols),
	)

	endDate := dates[len(dates)-1]
	exitReason := ExitBacktestEnd

loop:
	for i, date := range dates {
		if ctx.Err() != nil {
			endDate = date
			exitReason = ExitInterrupted
			break
		}
		if i < e.cfg.WarmupDays {
			continue
		}

		if err := e.processDay(ctx, date, symbols, data, oracle); err != nil {
			// Per-day failure: skip this date's equity sample and move on.
			e.log.Error("day failed", "date", date.Format("2006-01-02"), "err", err)
			continue
		}

		equity := e.markToMarket(date, data)
		e.equityDates = append(e.equityDates, date)
		e.equity = append(e.equity, equity)

		if equity > e.peakEquity {
			e.peakEquity = equity
		}
		drawdown := (e.peakEquity - equity) / e.peakEquity * 100
		if drawdown > e.maxDrawdown {
			e.maxDrawdown = drawdown
		}
		if drawdown > e.cfg.MaxPortfolioDrawdown {
			e.log.Warn("max drawdown exceeded, stopping",
				"date", date.Format("2006-01-02"), "drawdown", drawdown)
			endDate = date
			exitReason = ExitMaxDrawdown
			break loop
		}
	}

	e.closeAll(endDate, data, exitReason)

	// Re-sample the final date after the forced closes so the last equity
	// point reflects exit costs and equals the remaining cash exactly.
	e.sampleFinalEquity(endDate)

	results := buildResults(e.cfg, dates[0], endDate, e.trades, e.equityDates, e.equity, e.maxDrawdown)

	e.log.Info("backtest complete",
		"return_pct", fmt.Sprintf("%.2f", results.TotalReturnPercent),
		"trades", results.TotalTrades,
		"win_rate", fmt.Sprintf("%.1f", results.WinRate),
		"max_drawdown", fmt.Sprintf("%.2f", results.MaxDrawdown),
	)
	return results, nil
}

// processDay runs one simulated day: exits first, then entries while the
// concurrency cap allows. A panic out of a misbehaving oracle or strategy
// is converted into the day's error.
func (e *Engine) processDay(ctx context.Context, date time.Time, symbols []string, data map[string]domain.Series, oracle signal.Oracle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing day: %v", r)
		}
	}()

	e.checkExits(date, data)
	if len(e.positions) < e.cfg.MaxPositions {
		e.checkEntries(ctx, date, symbols, data, oracle)
	}
	return nil
}

// checkExits closes every open position whose exit condition is met on this
// date. Conditions are checked in priority order: stop-loss, take-profit,
// max holding period. A position with no price observation today is left
// untouched.
func (e *Engine) checkExits(date time.Time, data map[string]domain.Series) {
	type exit struct {
		symbol string
		price  float64
		reason string
	}
	var exits []exit

	for _, sym := range e.openSymbols() {
		pos := e.positions[sym]
		series, ok := data[sym]
		if !ok {
			continue
		}
		bar, ok := series.At(date)
		if !ok {
			continue
		}

		pnlPct := pos.PnLPercent(bar.Close)
		holding := holdingDays(pos.EntryDate, date)

		switch {
		case pnlPct <= -e.cfg.StopLossPercent:
			exits = append(exits, exit{sym, bar.Close, ExitStopLoss})
		case pnlPct >= e.cfg.TakeProfitPercent:
			exits = append(exits, exit{sym, bar.Close, ExitTakeProfit})
		case holding >= e.cfg.MaxHoldingDays:
			exits = append(exits, exit{sym, bar.Close, ExitMaxHolding})
		}
	}

	for _, x := range exits {
		e.closePosition(x.symbol, date, x.price, x.reason)
	}
}

// checkEntries asks the oracle about every symbol without an open position
// and admits the qualifying ones until the concurrency cap is reached.
func (e *Engine) checkEntries(ctx context.Context, date time.Time, symbols []string, data map[string]domain.Series, oracle signal.Oracle) {
	for _, sym := range symbols {
		if _, open := e.positions[sym]; open {
			continue
		}
		series := data[sym]
		if _, ok := series.At(date); !ok {
			continue
		}
		history := series.UpTo(date)
		if history.Len() < e.cfg.WarmupDays {
			continue
		}

		res, err := evaluate(ctx, oracle, history)
		if err != nil {
			// Oracle failure is "no entry signal for this symbol today".
			e.log.Debug("oracle failed", "symbol", sym, "date", date.Format("2006-01-02"), "err", err)
			continue
		}

		if res.Signal != signal.Buy && res.Signal != signal.Sell {
			continue
		}
		if abs(res.Score) < e.cfg.MinCompositeScore || res.Confidence < e.cfg.MinSignalConfidence {
			continue
		}

		last, _ := history.Last()
		e.openPosition(sym, date, last.Close, res.Signal, "COMPOSITE")
	}
}

// evaluate invokes the oracle, converting a panic into an error so one bad
// symbol/day can never abort the run.
func evaluate(ctx context.Context, oracle signal.Oracle, history domain.Series) (res signal.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle panic: %v", r)
		}
	}()
	return oracle.Evaluate(ctx, history)
}

// openPosition sizes and opens a new position at the raw close price. It is
// a no-op when the concurrency cap is reached, when short selling is
// disabled for a SELL signal, or when the sized quantity rounds to zero.
func (e *Engine) openPosition(symbol string, date time.Time, rawPrice float64, sig signal.Direction, strategy string) {
	if len(e.positions) >= e.cfg.MaxPositions {
		return
	}

	var ptype PositionType
	switch {
	case sig == signal.Buy:
		ptype = Long
	case sig == signal.Sell && e.cfg.AllowShortSelling:
		ptype = Short
	default:
		return
	}

	entryPrice := e.fillPrice(rawPrice, ptype, true)
	positionValue := e.cash * e.cfg.PositionSizePercent / 100
	quantity := int64(positionValue / entryPrice)
	if quantity <= 0 {
		return
	}
	commission := positionValue * e.cfg.CommissionPercent / 100

	e.positions[symbol] = &Position{
		Symbol:      symbol,
		EntryDate:   date,
		EntryPrice:  entryPrice,
		Type:        ptype,
		Quantity:    quantity,
		EntrySignal: string(sig),
		Strategy:    strategy,
	}
	e.cash -= positionValue + commission

	e.log.Debug("opened position",
		"symbol", symbol, "type", ptype, "price", entryPrice, "qty", quantity)
}

// closePosition closes the open position on symbol at the raw price,
// records the Trade, and credits cash with the net exit proceeds. It is a
// no-op when no position is open on the symbol.
func (e *Engine) closePosition(symbol string, date time.Time, rawPrice float64, reason string) {
	pos, ok := e.positions[symbol]
	if !ok {
		return
	}

	exitPrice := e.fillPrice(rawPrice, pos.Type, false)
	notional := exitPrice * float64(pos.Quantity)
	commission := notional * e.cfg.CommissionPercent / 100

	pnl := pos.PnL(exitPrice) - commission
	pnlPct := pnl / (pos.EntryPrice * float64(pos.Quantity)) * 100

	e.trades = append(e.trades, Trade{
		Symbol:      symbol,
		EntryDate:   pos.EntryDate,
		ExitDate:    date,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exitPrice,
		Type:        pos.Type,
		Quantity:    pos.Quantity,
		EntrySignal: pos.EntrySignal,
		ExitReason:  reason,
		PnL:         pnl,
		PnLPercent:  pnlPct,
		HoldingDays: holdingDays(pos.EntryDate, date),
		Strategy:    pos.Strategy,
	})
	e.cash += notional - commission
	delete(e.positions, symbol)

	e.log.Debug("closed position",
		"symbol", symbol, "reason", reason, "price", exitPrice,
		"pnl", fmt.Sprintf("%.2f", pnl), "pnl_pct", fmt.Sprintf("%.2f", pnlPct))
}

// closeAll force-closes every open position at its last available close on
// or before date. A position whose series has no observation at all falls
// back to its entry price.
func (e *Engine) closeAll(date time.Time, data map[string]domain.Series, reason string) {
	for _, sym := range e.openSymbols() {
		price := e.positions[sym].EntryPrice
		if series, ok := data[sym]; ok {
			if bar, ok := series.LatestOn(date); ok {
				price = bar.Close
			}
		}
		e.closePosition(sym, date, price, reason)
	}
}

// fillPrice applies slippage unfavourably for the executing side: a long
// entry or short cover fills higher, a long exit or short entry lower.
func (e *Engine) fillPrice(rawPrice float64, ptype PositionType, entry bool) float64 {
	adverse := 1 + e.cfg.SlippagePercent/100
	favorable := 1 - e.cfg.SlippagePercent/100
	if (ptype == Long) == entry {
		return rawPrice * adverse
	}
	return rawPrice * favorable
}

// markToMarket values the book at this date's closes: cash plus every open
// position that has a price observation today.
func (e *Engine) markToMarket(date time.Time, data map[string]domain.Series) float64 {
	equity := e.cash
	for sym, pos := range e.positions {
		series, ok := data[sym]
		if !ok {
			continue
		}
		if bar, ok := series.At(date); ok {
			equity += bar.Close * float64(pos.Quantity)
		}
	}
	return equity
}

// sampleFinalEquity replaces (or appends) the equity sample for the final
// date after the terminal closes, so that the curve ends at the realized
// cash value.
func (e *Engine) sampleFinalEquity(date time.Time) {
	if n := len(e.equity); n > 0 && e.equityDates[n-1].Equal(date) {
		e.equity[n-1] = e.cash
		return
	}
	e.equityDates = append(e.equityDates, date)
	e.equity = append(e.equity, e.cash)
}

// openSymbols returns the open-position symbols in sorted order.
func (e *Engine) openSymbols() []string {
	symbols := make([]string, 0, len(e.positions))
	for sym := range e.positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// holdingDays is the elapsed calendar days between entry and the given date.
func holdingDays(entry, date time.Time) int {
	return int(date.Sub(entry).Hours() / 24)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
