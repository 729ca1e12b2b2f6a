package backtest

import "time"

// PositionType distinguishes long from short exposure; it fixes the sign
// convention of every P&L calculation.
type PositionType string

const (
	Long  PositionType = "LONG"
	Short PositionType = "SHORT"
)

// Exit reasons recorded on closed trades.
const (
	ExitStopLoss    = "STOP_LOSS"
	ExitTakeProfit  = "TAKE_PROFIT"
	ExitMaxHolding  = "MAX_HOLDING"
	ExitBacktestEnd = "BACKTEST_END"
	ExitMaxDrawdown = "MAX_DRAWDOWN"
	ExitInterrupted = "INTERRUPTED"
)

// Position is one open exposure. The engine holds at most one Position per
// symbol and removes it the moment it closes.
type Position struct {
	Symbol      string
	EntryDate   time.Time
	EntryPrice  float64 // post-slippage fill price
	Type        PositionType
	Quantity    int64 // always > 0
	EntrySignal string
	Strategy    string
}

// PnL returns the current profit in currency units at the given price.
func (p *Position) PnL(price float64) float64 {
	if p.Type == Long {
		return (price - p.EntryPrice) * float64(p.Quantity)
	}
	return (p.EntryPrice - price) * float64(p.Quantity)
}

// PnLPercent returns the current profit as a percentage of the entry price.
func (p *Position) PnLPercent(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	if p.Type == Long {
		return (price - p.EntryPrice) / p.EntryPrice * 100
	}
	return (p.EntryPrice - price) / p.EntryPrice * 100
}
