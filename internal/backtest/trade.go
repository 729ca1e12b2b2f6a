package backtest

import "time"

// Trade is a completed round-trip, created exactly once when a position
// closes and never mutated afterwards. The ordered trade list, in close
// order, is the audit trail of a run.
type Trade struct {
	Symbol      string       `json:"symbol"`
	EntryDate   time.Time    `json:"entry_date"`
	ExitDate    time.Time    `json:"exit_date"`
	EntryPrice  float64      `json:"entry_price"` // post-slippage
	ExitPrice   float64      `json:"exit_price"`  // post-slippage
	Type        PositionType `json:"position_type"`
	Quantity    int64        `json:"quantity"`
	EntrySignal string       `json:"entry_signal"`
	ExitReason  string       `json:"exit_reason"`
	PnL         float64      `json:"pnl"`
	PnLPercent  float64      `json:"pnl_percent"`
	HoldingDays int          `json:"holding_days"`
	Strategy    string       `json:"strategy_name"`
}
