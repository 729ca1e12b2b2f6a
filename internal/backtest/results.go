package backtest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Ratio is a statistic that may legitimately be unbounded (profit factor
// with no losing trades, Sortino with no downside observations). It
// serializes infinities as the explicit string sentinel "inf"/"-inf" so the
// JSON document stays well-defined.
type Ratio float64

// IsInf reports whether the ratio is unbounded.
func (r Ratio) IsInf() bool { return math.IsInf(float64(r), 0) }

// MarshalJSON encodes infinities as string sentinels and everything else as
// a plain number.
func (r Ratio) MarshalJSON() ([]byte, error) {
	switch {
	case math.IsInf(float64(r), 1):
		return []byte(`"inf"`), nil
	case math.IsInf(float64(r), -1):
		return []byte(`"-inf"`), nil
	case math.IsNaN(float64(r)):
		return []byte(`"nan"`), nil
	default:
		return json.Marshal(float64(r))
	}
}

// UnmarshalJSON accepts both the string sentinels and plain numbers.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "inf":
			*r = Ratio(math.Inf(1))
		case "-inf":
			*r = Ratio(math.Inf(-1))
		case "nan":
			*r = Ratio(math.NaN())
		default:
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid ratio %q", s)
			}
			*r = Ratio(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ratio(v)
	return nil
}

// Point is one sample of a time-indexed series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Results is the immutable output aggregate of one backtest run,
// constructed exactly once by the performance calculator.
type Results struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	InitialCapital     float64 `json:"initial_capital"`
	FinalCapital       float64 `json:"final_capital"`
	TotalReturn        float64 `json:"total_return"`
	TotalReturnPercent float64 `json:"total_return_percent"`
	AnnualizedReturn   float64 `json:"annualized_return"`

	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio Ratio   `json:"sortino_ratio"`

	WinRate      float64 `json:"win_rate"`
	ProfitFactor Ratio   `json:"profit_factor"`

	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	AvgHoldingDays float64 `json:"avg_holding_days"`

	Trades       []Trade `json:"trades"`
	DailyReturns []Point `json:"daily_returns"`
	EquityCurve  []Point `json:"equity_curve"`
}
