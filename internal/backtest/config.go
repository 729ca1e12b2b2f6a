// Package backtest implements the day-by-day portfolio simulation engine:
// it replays historical daily bars through a signal oracle, opens and
// closes positions under the configured risk rules, marks the book to
// market, and derives the performance statistics of the run.
package backtest

import (
	"errors"
	"fmt"
)

// MinAlignedDays is the minimum number of aligned trading days a run needs;
// statistics over shorter windows are not meaningful.
const MinAlignedDays = 30

// ErrNoData reports an empty or unusable price-series input.
var ErrNoData = errors.New("backtest: no price data")

// ErrInsufficientData reports too few aligned trading days to simulate.
var ErrInsufficientData = errors.New("backtest: insufficient aligned trading days")

// Config bundles every simulation parameter. All *Percent fields are plain
// percentages (5.0 means 5%); RiskFreeRate is an annual fraction (0.06
// means 6%).
type Config struct {
	InitialCapital      float64 `yaml:"initial_capital" json:"initial_capital"`
	PositionSizePercent float64 `yaml:"position_size_percent" json:"position_size_percent"`
	MaxPositions        int     `yaml:"max_positions" json:"max_positions"`

	CommissionPercent float64 `yaml:"commission_percent" json:"commission_percent"`
	SlippagePercent   float64 `yaml:"slippage_percent" json:"slippage_percent"`

	StopLossPercent   float64 `yaml:"stop_loss_percent" json:"stop_loss_percent"`
	TakeProfitPercent float64 `yaml:"take_profit_percent" json:"take_profit_percent"`
	MaxHoldingDays    int     `yaml:"max_holding_days" json:"max_holding_days"`
	AllowShortSelling bool    `yaml:"allow_short_selling" json:"allow_short_selling"`

	MaxPortfolioDrawdown float64 `yaml:"max_portfolio_drawdown" json:"max_portfolio_drawdown"`

	MinSignalConfidence float64 `yaml:"min_signal_confidence" json:"min_signal_confidence"`
	MinCompositeScore   float64 `yaml:"min_composite_score" json:"min_composite_score"`

	// WarmupDays is how many leading calendar days are skipped so indicator
	// columns can stabilize; it is also the minimum history an oracle sees.
	WarmupDays int `yaml:"warmup_days" json:"warmup_days"`

	// RiskFreeRate is the assumed annual risk-free rate used by the Sharpe
	// and Sortino calculations.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// DefaultConfig returns the stock configuration used when a field is not
// set explicitly.
func DefaultConfig() Config {
	return Config{
		InitialCapital:       1_000_000,
		PositionSizePercent:  5.0,
		MaxPositions:         20,
		CommissionPercent:    0.1,
		SlippagePercent:      0.05,
		StopLossPercent:      5.0,
		TakeProfitPercent:    15.0,
		MaxHoldingDays:       30,
		AllowShortSelling:    false,
		MaxPortfolioDrawdown: 20.0,
		MinSignalConfidence:  0.3,
		MinCompositeScore:    30.0,
		WarmupDays:           50,
		RiskFreeRate:         0.06,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be > 0, got %g", c.InitialCapital)
	}
	if c.PositionSizePercent <= 0 || c.PositionSizePercent > 100 {
		return fmt.Errorf("position_size_percent must be in (0, 100], got %g", c.PositionSizePercent)
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be > 0, got %d", c.MaxPositions)
	}
	if c.CommissionPercent < 0 {
		return fmt.Errorf("commission_percent must be >= 0, got %g", c.CommissionPercent)
	}
	if c.SlippagePercent < 0 {
		return fmt.Errorf("slippage_percent must be >= 0, got %g", c.SlippagePercent)
	}
	if c.StopLossPercent <= 0 {
		return fmt.Errorf("stop_loss_percent must be > 0, got %g", c.StopLossPercent)
	}
	if c.TakeProfitPercent <= 0 {
		return fmt.Errorf("take_profit_percent must be > 0, got %g", c.TakeProfitPercent)
	}
	if c.MaxHoldingDays <= 0 {
		return fmt.Errorf("max_holding_days must be > 0, got %d", c.MaxHoldingDays)
	}
	if c.MaxPortfolioDrawdown <= 0 || c.MaxPortfolioDrawdown > 100 {
		return fmt.Errorf("max_portfolio_drawdown must be in (0, 100], got %g", c.MaxPortfolioDrawdown)
	}
	if c.MinSignalConfidence < 0 || c.MinSignalConfidence > 1 {
		return fmt.Errorf("min_signal_confidence must be in [0, 1], got %g", c.MinSignalConfidence)
	}
	if c.MinCompositeScore < 0 {
		return fmt.Errorf("min_composite_score must be >= 0, got %g", c.MinCompositeScore)
	}
	if c.WarmupDays < 0 {
		return fmt.Errorf("warmup_days must be >= 0, got %d", c.WarmupDays)
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("risk_free_rate must be >= 0, got %g", c.RiskFreeRate)
	}
	return nil
}
