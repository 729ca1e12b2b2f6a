package signal

import "fmt"

// Config selects and parameterizes the built-in strategies behind a Scorer.
type Config struct {
	EMACross struct {
		Enabled     bool `yaml:"enabled"`
		ShortPeriod int  `yaml:"short_period"`
		LongPeriod  int  `yaml:"long_period"`
	} `yaml:"ema_cross"`

	Supertrend struct {
		Enabled    bool    `yaml:"enabled"`
		ATRPeriod  int     `yaml:"atr_period"`
		Multiplier float64 `yaml:"multiplier"`
	} `yaml:"supertrend"`

	SwingTrading struct {
		Enabled       bool    `yaml:"enabled"`
		RSIPeriod     int     `yaml:"rsi_period"`
		RSIOversold   float64 `yaml:"rsi_oversold"`
		RSIOverbought float64 `yaml:"rsi_overbought"`
		BBPeriod      int     `yaml:"bb_period"`
		BBStdDev      float64 `yaml:"bb_std_dev"`
		EMAPeriod     int     `yaml:"ema_period"`
	} `yaml:"swing_trading"`

	// Weights maps strategy names to their composite weight; unlisted
	// strategies weigh 1.
	Weights map[string]float64 `yaml:"weights"`
}

// DefaultConfig enables the built-in strategies with the stock parameters.
func DefaultConfig() Config {
	var c Config
	c.EMACross.Enabled = true
	c.EMACross.ShortPeriod = 50
	c.EMACross.LongPeriod = 200
	c.Supertrend.Enabled = true
	c.Supertrend.ATRPeriod = 10
	c.Supertrend.Multiplier = 3.0
	c.SwingTrading.Enabled = true
	c.SwingTrading.RSIPeriod = 14
	c.SwingTrading.RSIOversold = 30
	c.SwingTrading.RSIOverbought = 70
	c.SwingTrading.BBPeriod = 20
	c.SwingTrading.BBStdDev = 2.0
	c.SwingTrading.EMAPeriod = 20
	c.Weights = map[string]float64{
		"ema-cross":     1.5,
		"supertrend":    1.2,
		"swing-trading": 1.0,
	}
	return c
}

// NewScorerFromConfig builds a Scorer over the enabled strategies.
func NewScorerFromConfig(cfg Config) (*Scorer, error) {
	var strategies []Strategy

	if cfg.EMACross.Enabled {
		s, err := NewEMACross(cfg.EMACross.ShortPeriod, cfg.EMACross.LongPeriod)
		if err != nil {
			return nil, fmt.Errorf("ema_cross: %w", err)
		}
		strategies = append(strategies, s)
	}
	if cfg.Supertrend.Enabled {
		s, err := NewSupertrend(cfg.Supertrend.ATRPeriod, cfg.Supertrend.Multiplier)
		if err != nil {
			return nil, fmt.Errorf("supertrend: %w", err)
		}
		strategies = append(strategies, s)
	}
	if cfg.SwingTrading.Enabled {
		s, err := NewSwingTrading(
			cfg.SwingTrading.RSIPeriod,
			cfg.SwingTrading.RSIOversold,
			cfg.SwingTrading.RSIOverbought,
			cfg.SwingTrading.BBPeriod,
			cfg.SwingTrading.BBStdDev,
			cfg.SwingTrading.EMAPeriod,
		)
		if err != nil {
			return nil, fmt.Errorf("swing_trading: %w", err)
		}
		strategies = append(strategies, s)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies enabled")
	}

	return NewScorer(strategies, cfg.Weights), nil
}
