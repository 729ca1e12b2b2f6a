package signal

import (
	"fmt"
	"math"

	"quantbt/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*EMACross)(nil)

// EMACross votes on the relationship between a short- and a long-period
// exponential moving average of the close. A fresh crossover votes with
// high confidence; an established trend votes with low confidence so that
// it reinforces agreeing strategies without driving entries on its own.
type EMACross struct {
	shortPeriod int
	longPeriod  int
}

// NewEMACross creates an EMACross strategy with the given periods. The
// short period must be smaller than the long period.
func NewEMACross(short, long int) (*EMACross, error) {
	if short <= 0 || long <= 0 || short >= long {
		return nil, fmt.Errorf("invalid ema periods: short=%d long=%d", short, long)
	}
	return &EMACross{shortPeriod: short, longPeriod: long}, nil
}

// Name returns "ema-cross".
func (s *EMACross) Name() string { return "ema-cross" }

// Vote inspects the latest two EMA observations for a crossover.
func (s *EMACross) Vote(history domain.Series) (Vote, error) {
	if history.Len() < s.longPeriod+1 {
		return Vote{Signal: NoSignal}, nil
	}

	prices := closes(history)
	short := ema(prices, s.shortPeriod)
	long := ema(prices, s.longPeriod)

	n := len(prices)
	nowAbove := short[n-1] > long[n-1]
	prevAbove := short[n-2] > long[n-2]
	strength := crossoverStrength(short[n-1], long[n-1])

	switch {
	case nowAbove && !prevAbove:
		// Fresh bullish cross.
		return Vote{Signal: Buy, Score: strength * 100, Confidence: clamp(strength, 0.6, 0.9)}, nil
	case !nowAbove && prevAbove:
		// Fresh bearish cross.
		return Vote{Signal: Sell, Score: -strength * 100, Confidence: clamp(strength, 0.6, 0.9)}, nil
	case nowAbove:
		return Vote{Signal: Buy, Score: strength * 100, Confidence: clamp(strength, 0.3, 0.5)}, nil
	default:
		return Vote{Signal: Sell, Score: -strength * 100, Confidence: clamp(strength, 0.3, 0.5)}, nil
	}
}

// crossoverStrength measures the separation of the two averages relative to
// the long average, scaled so that a 2% separation saturates at 1.
func crossoverStrength(short, long float64) float64 {
	if long == 0 {
		return 0
	}
	return math.Min(1.0, math.Abs(short-long)/long/0.02)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
