package signal

import (
	"fmt"
	"math"

	"quantbt/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*Supertrend)(nil)

// Supertrend votes on the ATR-banded trend line: price flipping across the
// line produces a high-confidence vote, a continuing trend a weak one.
type Supertrend struct {
	atrPeriod  int
	multiplier float64
}

// NewSupertrend creates a Supertrend strategy with the given ATR period and
// band multiplier.
func NewSupertrend(atrPeriod int, multiplier float64) (*Supertrend, error) {
	if atrPeriod < 1 || atrPeriod > 100 {
		return nil, fmt.Errorf("atr period out of range: %d", atrPeriod)
	}
	if multiplier <= 0 {
		return nil, fmt.Errorf("multiplier must be positive: %g", multiplier)
	}
	return &Supertrend{atrPeriod: atrPeriod, multiplier: multiplier}, nil
}

// Name returns "supertrend".
func (s *Supertrend) Name() string { return "supertrend" }

// Vote computes the supertrend line over the history and inspects the last
// two observations.
func (s *Supertrend) Vote(history domain.Series) (Vote, error) {
	bars := history.Bars()
	if len(bars) < s.atrPeriod+2 {
		return Vote{Signal: NoSignal}, nil
	}

	line, uptrend := s.compute(bars)
	n := len(bars)

	ranges := atr(bars, s.atrPeriod)
	strength := trendStrength(bars[n-1].Close, line[n-1], ranges[n-1])

	switch {
	case uptrend[n-1] && !uptrend[n-2]:
		// Flip to uptrend.
		return Vote{Signal: Buy, Score: strength * 100, Confidence: clamp(strength, 0.6, 0.9)}, nil
	case !uptrend[n-1] && uptrend[n-2]:
		// Flip to downtrend.
		return Vote{Signal: Sell, Score: -strength * 100, Confidence: clamp(strength, 0.6, 0.9)}, nil
	case uptrend[n-1]:
		return Vote{Signal: Buy, Score: strength * 100, Confidence: math.Min(0.5, strength*0.7)}, nil
	default:
		return Vote{Signal: Sell, Score: -strength * 100, Confidence: math.Min(0.5, strength*0.7)}, nil
	}
}

// compute returns the supertrend line and per-bar trend direction using the
// standard band-carrying recursion.
func (s *Supertrend) compute(bars []domain.Bar) (line []float64, uptrend []bool) {
	n := len(bars)
	ranges := atr(bars, s.atrPeriod)

	upper := make([]float64, n)
	lower := make([]float64, n)
	line = make([]float64, n)
	uptrend = make([]bool, n)

	for i := 0; i < n; i++ {
		mid := (bars[i].High + bars[i].Low) / 2
		basicUpper := mid + s.multiplier*ranges[i]
		basicLower := mid - s.multiplier*ranges[i]

		if i == 0 {
			upper[i] = basicUpper
			lower[i] = basicLower
			uptrend[i] = true
			line[i] = basicLower
			continue
		}

		// Bands only ratchet in the direction of the trend.
		upper[i] = basicUpper
		if basicUpper > upper[i-1] && bars[i-1].Close <= upper[i-1] {
			upper[i] = upper[i-1]
		}
		lower[i] = basicLower
		if basicLower < lower[i-1] && bars[i-1].Close >= lower[i-1] {
			lower[i] = lower[i-1]
		}

		switch {
		case bars[i].Close > upper[i-1]:
			uptrend[i] = true
		case bars[i].Close < lower[i-1]:
			uptrend[i] = false
		default:
			uptrend[i] = uptrend[i-1]
		}

		if uptrend[i] {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
	}
	return line, uptrend
}

// trendStrength measures the distance between price and the trend line in
// ATR units, saturating at 2 ATRs.
func trendStrength(close, line, atrValue float64) float64 {
	if atrValue <= 0 {
		return 0
	}
	return math.Min(1.0, math.Abs(close-line)/(2*atrValue))
}
