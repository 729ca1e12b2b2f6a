package signal

import (
	"fmt"

	"quantbt/internal/domain"
)

// Compile-time interface check.
var _ Strategy = (*SwingTrading)(nil)

// SwingTrading votes on mean-reversion swing setups combining RSI,
// Bollinger Bands, and an EMA filter: an oversold RSI with price pierced
// below the lower band while still holding above its EMA is a buy, and the
// mirror image a sell. All three conditions must agree; anything else
// abstains.
type SwingTrading struct {
	rsiPeriod     int
	rsiOversold   float64
	rsiOverbought float64
	bbPeriod      int
	bbStdDev      float64
	emaPeriod     int
}

// NewSwingTrading creates a SwingTrading strategy with the given RSI,
// Bollinger Band, and EMA parameters.
func NewSwingTrading(rsiPeriod int, rsiOversold, rsiOverbought float64, bbPeriod int, bbStdDev float64, emaPeriod int) (*SwingTrading, error) {
	if rsiPeriod < 2 || rsiPeriod > 100 {
		return nil, fmt.Errorf("rsi period out of range: %d", rsiPeriod)
	}
	if rsiOversold < 0 || rsiOverbought > 100 || rsiOversold >= rsiOverbought {
		return nil, fmt.Errorf("invalid rsi thresholds: oversold=%g overbought=%g", rsiOversold, rsiOverbought)
	}
	if bbPeriod < 2 || bbPeriod > 200 {
		return nil, fmt.Errorf("bollinger period out of range: %d", bbPeriod)
	}
	if bbStdDev <= 0 || bbStdDev > 5 {
		return nil, fmt.Errorf("bollinger std dev out of range: %g", bbStdDev)
	}
	if emaPeriod <= 0 {
		return nil, fmt.Errorf("ema period must be positive: %d", emaPeriod)
	}
	return &SwingTrading{
		rsiPeriod:     rsiPeriod,
		rsiOversold:   rsiOversold,
		rsiOverbought: rsiOverbought,
		bbPeriod:      bbPeriod,
		bbStdDev:      bbStdDev,
		emaPeriod:     emaPeriod,
	}, nil
}

// Name returns "swing-trading".
func (s *SwingTrading) Name() string { return "swing-trading" }

// Vote evaluates the three swing conditions on the latest bar. The
// confidence averages how far each condition is exceeded, bounded to
// [0.5, 0.9] so that an agreeing setup always carries real weight.
func (s *SwingTrading) Vote(history domain.Series) (Vote, error) {
	if history.Len() < s.minBars() {
		return Vote{Signal: NoSignal}, nil
	}

	prices := closes(history)
	n := len(prices)
	price := prices[n-1]

	rsiNow := rsi(prices, s.rsiPeriod)[n-1]
	_, upper, lower := bollinger(prices, s.bbPeriod, s.bbStdDev)
	emaNow := ema(prices, s.emaPeriod)[n-1]

	switch {
	case rsiNow < s.rsiOversold && price < lower[n-1] && price > emaNow:
		strength := (s.rsiOversold - rsiNow) / s.rsiOversold
		strength += (lower[n-1] - price) / lower[n-1]
		strength += (price - emaNow) / emaNow
		strength /= 3
		confidence := clamp(strength, 0.5, 0.9)
		return Vote{Signal: Buy, Score: strength * 100, Confidence: confidence}, nil

	case rsiNow > s.rsiOverbought && price > upper[n-1] && price < emaNow:
		strength := (rsiNow - s.rsiOverbought) / (100 - s.rsiOverbought)
		strength += (price - upper[n-1]) / upper[n-1]
		strength += (emaNow - price) / emaNow
		strength /= 3
		confidence := clamp(strength, 0.5, 0.9)
		return Vote{Signal: Sell, Score: -strength * 100, Confidence: confidence}, nil

	default:
		return Vote{Signal: NoSignal}, nil
	}
}

// minBars is the least history needed for all three indicator columns to be
// meaningful.
func (s *SwingTrading) minBars() int {
	need := s.bbPeriod
	if s.rsiPeriod+1 > need {
		need = s.rsiPeriod + 1
	}
	if s.emaPeriod > need {
		need = s.emaPeriod
	}
	return need
}
