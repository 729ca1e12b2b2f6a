// Package signal defines the signal-oracle seam consumed by the backtest
// engine, together with a weighted multi-strategy scorer and the built-in
// strategies that ship with quantbt.
package signal

import (
	"context"

	"quantbt/internal/domain"
)

// Direction is a trading opinion for one symbol on one day.
type Direction string

const (
	Buy      Direction = "BUY"
	Sell     Direction = "SELL"
	NoSignal Direction = "NO_SIGNAL"
)

// Result is what an oracle returns for one symbol given its history up to
// the current simulated day. The engine reads only Signal, Score, and
// Confidence; Votes carries the optional per-strategy breakdown.
type Result struct {
	Signal     Direction
	Score      float64 // composite score, conventionally in [-100, 100]
	Confidence float64 // in [0, 1]
	Votes      map[string]Vote
}

// Vote is a single strategy's opinion before composite weighting.
type Vote struct {
	Signal     Direction
	Score      float64
	Confidence float64
}

// Oracle produces a trading opinion from a symbol's price history. The
// history always ends at the current simulated day and is never mutated by
// the oracle. Oracles should return NoSignal rather than an error when they
// simply have no opinion.
type Oracle interface {
	Evaluate(ctx context.Context, history domain.Series) (Result, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, history domain.Series) (Result, error)

// Evaluate calls f.
func (f OracleFunc) Evaluate(ctx context.Context, history domain.Series) (Result, error) {
	return f(ctx, history)
}

// Strategy is one of the sub-strategies combined by the Scorer.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Vote returns the strategy's opinion on the given history.
	Vote(history domain.Series) (Vote, error)
}
