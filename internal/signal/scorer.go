package signal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"quantbt/internal/domain"
)

// Composite score thresholds. A composite score at or beyond the strong
// threshold gets a confidence bonus.
const (
	buyThreshold       = 30.0
	strongBuyThreshold = 60.0
)

// Compile-time interface check.
var _ Oracle = (*Scorer)(nil)

// Scorer combines the votes of several strategies into a single composite
// Result using per-strategy weights. Strategies with no configured weight
// count with weight 1.
type Scorer struct {
	strategies []Strategy
	weights    map[string]float64
	log        *slog.Logger
}

// NewScorer creates a Scorer over the given strategies. weights maps
// strategy names to their relative weight; it may be nil for equal
// weighting.
func NewScorer(strategies []Strategy, weights map[string]float64) *Scorer {
	w := make(map[string]float64, len(weights))
	for name, weight := range weights {
		w[name] = weight
	}
	return &Scorer{
		strategies: strategies,
		weights:    w,
		log:        slog.Default().With("component", "scorer"),
	}
}

// Register appends a strategy to the scorer.
func (s *Scorer) Register(strat Strategy) {
	s.strategies = append(s.strategies, strat)
}

// Strategies returns the sorted names of all registered strategies.
func (s *Scorer) Strategies() []string {
	names := make([]string, 0, len(s.strategies))
	for _, strat := range s.strategies {
		names = append(names, strat.Name())
	}
	sort.Strings(names)
	return names
}

// Evaluate runs every strategy on the history and folds their votes into a
// weighted composite. A strategy that fails is logged and excluded; if no
// strategy produces an active vote the result is NoSignal.
func (s *Scorer) Evaluate(ctx context.Context, history domain.Series) (Result, error) {
	if len(s.strategies) == 0 {
		return Result{}, fmt.Errorf("scorer has no strategies registered")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	votes := make(map[string]Vote, len(s.strategies))
	var (
		weightedScore float64
		totalWeight   float64
		confidenceSum float64
		active        int
	)
	for _, strat := range s.strategies {
		vote, err := strat.Vote(history)
		if err != nil {
			s.log.Debug("strategy vote failed", "strategy", strat.Name(), "err", err)
			continue
		}
		votes[strat.Name()] = vote
		if vote.Signal == NoSignal {
			continue
		}

		weight := 1.0
		if w, ok := s.weights[strat.Name()]; ok {
			weight = w
		}
		weightedScore += normalize(vote) * weight
		totalWeight += weight
		confidenceSum += vote.Confidence
		active++
	}

	if active == 0 || totalWeight == 0 {
		return Result{Signal: NoSignal, Votes: votes}, nil
	}

	score := weightedScore / totalWeight
	direction, confidence := classify(score, confidenceSum/float64(active))

	return Result{
		Signal:     direction,
		Score:      score,
		Confidence: confidence,
		Votes:      votes,
	}, nil
}

// normalize maps a vote onto the [-100, 100] composite scale: buys score
// positive by confidence, sells negative.
func normalize(v Vote) float64 {
	switch v.Signal {
	case Buy:
		return v.Confidence * 100
	case Sell:
		return -v.Confidence * 100
	default:
		return 0
	}
}

// classify turns a composite score into a direction and confidence. The
// confidence blends average vote confidence with score strength; scores
// beyond the strong threshold get a bonus capped at 0.9.
func classify(score, avgConfidence float64) (Direction, float64) {
	strength := math.Abs(score) / 100.0
	confidence := math.Min(1.0, (avgConfidence+strength)/2)

	switch {
	case score >= strongBuyThreshold:
		return Buy, math.Min(0.9, confidence+0.2)
	case score >= buyThreshold:
		return Buy, confidence
	case score <= -strongBuyThreshold:
		return Sell, math.Min(0.9, confidence+0.2)
	case score <= -buyThreshold:
		return Sell, confidence
	default:
		return NoSignal, 0
	}
}
