package signal

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"quantbt/internal/domain"
)

type stubStrategy struct {
	name string
	vote Vote
	err  error
}

func (s stubStrategy) Name() string                     { return s.name }
func (s stubStrategy) Vote(domain.Series) (Vote, error) { return s.vote, s.err }

func tinyHistory() domain.Series {
	return domain.NewSeries([]domain.Bar{
		{Symbol: "T", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 100},
	})
}

func TestScorerWeightedComposite(t *testing.T) {
	scorer := NewScorer([]Strategy{
		stubStrategy{name: "bull", vote: Vote{Signal: Buy, Confidence: 0.8}},
		stubStrategy{name: "bear", vote: Vote{Signal: Sell, Confidence: 0.4}},
	}, map[string]float64{"bull": 1.5, "bear": 1.0})

	res, err := scorer.Evaluate(context.Background(), tinyHistory())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// (0.8*100*1.5 - 0.4*100*1.0) / 2.5 = 32
	if math.Abs(res.Score-32) > 1e-9 {
		t.Errorf("Score = %v, want 32", res.Score)
	}
	if res.Signal != Buy {
		t.Errorf("Signal = %q, want BUY", res.Signal)
	}
	// Confidence blends average vote confidence 0.6 with strength 0.32.
	if math.Abs(res.Confidence-0.46) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.46", res.Confidence)
	}
	if len(res.Votes) != 2 {
		t.Errorf("len(Votes) = %d, want 2", len(res.Votes))
	}
}

func TestScorerStrongSignalBonus(t *testing.T) {
	scorer := NewScorer([]Strategy{
		stubStrategy{name: "bull", vote: Vote{Signal: Buy, Confidence: 0.9}},
	}, nil)

	res, err := scorer.Evaluate(context.Background(), tinyHistory())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Signal != Buy || res.Score < strongBuyThreshold {
		t.Fatalf("got %q score %v, want strong BUY", res.Signal, res.Score)
	}
	// Bonus applies but is capped at 0.9.
	if res.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want capped 0.9", res.Confidence)
	}
}

func TestScorerNeutralZone(t *testing.T) {
	scorer := NewScorer([]Strategy{
		stubStrategy{name: "bull", vote: Vote{Signal: Buy, Confidence: 0.5}},
		stubStrategy{name: "bear", vote: Vote{Signal: Sell, Confidence: 0.5}},
	}, nil)

	res, err := scorer.Evaluate(context.Background(), tinyHistory())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Signal != NoSignal {
		t.Errorf("Signal = %q, want NO_SIGNAL for perfectly opposed votes", res.Signal)
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", res.Confidence)
	}
}

func TestScorerAllAbstain(t *testing.T) {
	scorer := NewScorer([]Strategy{
		stubStrategy{name: "quiet", vote: Vote{Signal: NoSignal}},
	}, nil)

	res, err := scorer.Evaluate(context.Background(), tinyHistory())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Signal != NoSignal {
		t.Errorf("Signal = %q, want NO_SIGNAL", res.Signal)
	}
	if _, ok := res.Votes["quiet"]; !ok {
		t.Error("abstaining vote missing from breakdown")
	}
}

func TestScorerFailingStrategyExcluded(t *testing.T) {
	scorer := NewScorer([]Strategy{
		stubStrategy{name: "broken", err: context.DeadlineExceeded},
		stubStrategy{name: "bull", vote: Vote{Signal: Buy, Confidence: 0.8}},
	}, nil)

	res, err := scorer.Evaluate(context.Background(), tinyHistory())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Signal != Buy {
		t.Errorf("Signal = %q, want BUY from the surviving strategy", res.Signal)
	}
	if _, ok := res.Votes["broken"]; ok {
		t.Error("failed strategy present in vote breakdown")
	}
}

func TestScorerNoStrategies(t *testing.T) {
	scorer := NewScorer(nil, nil)
	if _, err := scorer.Evaluate(context.Background(), tinyHistory()); err == nil {
		t.Error("Evaluate with no strategies succeeded, want error")
	}
}

func TestScorerCancelledContext(t *testing.T) {
	scorer := NewScorer([]Strategy{
		stubStrategy{name: "bull", vote: Vote{Signal: Buy, Confidence: 0.8}},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scorer.Evaluate(ctx, tinyHistory()); err == nil {
		t.Error("Evaluate with cancelled context succeeded, want error")
	}
}

func TestScorerStrategies(t *testing.T) {
	scorer := NewScorer([]Strategy{
		stubStrategy{name: "zeta"},
		stubStrategy{name: "alpha"},
	}, nil)
	scorer.Register(stubStrategy{name: "mid"})

	want := []string{"alpha", "mid", "zeta"}
	if got := scorer.Strategies(); !reflect.DeepEqual(got, want) {
		t.Errorf("Strategies() = %v, want %v", got, want)
	}
}
