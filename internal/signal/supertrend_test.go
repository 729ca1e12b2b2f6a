package signal

import (
	"testing"
	"time"

	"quantbt/internal/domain"
)

// rangedSeries builds a daily series with a one-point range around each
// close.
func rangedSeries(closes []float64) domain.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol: "T",
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
		}
	}
	return domain.NewSeries(bars)
}

func TestNewSupertrendValidation(t *testing.T) {
	if _, err := NewSupertrend(0, 3); err == nil {
		t.Error("accepted zero ATR period")
	}
	if _, err := NewSupertrend(101, 3); err == nil {
		t.Error("accepted out-of-range ATR period")
	}
	if _, err := NewSupertrend(10, 0); err == nil {
		t.Error("accepted zero multiplier")
	}
	if _, err := NewSupertrend(10, 3); err != nil {
		t.Errorf("rejected valid parameters: %v", err)
	}
}

func TestSupertrendShortHistory(t *testing.T) {
	s, err := NewSupertrend(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	vote, err := s.Vote(rangedSeries([]float64{100, 101, 102}))
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if vote.Signal != NoSignal {
		t.Errorf("Signal = %q with too little history, want NO_SIGNAL", vote.Signal)
	}
}

func TestSupertrendUptrendContinuation(t *testing.T) {
	s, err := NewSupertrend(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	vote, err := s.Vote(rangedSeries(closes))
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if vote.Signal != Buy {
		t.Fatalf("Signal = %q, want BUY in a steady uptrend", vote.Signal)
	}
	if vote.Confidence > 0.5 {
		t.Errorf("Confidence = %v, want continuation capped at 0.5", vote.Confidence)
	}
}

func TestSupertrendFlipToDowntrend(t *testing.T) {
	s, err := NewSupertrend(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	closes := make([]float64, 21)
	for i := 0; i < 20; i++ {
		closes[i] = 100 + float64(i)*2
	}
	// Collapse far through the lower band on the final bar.
	closes[20] = 60

	vote, err := s.Vote(rangedSeries(closes))
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if vote.Signal != Sell {
		t.Fatalf("Signal = %q, want SELL on a trend flip", vote.Signal)
	}
	if vote.Confidence < 0.6 {
		t.Errorf("Confidence = %v, want flip range [0.6, 0.9]", vote.Confidence)
	}
	if vote.Score >= 0 {
		t.Errorf("Score = %v, want negative", vote.Score)
	}
}
