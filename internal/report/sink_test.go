package report

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quantbt/internal/backtest"
)

func TestFileSinkWrite(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(filepath.Join(dir, "backtests"))
	sink.now = func() time.Time {
		return time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	}

	results := &backtest.Results{
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital: 1_000_000,
		FinalCapital:   1_050_000,
		ProfitFactor:   backtest.Ratio(math.Inf(1)),
	}

	path, err := sink.Write(context.Background(), results)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "backtest_results_20240601_150405.json" {
		t.Errorf("path = %q, want timestamped file name", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var back backtest.Results
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("written document is not valid JSON: %v", err)
	}
	if back.FinalCapital != results.FinalCapital {
		t.Errorf("FinalCapital = %v, want %v", back.FinalCapital, results.FinalCapital)
	}
	if !back.ProfitFactor.IsInf() {
		t.Errorf("ProfitFactor = %v, want +Inf after round trip", back.ProfitFactor)
	}
}

func TestFileSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep", "nested", "out")
	sink := NewFileSink(dir)

	if _, err := sink.Write(context.Background(), &backtest.Results{}); err != nil {
		t.Fatalf("Write into missing directory: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Errorf("output dir contents = %v, %v; want one file", entries, err)
	}
}
