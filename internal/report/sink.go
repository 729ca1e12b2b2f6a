// Package report exports backtest results to durable, human- and
// machine-readable documents. Sinks are explicit collaborators passed to
// the caller-side wiring; the engine itself never touches them.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"quantbt/internal/backtest"
)

// Sink writes one results document somewhere durable and returns a
// description of where it went.
type Sink interface {
	Write(ctx context.Context, results *backtest.Results) (string, error)
}

// Compile-time interface check.
var _ Sink = (*FileSink)(nil)

// FileSink writes results as an indented JSON document to a timestamped
// file in an output directory.
type FileSink struct {
	Dir string

	// now is swappable for tests.
	now func() time.Time
}

// NewFileSink creates a FileSink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir, now: time.Now}
}

// Write creates <Dir>/backtest_results_<YYYYMMDD_HHMMSS>.json and returns
// its path.
func (s *FileSink) Write(_ context.Context, results *backtest.Results) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	name := fmt.Sprintf("backtest_results_%s.json", s.now().Format("20060102_150405"))
	path := filepath.Join(s.Dir, name)

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing results: %w", err)
	}

	slog.Default().Info("results saved", "path", path)
	return path, nil
}
