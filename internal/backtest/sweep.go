package backtest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quantbt/internal/domain"
	"quantbt/internal/signal"
)

// SweepResult is the outcome of one run in a parameter sweep.
type SweepResult struct {
	Config  Config
	Results *Results
	Err     error
}

// RunSweep executes one independent backtest per configuration and returns
// the outcomes in configuration order. Runs are distributed across workers;
// every run gets its own Engine and its own oracle from oracleFactory, so
// no mutable state is shared between concurrent runs. The shared price data
// is read-only.
func RunSweep(ctx context.Context, configs []Config, data map[string]domain.Series, oracleFactory func() signal.Oracle, workers int, start, end time.Time) []SweepResult {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(configs) {
		workers = len(configs)
	}

	log := slog.Default().With("component", "sweep")
	log.Info("starting sweep", "runs", len(configs), "workers", workers)

	results := make([]SweepResult, len(configs))

	jobCh := make(chan int, len(configs))
	for i := range configs {
		jobCh <- i
	}
	close(jobCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				if ctx.Err() != nil {
					results[i] = SweepResult{Config: configs[i], Err: ctx.Err()}
					continue
				}
				results[i] = runOne(ctx, configs[i], data, oracleFactory(), start, end)
			}
		}()
	}
	wg.Wait()

	return results
}

func runOne(ctx context.Context, cfg Config, data map[string]domain.Series, oracle signal.Oracle, start, end time.Time) SweepResult {
	engine, err := NewEngine(cfg)
	if err != nil {
		return SweepResult{Config: cfg, Err: err}
	}
	res, err := engine.Run(ctx, data, oracle, start, end)
	return SweepResult{Config: cfg, Results: res, Err: err}
}
