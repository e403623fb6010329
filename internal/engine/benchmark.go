package engine

import (
	"math/rand"
	"time"

	"github.com/brendadeeznuts1111/lattice/internal/params"
)

// BenchResult reports one benchmark pass.
type BenchResult struct {
	Iterations       int     `json:"iterations"`
	TimeMs           float64 `json:"time_ms"`
	RatePerSecond    float64 `json:"rate_per_second"`
	UsedAcceleration bool    `json:"used_acceleration"`
}

// Benchmark generates n random tensions in [0,1), runs one BatchDecay
// pass, and reports wall time and throughput. n is capped at the
// maxTensions parameter. Does not mutate the store.
func (e *Engine) Benchmark(n int) (BenchResult, error) {
	if e.destroyed.Load() {
		return BenchResult{}, ErrEngineDestroyed
	}
	if n < 1 {
		n = 1
	}
	if limit := e.store.Int(params.KeyMaxTensions); limit > 0 && n > limit {
		n = limit
	}

	tensions := make([]float32, n)
	for i := range tensions {
		tensions[i] = rand.Float32()
	}

	start := time.Now()
	if _, err := e.BatchDecay(tensions); err != nil {
		return BenchResult{}, err
	}
	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}

	return BenchResult{
		Iterations:       n,
		TimeMs:           float64(elapsed.Microseconds()) / 1000.0,
		RatePerSecond:    float64(n) / elapsed.Seconds(),
		UsedAcceleration: e.strategy == Accelerated && n >= e.store.Int(params.KeyBatchSize),
	}, nil
}
