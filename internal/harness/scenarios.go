package harness

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/brendadeeznuts1111/lattice/internal/engine"
	"github.com/brendadeeznuts1111/lattice/internal/params"
	"github.com/brendadeeznuts1111/lattice/internal/reload"
)

type scenario struct {
	name string
	run  func(ctx context.Context, log *zap.Logger) (bool, map[string]any)
}

var scenarios = []scenario{
	{"floor-idempotence", checkFloorIdempotence},
	{"batch-scalar-equivalence", checkBatchScalarEquivalence},
	{"validation-gating", checkValidationGating},
	{"partial-batch-application", checkPartialBatchApplication},
	{"read-after-write", checkReadAfterWrite},
	{"reload-atomicity", checkReloadAtomicity},
	{"end-to-end-decay", checkEndToEndDecay},
	{"observer-notification", checkObserverNotification},
	{"throughput", checkThroughput},
}

func checkFloorIdempotence(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)
	eng := engine.New(store, log)
	store.Set(params.KeyNoiseFloor, 0.01)

	for _, factor := range []float64{0, 0.25, 0.5, 0.95, 1} {
		store.Set(params.KeyDecayFactor, factor)

		if got, _ := eng.Decay(0); got != 0 {
			return false, map[string]any{"factor": factor, "decay(0)": got}
		}
		for _, t := range []float32{0.001, 0.005, 0.0099} {
			if math.Abs(float64(t)*factor) >= 0.01 {
				continue
			}
			if got, _ := eng.Decay(t); got != 0 {
				return false, map[string]any{"factor": factor, "tension": t, "got": got}
			}
		}
	}
	return true, nil
}

func checkBatchScalarEquivalence(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)
	store.Set(params.KeyBatchSize, 1)
	accel := engine.New(store, log)
	scalar := engine.New(store, log, engine.WithoutAcceleration())

	for _, n := range []int{1, 7, 64, 1023, 4096} {
		tensions := make([]float32, n)
		for i := range tensions {
			tensions[i] = rand.Float32() * 2
		}
		fast, err := accel.BatchDecay(tensions)
		if err != nil {
			return false, map[string]any{"error": err.Error()}
		}
		slow, err := scalar.BatchDecay(tensions)
		if err != nil {
			return false, map[string]any{"error": err.Error()}
		}
		for i := range fast {
			if fast[i] != slow[i] {
				return false, map[string]any{"length": n, "index": i, "accelerated": fast[i], "scalar": slow[i]}
			}
		}
	}
	return true, map[string]any{"strategy": accel.Strategy().String()}
}

func checkValidationGating(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)

	if store.Set(params.KeyDecayFactor, 1.5) {
		return false, map[string]any{"accepted": "decayFactor=1.5"}
	}
	if store.Float(params.KeyDecayFactor) != 0.95 {
		return false, map[string]any{"decayFactor": store.Float(params.KeyDecayFactor)}
	}
	if store.Set(params.KeyBatchSize, 10) {
		return false, map[string]any{"accepted": "batchSize=10"}
	}
	if !store.Set(params.KeyBatchSize, 16) {
		return false, map[string]any{"rejected": "batchSize=16"}
	}
	return true, nil
}

func checkPartialBatchApplication(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)
	prior := store.Int(params.KeyBatchSize)

	changes := store.ApplyBatch(map[string]any{
		params.KeyDecayFactor: 0.9,
		params.KeyBatchSize:   -1,
	})

	if len(changes) != 1 || changes[0].Key != params.KeyDecayFactor {
		return false, map[string]any{"changes": changes}
	}
	if store.Int(params.KeyBatchSize) != prior {
		return false, map[string]any{"batchSize": store.Int(params.KeyBatchSize), "want": prior}
	}
	return true, nil
}

func checkReadAfterWrite(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)
	eng := engine.New(store, log)

	store.Set(params.KeyDecayFactor, 0.5)
	got, err := eng.Decay(1.0)
	if err != nil || got != 0.5 {
		return false, map[string]any{"got": got, "want": 0.5}
	}
	return true, nil
}

func checkReloadAtomicity(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)
	dir, err := os.MkdirTemp("", "lattice-harness-")
	if err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "lattice.yaml")
	ch := reload.New(store, log, path)

	before := store.Snapshot()

	// Stage one of a torn write: partial canonical file, temp still live.
	if err := os.WriteFile(path, []byte(`{"decayFactor": 0.`), 0o644); err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	if err := os.WriteFile(path+".tmp", []byte("decayFactor: 0.5\n"), 0o644); err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	if err := ch.ReloadNow(); err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	if !snapshotEqual(before, store.Snapshot()) {
		return false, map[string]any{"snapshot": store.Snapshot(), "want": before}
	}

	// Writer completes the protocol; reload must now apply fully.
	os.Remove(path + ".tmp")
	if err := reload.WriteConfig(path, map[string]any{"decayFactor": 0.5, "noiseFloor": 0.02}); err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	if err := ch.ReloadNow(); err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	if store.Float(params.KeyDecayFactor) != 0.5 || store.Float(params.KeyNoiseFloor) != 0.02 {
		return false, map[string]any{"snapshot": store.Snapshot()}
	}
	return true, nil
}

func checkEndToEndDecay(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)
	eng := engine.New(store, log)

	got, err := eng.BatchDecay([]float32{1.0, 0.5, 0.005})
	if err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	want := []float32{0.95, 0.475, 0}
	for i := range want {
		if got[i] != want[i] {
			return false, map[string]any{"got": got, "want": want}
		}
	}
	return true, nil
}

func checkObserverNotification(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)

	var a, b []params.Change
	store.OnChange(params.KeyDecayFactor, func(c params.Change) { a = append(a, c) })
	store.OnChange(params.KeyDecayFactor, func(c params.Change) { b = append(b, c) })

	store.Set(params.KeyDecayFactor, 0.6)

	if len(a) != 1 || len(b) != 1 {
		return false, map[string]any{"first": len(a), "second": len(b)}
	}
	if a[0] != b[0] || a[0].Old != 0.95 || a[0].New != 0.6 {
		return false, map[string]any{"first": a[0], "second": b[0]}
	}
	return true, nil
}

func checkThroughput(ctx context.Context, log *zap.Logger) (bool, map[string]any) {
	store := params.New(log)
	eng := engine.New(store, log)

	res, err := eng.Benchmark(100_000)
	if err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	return res.RatePerSecond > 0, map[string]any{
		"iterations":        res.Iterations,
		"time_ms":           res.TimeMs,
		"rate_per_second":   res.RatePerSecond,
		"used_acceleration": res.UsedAcceleration,
	}
}

func snapshotEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
