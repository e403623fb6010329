// Package engine applies the decay transform to tensions: scalar values
// and batches, multiplied by the live decayFactor and snapped to zero
// below the noiseFloor. The engine never caches parameters across calls;
// a tuned value takes effect on the next operation.
package engine

import (
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/brendadeeznuts1111/lattice/internal/params"
)

// ErrEngineDestroyed is returned by every operation after Destroy.
var ErrEngineDestroyed = errors.New("engine destroyed")

// Strategy identifies which decay code path an engine settled on at
// construction. Once an engine falls back it never retries acceleration.
type Strategy int

const (
	Fallback Strategy = iota
	Accelerated
)

func (s Strategy) String() string {
	if s == Accelerated {
		return "accelerated"
	}
	return "fallback"
}

// Engine decays tensions against the parameters in a Store. One engine
// instance is meant to be owned by a single goroutine; hand batches across
// goroutines by message passing, not by sharing the instance.
type Engine struct {
	store     *params.Store
	log       *zap.Logger
	strategy  Strategy
	kern      *kernel
	destroyed atomic.Bool
}

type options struct {
	disableAcceleration bool
}

// Option configures engine construction.
type Option func(*options)

// WithoutAcceleration forces the scalar fallback path regardless of
// platform support.
func WithoutAcceleration() Option {
	return func(o *options) { o.disableAcceleration = true }
}

// New creates an Engine reading parameters from store. It attempts to
// initialize the accelerated path once; failure is non-fatal and pins the
// engine to the scalar fallback for its lifetime.
func New(store *params.Store, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{store: store, log: log, strategy: Fallback}
	if !o.disableAcceleration {
		k, err := newKernel()
		if err != nil {
			log.Warn("accelerated decay path unavailable, using scalar fallback", zap.Error(err))
		} else {
			e.kern = k
			e.strategy = Accelerated
			log.Debug("accelerated decay path initialized", zap.Int("lanes", k.lanes))
		}
	}
	return e
}

// Strategy reports the code path selected at construction.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Decay returns tension multiplied by the current decayFactor, snapped to
// exactly 0 when the result's magnitude is below the current noiseFloor.
// The snap is a step function, not a clamp: it keeps float dust out of
// long-running aggregates.
func (e *Engine) Decay(tension float32) (float32, error) {
	factor, floor, err := e.factors()
	if err != nil {
		return 0, err
	}
	return decayOne(tension, factor, floor), nil
}

// DecayWith is Decay with an explicit factor override. The noise floor
// still comes from the store.
func (e *Engine) DecayWith(tension, factor float32) (float32, error) {
	if e.destroyed.Load() {
		return 0, ErrEngineDestroyed
	}
	floor := float32(e.store.Float(params.KeyNoiseFloor))
	return decayOne(tension, factor, floor), nil
}

// BatchDecay decays every element of tensions, returning a new slice of
// the same length and order. Batches at least as long as the batchSize
// parameter run on the accelerated path when one is available; results
// are bit-identical either way.
func (e *Engine) BatchDecay(tensions []float32) ([]float32, error) {
	factor, floor, err := e.factors()
	if err != nil {
		return nil, err
	}
	return e.batch(tensions, factor, floor), nil
}

// BatchDecayWith is BatchDecay with an explicit factor override.
func (e *Engine) BatchDecayWith(tensions []float32, factor float32) ([]float32, error) {
	if e.destroyed.Load() {
		return nil, ErrEngineDestroyed
	}
	floor := float32(e.store.Float(params.KeyNoiseFloor))
	return e.batch(tensions, factor, floor), nil
}

// SetDecayRate tunes the decayFactor parameter through the store.
func (e *Engine) SetDecayRate(factor float64) bool {
	return e.store.Set(params.KeyDecayFactor, factor)
}

// SetNoiseFloor tunes the noiseFloor parameter through the store.
func (e *Engine) SetNoiseFloor(floor float64) bool {
	return e.store.Set(params.KeyNoiseFloor, floor)
}

// Destroy releases the acceleration path. Operations on a destroyed
// engine return ErrEngineDestroyed.
func (e *Engine) Destroy() {
	e.destroyed.Store(true)
	e.kern = nil
}

func (e *Engine) factors() (factor, floor float32, err error) {
	if e.destroyed.Load() {
		return 0, 0, ErrEngineDestroyed
	}
	factor = float32(e.store.Float(params.KeyDecayFactor))
	floor = float32(e.store.Float(params.KeyNoiseFloor))
	return factor, floor, nil
}

func (e *Engine) batch(tensions []float32, factor, floor float32) []float32 {
	out := make([]float32, len(tensions))
	if e.strategy == Accelerated && e.kern != nil && len(tensions) >= e.store.Int(params.KeyBatchSize) {
		e.kern.run(out, tensions, factor, floor)
		return out
	}
	for i, t := range tensions {
		out[i] = decayOne(t, factor, floor)
	}
	return out
}

func decayOne(t, factor, floor float32) float32 {
	r := t * factor
	if r < floor && r > -floor {
		return 0
	}
	return r
}
