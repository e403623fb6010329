// Package params holds the live-tunable parameters of the lattice engine:
// validated mutation through a single entry point, change notification for
// observers, and snapshots for inspection. Everything else in the process
// reads from here and never caches, so a tuned value takes effect on the
// next operation.
package params

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Change records one accepted parameter mutation. Emitted transiently to
// observers; not retained by the store.
type Change struct {
	Key string `json:"key"`
	Old any    `json:"old"`
	New any    `json:"new"`
}

// Store owns the parameter set. All mutation goes through Set/ApplyBatch
// and appears atomic per key to callers within the process.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
	subs   map[string]map[int]func(Change)
	nextID int
	log    *zap.Logger
}

// New creates a Store initialized to the built-in defaults.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		values: Defaults(),
		subs:   make(map[string]map[int]func(Change)),
		log:    log,
	}
}

// Get returns the current value for key and whether it is present.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Float returns the value for key as a float64, or 0 if absent or
// non-numeric. Recognized float parameters are stored normalized, so this
// is loss-free for them.
func (s *Store) Float(key string) float64 {
	v, ok := s.Get(key)
	if !ok {
		return 0
	}
	f, _ := asFloat(v)
	return f
}

// Int returns the value for key as an int, or 0 if absent or non-integral.
func (s *Store) Int(key string) int {
	v, ok := s.Get(key)
	if !ok {
		return 0
	}
	n, _ := asInt(v)
	return n
}

// Set validates value against the recognized table and stores it. Returns
// false (state unchanged) on a failed validation. Unknown keys are stored
// as-is. Observers of the key are notified synchronously before Set returns.
func (s *Store) Set(key string, value any) bool {
	change, fns, ok := s.apply(key, value)
	if !ok {
		return false
	}
	s.notify(change, fns)
	return true
}

// ApplyBatch applies each entry with Set semantics. Invalid entries are
// skipped individually; one bad key never blocks the rest. Returns the
// accepted changes in key order.
func (s *Store) ApplyBatch(updates map[string]any) []Change {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var accepted []Change
	for _, k := range keys {
		change, fns, ok := s.apply(k, updates[k])
		if !ok {
			s.log.Warn("rejected parameter update", zap.String("key", k), zap.Any("value", updates[k]))
			continue
		}
		s.notify(change, fns)
		accepted = append(accepted, change)
	}
	return accepted
}

// Reset restores every recognized parameter to its default, emitting a
// Change for each value that actually differs. Unknown keys are removed.
func (s *Store) Reset() []Change {
	s.mu.Lock()
	var changes []Change
	var pending [][]func(Change)
	for key, spec := range recognized {
		old := s.values[key]
		if old == spec.def {
			continue
		}
		s.values[key] = spec.def
		changes = append(changes, Change{Key: key, Old: old, New: spec.def})
		pending = append(pending, s.observersLocked(key))
	}
	for key := range s.values {
		if _, ok := recognized[key]; !ok {
			delete(s.values, key)
		}
	}
	s.mu.Unlock()

	for i, c := range changes {
		s.notify(c, pending[i])
	}
	return changes
}

// Snapshot returns a copy of the current parameter set. Mutating the
// returned map does not affect the store.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]any, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// OnChange subscribes fn to accepted mutations of key and returns a
// subscription id for OffChange. Callbacks run synchronously inside
// Set/ApplyBatch; a panicking callback is recovered and logged without
// aborting the remaining notifications.
func (s *Store) OnChange(key string, fn func(Change)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func(Change))
	}
	s.subs[key][id] = fn
	return id
}

// OffChange removes the subscription registered under id for key.
func (s *Store) OffChange(key string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[key], id)
}

// apply validates and stores one entry, returning the change and the
// observer callbacks to invoke after the lock is released.
func (s *Store) apply(key string, value any) (Change, []func(Change), bool) {
	stored := value
	if spec, known := recognized[key]; known {
		normalized, ok := spec.validate(value)
		if !ok {
			return Change{}, nil, false
		}
		stored = normalized
	}

	s.mu.Lock()
	old := s.values[key]
	s.values[key] = stored
	fns := s.observersLocked(key)
	s.mu.Unlock()

	return Change{Key: key, Old: old, New: stored}, fns, true
}

func (s *Store) observersLocked(key string) []func(Change) {
	subs := s.subs[key]
	if len(subs) == 0 {
		return nil
	}
	fns := make([]func(Change), 0, len(subs))
	for _, fn := range subs {
		fns = append(fns, fn)
	}
	return fns
}

func (s *Store) notify(c Change, fns []func(Change)) {
	for _, fn := range fns {
		s.invoke(c, fn)
	}
}

func (s *Store) invoke(c Change, fn func(Change)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("parameter observer panicked",
				zap.String("key", c.Key),
				zap.Any("panic", r))
		}
	}()
	fn(c)
}
