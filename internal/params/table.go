package params

// Recognized parameter keys. These are the wire names used in config
// payloads and the admin API, so they stay camelCase.
const (
	KeyDecayFactor      = "decayFactor"
	KeyNoiseFloor       = "noiseFloor"
	KeyBatchSize        = "batchSize"
	KeyUpdateIntervalMs = "updateIntervalMs"
	KeyMaxTensions      = "maxTensions"
)

// A validator normalizes a candidate value to its canonical Go type and
// reports whether it passes the range rule for its key.
type validator func(v any) (any, bool)

type paramSpec struct {
	def      any
	validate validator
}

// The recognized table is fixed at compile time. Keys not present here
// pass through Set/ApplyBatch unvalidated — deliberate, so newer config
// payloads can carry keys an older binary doesn't know about yet.
var recognized = map[string]paramSpec{
	KeyDecayFactor:      {def: 0.95, validate: unitInterval},
	KeyNoiseFloor:       {def: 0.01, validate: unitInterval},
	KeyBatchSize:        {def: 64, validate: powerOfTwo},
	KeyUpdateIntervalMs: {def: 100, validate: intRange(1, 1000)},
	KeyMaxTensions:      {def: 65536, validate: intRange(1, 10_000_000)},
}

// Defaults returns a fresh copy of the built-in parameter defaults.
func Defaults() map[string]any {
	m := make(map[string]any, len(recognized))
	for k, spec := range recognized {
		m[k] = spec.def
	}
	return m
}

// asFloat accepts the numeric types that JSON and YAML decoders produce.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		// JSON has no integer type; accept integral floats only.
		if n == float64(int(n)) {
			return int(n), true
		}
	case float32:
		if n == float32(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func unitInterval(v any) (any, bool) {
	f, ok := asFloat(v)
	if !ok || f < 0 || f > 1 {
		return nil, false
	}
	return f, true
}

func powerOfTwo(v any) (any, bool) {
	n, ok := asInt(v)
	if !ok || n <= 0 || n&(n-1) != 0 {
		return nil, false
	}
	return n, true
}

func intRange(lo, hi int) validator {
	return func(v any) (any, bool) {
		n, ok := asInt(v)
		if !ok || n < lo || n > hi {
			return nil, false
		}
		return n, true
	}
}
