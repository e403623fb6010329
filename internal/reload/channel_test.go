package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/brendadeeznuts1111/lattice/internal/params"
)

func testChannel(t *testing.T) (*Channel, *params.Store, string) {
	t.Helper()
	store := params.New(nil)
	path := filepath.Join(t.TempDir(), "lattice.yaml")
	return New(store, nil, path), store, path
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"yaml flat", "decayFactor: 0.9\nbatchSize: 32\n", false},
		{"json flat", `{"decayFactor": 0.9, "batchSize": 32}`, false},
		{"empty", "", false},
		{"invalid syntax", "decayFactor: [unclosed", true},
		{"nested map", "decayFactor:\n  nested: true\n", true},
		{"list value", "decayFactor: [1, 2]\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReloadNowAppliesPayload(t *testing.T) {
	ch, store, path := testChannel(t)

	require.NoError(t, WriteConfig(path, map[string]any{
		"decayFactor": 0.8,
		"batchSize":   32,
	}))
	require.NoError(t, ch.ReloadNow())

	assert.Equal(t, 0.8, store.Float(params.KeyDecayFactor))
	assert.Equal(t, 32, store.Int(params.KeyBatchSize))
}

func TestReloadNowSkipsWhileWriterMidProtocol(t *testing.T) {
	ch, store, path := testChannel(t)

	// A half-written canonical file plus a live temp file simulates a
	// torn write: the reader must skip the cycle entirely.
	require.NoError(t, os.WriteFile(path, []byte(`{"decayFactor": 0.`), 0o644))
	require.NoError(t, os.WriteFile(path+tmpSuffix, []byte("decayFactor: 0.5\n"), 0o644))

	require.NoError(t, ch.ReloadNow())
	assert.Equal(t, 0.95, store.Float(params.KeyDecayFactor), "torn read must not change parameters")

	// Writer finishes the protocol; the next cycle applies fully.
	require.NoError(t, os.Remove(path+tmpSuffix))
	require.NoError(t, WriteConfig(path, map[string]any{"decayFactor": 0.5, "noiseFloor": 0.02}))
	require.NoError(t, ch.ReloadNow())
	assert.Equal(t, 0.5, store.Float(params.KeyDecayFactor))
	assert.Equal(t, 0.02, store.Float(params.KeyNoiseFloor))
}

func TestReloadNowMalformedPayloadLeavesStoreUntouched(t *testing.T) {
	ch, store, path := testChannel(t)
	before := store.Snapshot()

	require.NoError(t, os.WriteFile(path, []byte("decayFactor: [broken"), 0o644))
	require.NoError(t, ch.ReloadNow(), "parse errors are recovered, not propagated")

	assert.Equal(t, before, store.Snapshot())
}

func TestReloadNowSemanticErrorsApplyPartially(t *testing.T) {
	ch, store, path := testChannel(t)

	// Syntactically valid, one semantically bad key: store-level partial
	// acceptance handles it.
	require.NoError(t, WriteConfig(path, map[string]any{
		"decayFactor": 0.7,
		"batchSize":   13,
	}))
	require.NoError(t, ch.ReloadNow())

	assert.Equal(t, 0.7, store.Float(params.KeyDecayFactor))
	assert.Equal(t, 64, store.Int(params.KeyBatchSize))
}

func TestDumpNowDoesNotMutate(t *testing.T) {
	ch, store, _ := testChannel(t)
	before := store.Snapshot()
	ch.DumpNow()
	assert.Equal(t, before, store.Snapshot())
}

func TestWatcherAppliesFileChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch, store, path := testChannel(t)
	require.True(t, store.Set(params.KeyUpdateIntervalMs, 10))

	require.NoError(t, ch.Start())
	defer ch.Stop()

	require.NoError(t, WriteConfig(path, map[string]any{"decayFactor": 0.33}))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.Float(params.KeyDecayFactor) == 0.33 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("decayFactor = %v, watcher never applied the new config", store.Float(params.KeyDecayFactor))
}

func TestStartIsIdempotent(t *testing.T) {
	ch, _, _ := testChannel(t)
	require.NoError(t, ch.Start())
	require.NoError(t, ch.Start())
	ch.Stop()
	ch.Stop()
}
