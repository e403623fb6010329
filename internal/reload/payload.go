package reload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const tmpSuffix = ".tmp"

// ParsePayload decodes a config payload into a flat key→value mapping.
// YAML is a superset of JSON, so both `{"decayFactor": 0.9}` and plain
// `decayFactor: 0.9` files work. Nested structures are rejected here, at
// the parse level, before anything reaches the store.
func ParsePayload(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	for k, v := range m {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("parse payload: key %q is not a flat value", k)
		}
	}
	return m, nil
}

// WriteConfig writes payload to path using the atomic update protocol:
// write to <path>.tmp, then rename into place. Readers following
// ReloadNow's skip rule never observe a half-written payload.
func WriteConfig(path string, payload map[string]any) error {
	data, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	tmp := path + tmpSuffix
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename config into place: %w", err)
	}
	return nil
}
