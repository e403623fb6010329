package cli

import (
	"testing"
)

func TestParseSetFlags(t *testing.T) {
	updates, err := parseSetFlags([]string{
		"decayFactor=0.9",
		"batchSize=32",
		"experimentalMode=turbo",
		"enabled=true",
	})
	if err != nil {
		t.Fatalf("parseSetFlags: %v", err)
	}

	if updates["decayFactor"] != 0.9 {
		t.Errorf("decayFactor = %v (%T), want float64 0.9", updates["decayFactor"], updates["decayFactor"])
	}
	if updates["batchSize"] != 32 {
		t.Errorf("batchSize = %v (%T), want int 32", updates["batchSize"], updates["batchSize"])
	}
	if updates["experimentalMode"] != "turbo" {
		t.Errorf("experimentalMode = %v, want turbo", updates["experimentalMode"])
	}
	if updates["enabled"] != true {
		t.Errorf("enabled = %v, want true", updates["enabled"])
	}
}

func TestParseSetFlagsRejectsMalformedPair(t *testing.T) {
	for _, pair := range []string{"decayFactor", "=0.9", ""} {
		if _, err := parseSetFlags([]string{pair}); err == nil {
			t.Errorf("parseSetFlags(%q): expected error", pair)
		}
	}
}
