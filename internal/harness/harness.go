// Package harness drives the parameter store, decay engine, and reload
// channel through a fixed list of end-to-end scenarios and reports
// pass/fail plus throughput. `lattice check` runs it to gate deploys.
package harness

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name       string         `json:"name"`
	Passed     bool           `json:"passed"`
	DurationMs float64        `json:"duration_ms"`
	Details    map[string]any `json:"details,omitempty"`
}

// Report aggregates a full harness run.
type Report struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Total     int              `json:"total"`
	TimeMs    float64          `json:"time_ms"`
}

// Failed reports whether any scenario failed.
func (r Report) Failed() bool {
	return r.Passed != r.Total
}

// Harness runs the scenario list. Each scenario builds its own store and
// engine so failures never bleed across scenarios.
type Harness struct {
	log *zap.Logger
}

// New creates a Harness.
func New(log *zap.Logger) *Harness {
	if log == nil {
		log = zap.NewNop()
	}
	return &Harness{log: log}
}

// Run executes every scenario and returns the aggregated report. A
// cancelled context stops the run between scenarios.
func (h *Harness) Run(ctx context.Context) Report {
	start := time.Now()
	report := Report{Total: len(scenarios)}

	for _, sc := range scenarios {
		if ctx.Err() != nil {
			report.Scenarios = append(report.Scenarios, ScenarioResult{
				Name:    sc.name,
				Details: map[string]any{"error": "run cancelled"},
			})
			continue
		}

		scStart := time.Now()
		passed, details := h.guard(ctx, sc)
		res := ScenarioResult{
			Name:       sc.name,
			Passed:     passed,
			DurationMs: float64(time.Since(scStart).Microseconds()) / 1000.0,
			Details:    details,
		}
		report.Scenarios = append(report.Scenarios, res)
		if passed {
			report.Passed++
			h.log.Info("scenario passed", zap.String("scenario", sc.name), zap.Float64("ms", res.DurationMs))
		} else {
			h.log.Warn("scenario failed", zap.String("scenario", sc.name), zap.Any("details", details))
		}
	}

	report.TimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	return report
}

// guard runs one scenario with panic containment; a panicking scenario is
// a failure, not a crashed harness.
func (h *Harness) guard(ctx context.Context, sc scenario) (passed bool, details map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			passed = false
			details = map[string]any{"panic": r}
		}
	}()
	return sc.run(ctx, h.log)
}
