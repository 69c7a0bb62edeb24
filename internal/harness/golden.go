package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stepwire/internal/ir"
)

// Snapshot is the canonical, run-ID-free form of a compile outcome.
// Failed compilations snapshot their diagnostics instead of a plan.
func Snapshot(r *Result) ([]byte, error) {
	if r.Plan != nil {
		return ir.MarshalCanonical(ir.PlanCanonicalForm(r.Plan))
	}
	if r.Err == nil {
		return nil, fmt.Errorf("no plan and no error to snapshot")
	}

	diags := outcomeOf(r).diagnostics
	list := make([]any, len(diags))
	for i, d := range diags {
		entry := map[string]any{
			"kind":     string(d.Kind),
			"severity": string(d.Severity),
		}
		if d.Node != "" {
			entry["node"] = d.Node
		}
		if d.Slot != "" {
			entry["slot"] = d.Slot
		}
		list[i] = entry
	}
	return ir.MarshalCanonical(map[string]any{"failed": true, "diagnostics": list})
}

// RunWithGolden runs a compile-mode scenario and compares its snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	snapshot, err := Snapshot(result)
	if err != nil {
		return result, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)
	return result, nil
}
