package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/stepwire/internal/ir"
)

// ErrRequiredDependencyUnresolved is returned when a required input slot
// has no candidate at or above the threshold.
var ErrRequiredDependencyUnresolved = errors.New("required dependency unresolved")

// UnresolvedDependencyError describes one unresolved required slot.
type UnresolvedDependencyError struct {
	Node              string
	StepType          string
	Slot              string
	Threshold         float64
	CompatibleSources []string
	Candidates        []ir.ScoredCandidate // best first
}

func (e *UnresolvedDependencyError) Error() string {
	best, ok := e.BestNearMiss()
	if !ok {
		return fmt.Sprintf("node %q: required dependency %q unresolved: no candidates", e.Node, e.Slot)
	}
	return fmt.Sprintf("node %q: required dependency %q unresolved: best %s.%s scored %.2f < %.2f",
		e.Node, e.Slot, best.Producer, best.Output, best.Score, e.Threshold)
}

func (e *UnresolvedDependencyError) Unwrap() error { return ErrRequiredDependencyUnresolved }

// BestNearMiss returns the highest-scoring rejected candidate.
func (e *UnresolvedDependencyError) BestNearMiss() (ir.ScoredCandidate, bool) {
	if len(e.Candidates) == 0 {
		return ir.ScoredCandidate{}, false
	}
	return e.Candidates[0], true
}

// Diagnostic renders the error as a structured record.
func (e *UnresolvedDependencyError) Diagnostic() ir.Diagnostic {
	d := ir.Diagnostic{
		Kind:     ir.KindUnresolvedDependency,
		Severity: ir.SeverityError,
		Node:     e.Node,
		StepType: e.StepType,
		Slot:     e.Slot,
		Message:  e.Error(),
		Details: map[string]string{
			"threshold":  fmt.Sprintf("%.2f", e.Threshold),
			"candidates": fmt.Sprintf("%d", len(e.Candidates)),
		},
	}
	if len(e.CompatibleSources) > 0 {
		d.Details["compatible_sources"] = strings.Join(e.CompatibleSources, ",")
		d.Remediation = fmt.Sprintf("add an upstream step of type %s or declare an alias for %q",
			strings.Join(e.CompatibleSources, " or "), e.Slot)
	} else {
		d.Remediation = fmt.Sprintf("add an upstream step producing %q or declare a matching alias", e.Slot)
	}
	if best, ok := e.BestNearMiss(); ok {
		d.Details["best_candidate"] = fmt.Sprintf("%s.%s", best.Producer, best.Output)
		d.Details["best_score"] = fmt.Sprintf("%.2f", best.Score)
	}
	return d
}
