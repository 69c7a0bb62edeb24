package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/resolver"
)

// Sentinel errors. Typed errors below unwrap to one of these.
var (
	ErrInvalidGraph         = errors.New("invalid graph")
	ErrCyclicGraph          = errors.New("cyclic graph")
	ErrCompilationFailed    = errors.New("compilation failed")
	ErrCompilationCancelled = errors.New("compilation cancelled")
	ErrRegistryNotFrozen    = errors.New("registry must be frozen before compiling")
)

// Graph problem codes (G001-G099)
const (
	CodeNodeNameEmpty     = "G001" // node name is required
	CodeDuplicateNode     = "G002" // node names are unique within a graph
	CodeEdgeUnknownSource = "G003" // edge.from names no node
	CodeEdgeUnknownTarget = "G004" // edge.to names no node
	CodeStepTypeEmpty     = "G005" // node step type is required
)

// GraphProblem is one structural defect in the input graph.
type GraphProblem struct {
	Code    string   `json:"code"`
	Node    string   `json:"node,omitempty"`
	Edge    *ir.Edge `json:"edge,omitempty"`
	Message string   `json:"message"`
}

// GraphError reports every structural defect found in the input graph.
type GraphError struct {
	Problems []GraphProblem
}

func (e *GraphError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = fmt.Sprintf("[%s] %s", p.Code, p.Message)
	}
	return fmt.Sprintf("%v: %s", ErrInvalidGraph, strings.Join(msgs, "; "))
}

func (e *GraphError) Unwrap() error { return ErrInvalidGraph }

// Diagnostics renders the error as structured records.
func (e *GraphError) Diagnostics() []ir.Diagnostic {
	out := make([]ir.Diagnostic, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = ir.Diagnostic{
			Kind:     ir.KindInvalidGraph,
			Severity: ir.SeverityCritical,
			Node:     p.Node,
			Message:  p.Message,
			Details:  map[string]string{"code": p.Code},
		}
	}
	return out
}

// CycleError reports a cycle in the input graph.
type CycleError struct {
	// Path is the first cycle found by depth-first search, closed so that
	// the first and last names are equal: [a b c a].
	Path []string
	// Cycles lists one closed path per strongly connected component.
	Cycles [][]string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicGraph, strings.Join(e.Path, " → "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicGraph }

// Diagnostics renders the error as structured records.
func (e *CycleError) Diagnostics() []ir.Diagnostic {
	cycles := e.Cycles
	if len(cycles) == 0 {
		cycles = [][]string{e.Path}
	}
	out := make([]ir.Diagnostic, len(cycles))
	for i, c := range cycles {
		out[i] = ir.Diagnostic{
			Kind:        ir.KindCycle,
			Severity:    ir.SeverityCritical,
			Node:        c[0],
			Message:     "cycle: " + strings.Join(c, " → "),
			Remediation: "remove one of the edges in the cycle",
		}
	}
	return out
}

// NodeError wraps a failure to canonicalize or look up a node's step type.
type NodeError struct {
	Node     string
	StepType string
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q (step type %q): %v", e.Node, e.StepType, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Diagnostics renders the error as structured records.
func (e *NodeError) Diagnostics() []ir.Diagnostic {
	if out := DiagnosticsOf(e.Err); out != nil {
		for i := range out {
			out[i].Node = e.Node
		}
		return out
	}
	return []ir.Diagnostic{{
		Kind:        ir.KindUnresolvedName,
		Severity:    ir.SeverityCritical,
		Node:        e.Node,
		StepType:    e.StepType,
		Message:     e.Err.Error(),
		Remediation: "use a registered step type or register a specification for it",
	}}
}

// CompilationFailedError aggregates every unresolved required slot, and
// edge inconsistencies when the edge policy is EdgePolicyError.
type CompilationFailedError struct {
	Unresolved   []*resolver.UnresolvedDependencyError
	Inconsistent []ir.Diagnostic
}

func (e *CompilationFailedError) Error() string {
	var parts []string
	for _, u := range e.Unresolved {
		parts = append(parts, fmt.Sprintf("%s.%s", u.Node, u.Slot))
	}
	msg := fmt.Sprintf("%v: %d unresolved slot(s)", ErrCompilationFailed, len(e.Unresolved))
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}
	if len(e.Inconsistent) > 0 {
		msg += fmt.Sprintf("; %d edge inconsistenc(ies)", len(e.Inconsistent))
	}
	return msg
}

// Unwrap exposes the sentinel and every slot error to errors.Is/As.
func (e *CompilationFailedError) Unwrap() []error {
	errs := []error{ErrCompilationFailed}
	for _, u := range e.Unresolved {
		errs = append(errs, u)
	}
	return errs
}

// Diagnostics renders the error as structured records.
func (e *CompilationFailedError) Diagnostics() []ir.Diagnostic {
	var out []ir.Diagnostic
	for _, u := range e.Unresolved {
		out = append(out, u.Diagnostic())
	}
	return append(out, e.Inconsistent...)
}

// CancelledError reports a compilation stopped between nodes.
type CancelledError struct {
	Completed int    // nodes resolved before cancellation
	Next      string // node that was about to be resolved
	Cause     error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%v after %d node(s), before %q: %v", ErrCompilationCancelled, e.Completed, e.Next, e.Cause)
}

// Unwrap exposes both ErrCompilationCancelled and the context error.
func (e *CancelledError) Unwrap() []error {
	return []error{ErrCompilationCancelled, e.Cause}
}

// DiagnosticsOf returns the structured records carried by err, or nil when
// err has none.
func DiagnosticsOf(err error) []ir.Diagnostic {
	var withDiags interface{ Diagnostics() []ir.Diagnostic }
	if errors.As(err, &withDiags) {
		return withDiags.Diagnostics()
	}
	return nil
}
