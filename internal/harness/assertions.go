package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/stepwire/internal/alignment"
	"github.com/roach88/stepwire/internal/compiler"
	"github.com/roach88/stepwire/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // assertion type
	Expected string // human-readable expected outcome
	Actual   string // human-readable actual outcome
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// outcome is the mode-independent view assertions read.
type outcome struct {
	order       []string
	bindings    []ir.ResolvedBinding
	diagnostics []ir.Diagnostic
	err         error
	alignment   *alignment.Report
}

func outcomeOf(r *Result) outcome {
	o := outcome{err: r.Err, alignment: r.Alignment}
	switch {
	case r.Plan != nil:
		o.order = r.Plan.NodeNames()
		o.bindings = r.Plan.Bindings
		o.diagnostics = r.Plan.Diagnostics
	case r.Preview != nil:
		for _, n := range r.Preview.Nodes {
			o.order = append(o.order, n.Node.Name)
			for _, s := range n.Slots {
				if s.Binding != nil {
					o.bindings = append(o.bindings, *s.Binding)
				}
			}
		}
		o.diagnostics = append(slices.Clone(r.Preview.Unresolved), r.Preview.Diagnostics...)
	}
	if r.Err != nil {
		o.diagnostics = append(o.diagnostics, compiler.DiagnosticsOf(r.Err)...)
	}
	return o
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	o := outcomeOf(r)
	var failures []string
	for i, a := range assertions {
		if err := evaluate(o, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(o outcome, a Assertion) error {
	// Everything but fails needs a successful run.
	if o.err != nil && a.Type != AssertFails && a.Type != AssertDiagnostic {
		return &AssertionError{Type: a.Type, Expected: "successful compilation", Actual: o.err.Error()}
	}

	switch a.Type {
	case AssertSucceeds:
		return nil
	case AssertFails:
		return assertFails(o, a)
	case AssertOrder:
		return assertOrder(o, a)
	case AssertBinding:
		return assertBinding(o, a)
	case AssertUnbound:
		if b, ok := findBinding(o.bindings, a.Consumer, a.Input); ok {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s.%s unbound", a.Consumer, a.Input),
				Actual:   fmt.Sprintf("bound to %s.%s", b.Producer, b.Output),
			}
		}
		return nil
	case AssertBindingCount:
		if len(o.bindings) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d binding(s)", a.Count),
				Actual:   fmt.Sprintf("%d binding(s)", len(o.bindings)),
			}
		}
		return nil
	case AssertDiagnostic:
		return assertDiagnostic(o, a)
	case AssertLevel:
		return assertLevel(o, a)
	case AssertRating:
		if o.alignment.Score.Rating != a.Rating {
			return &AssertionError{
				Type:     a.Type,
				Expected: a.Rating,
				Actual:   fmt.Sprintf("%s (%.1f)", o.alignment.Score.Rating, o.alignment.Score.Overall),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertFails(o outcome, a Assertion) error {
	if o.err == nil {
		return &AssertionError{Type: a.Type, Expected: "compilation error", Actual: "succeeded"}
	}
	if a.Kind == "" {
		return nil
	}
	for _, d := range o.diagnostics {
		if string(d.Kind) == a.Kind {
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Expected: "error of kind " + a.Kind, Actual: o.err.Error()}
}

func assertOrder(o outcome, a Assertion) error {
	if !slices.Equal(o.order, a.Nodes) {
		return &AssertionError{
			Type:     a.Type,
			Expected: strings.Join(a.Nodes, " → "),
			Actual:   strings.Join(o.order, " → "),
		}
	}
	return nil
}

func assertBinding(o outcome, a Assertion) error {
	b, ok := findBinding(o.bindings, a.Consumer, a.Input)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s bound", a.Consumer, a.Input),
			Actual:   "unbound",
		}
	}
	if (a.Producer != "" && b.Producer != a.Producer) || (a.Output != "" && b.Output != a.Output) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s.%s ← %s.%s", a.Consumer, a.Input, or(a.Producer, "*"), or(a.Output, "*")),
			Actual:   fmt.Sprintf("%s.%s ← %s.%s", b.Consumer, b.Input, b.Producer, b.Output),
		}
	}
	if b.Confidence < a.MinConfidence {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("confidence ≥ %.2f", a.MinConfidence),
			Actual:   fmt.Sprintf("confidence %.2f", b.Confidence),
		}
	}
	return nil
}

func assertDiagnostic(o outcome, a Assertion) error {
	for _, d := range o.diagnostics {
		if string(d.Kind) != a.Kind {
			continue
		}
		if a.Severity != "" && string(d.Severity) != a.Severity {
			continue
		}
		if a.Node != "" && d.Node != a.Node {
			continue
		}
		return nil
	}
	kinds := make([]string, len(o.diagnostics))
	for i, d := range o.diagnostics {
		kinds[i] = fmt.Sprintf("%s/%s", d.Kind, d.Severity)
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("diagnostic %s (severity %q, node %q)", a.Kind, a.Severity, a.Node),
		Actual:   "[" + strings.Join(kinds, ", ") + "]",
	}
}

func assertLevel(o outcome, a Assertion) error {
	step, ok := o.alignment.Step(a.StepType)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "report for " + a.StepType, Actual: "not validated"}
	}
	level := alignment.Level(a.Level)
	res, ok := step.Level(level)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: level.String(), Actual: "level missing"}
	}
	if res.Passed != *a.Passed {
		var msgs []string
		for _, f := range res.Findings {
			msgs = append(msgs, fmt.Sprintf("%s: %s", f.Severity, f.Message))
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s %s passed=%t", a.StepType, level, *a.Passed),
			Actual:   fmt.Sprintf("passed=%t [%s]", res.Passed, strings.Join(msgs, "; ")),
		}
	}
	return nil
}

func findBinding(bindings []ir.ResolvedBinding, consumer, input string) (ir.ResolvedBinding, bool) {
	for _, b := range bindings {
		if b.Consumer == consumer && b.Input == input {
			return b, true
		}
	}
	return ir.ResolvedBinding{}, false
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
