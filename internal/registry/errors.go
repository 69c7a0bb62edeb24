package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/stepwire/internal/ir"
)

// Sentinel errors. Typed errors below unwrap to one of these.
var (
	ErrDuplicateSpecification = errors.New("duplicate specification")
	ErrInvalidSpecification   = errors.New("invalid specification")
	ErrUnknownStepType        = errors.New("unknown step type")
	ErrRegistryFrozen         = errors.New("registry is frozen")
)

// SpecificationError reports a rejected registration.
type SpecificationError struct {
	Kind     error // ErrDuplicateSpecification or ErrInvalidSpecification
	StepType string
	Problems []ValidationError
}

func (e *SpecificationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.StepType)
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.StepType, strings.Join(msgs, "; "))
}

func (e *SpecificationError) Unwrap() error { return e.Kind }

// Diagnostics renders the error as structured records.
func (e *SpecificationError) Diagnostics() []ir.Diagnostic {
	if errors.Is(e.Kind, ErrDuplicateSpecification) {
		return []ir.Diagnostic{{
			Kind:        ir.KindDuplicateSpecification,
			Severity:    ir.SeverityCritical,
			StepType:    e.StepType,
			Message:     fmt.Sprintf("step type %q is already registered", e.StepType),
			Remediation: "remove the second declaration or give it a distinct step type",
		}}
	}
	out := make([]ir.Diagnostic, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = ir.Diagnostic{
			Kind:     ir.KindInvalidSpecification,
			Severity: ir.SeverityCritical,
			StepType: e.StepType,
			Slot:     p.Field,
			Message:  p.Message,
			Details:  map[string]string{"code": p.Code},
		}
	}
	return out
}

// UnknownStepTypeError reports a lookup miss.
type UnknownStepTypeError struct {
	StepType  string
	Available []string
}

func (e *UnknownStepTypeError) Error() string {
	return fmt.Sprintf("unknown step type %q (%d registered)", e.StepType, len(e.Available))
}

func (e *UnknownStepTypeError) Unwrap() error { return ErrUnknownStepType }

// Diagnostics renders the error as structured records.
func (e *UnknownStepTypeError) Diagnostics() []ir.Diagnostic {
	return []ir.Diagnostic{{
		Kind:        ir.KindUnknownStepType,
		Severity:    ir.SeverityCritical,
		StepType:    e.StepType,
		Message:     e.Error(),
		Remediation: "register a specification for this step type",
		Details:     map[string]string{"available": strings.Join(e.Available, ",")},
	}}
}
