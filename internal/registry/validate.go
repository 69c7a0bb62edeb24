package registry

import (
	"fmt"
	"strings"

	"github.com/roach88/stepwire/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrCodeStepTypeEmpty     = "E101" // step type is required
	ErrCodeStepTypeMismatch  = "E102" // spec.StepType differs from registration key
	ErrCodeDuplicateInput    = "E103" // duplicate dependency logical name or alias
	ErrCodeDuplicateOutput   = "E104" // duplicate output logical name or alias
	ErrCodeLogicalNameEmpty  = "E105" // slot logical name is required
	ErrCodeSemanticTypeEmpty = "E106" // slot semantic type is required
	ErrCodeInvalidNodeType   = "E107" // unknown node type
	ErrCodeSourceHasInputs   = "E108" // source nodes declare no dependencies
	ErrCodeSinkHasOutputs    = "E109" // sink nodes declare no outputs
	ErrCodeInternalShape     = "E110" // internal nodes need dependencies and outputs
	ErrCodeSingularShape     = "E111" // singular nodes declare neither
	ErrCodeSpecMissing       = "E112" // no specification given
)

// ValidationError represents one specification well-formedness problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a specification registered under stepType.
// Returns all problems found (does not fail-fast).
func Validate(stepType string, spec *ir.StepSpecification) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(stepType) == "" {
		errs = append(errs, ValidationError{
			Field:   "step_type",
			Message: "step type is required and must be non-empty",
			Code:    ErrCodeStepTypeEmpty,
		})
	}
	if spec == nil {
		return append(errs, ValidationError{
			Field:   "specification",
			Message: "specification is required",
			Code:    ErrCodeSpecMissing,
		})
	}
	if spec.StepType != "" && spec.StepType != stepType {
		errs = append(errs, ValidationError{
			Field:   "step_type",
			Message: fmt.Sprintf("specification declares %q but is registered as %q", spec.StepType, stepType),
			Code:    ErrCodeStepTypeMismatch,
		})
	}

	errs = append(errs, validateNodeType(spec)...)

	inputNames := make(map[string]string)
	for i, dep := range spec.Dependencies {
		field := fmt.Sprintf("dependencies[%d]", i)
		errs = append(errs, validateSlot(field, dep.LogicalName, dep.Type)...)
		errs = append(errs, claimNames(inputNames, field, ErrCodeDuplicateInput, dep.LogicalName, dep.Aliases)...)
	}

	outputNames := make(map[string]string)
	for i, out := range spec.Outputs {
		field := fmt.Sprintf("outputs[%d]", i)
		errs = append(errs, validateSlot(field, out.LogicalName, out.Type)...)
		errs = append(errs, claimNames(outputNames, field, ErrCodeDuplicateOutput, out.LogicalName, out.Aliases)...)
	}

	return errs
}

func validateSlot(field, name string, typ ir.SemanticType) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(name) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".logical_name",
			Message: "logical name is required",
			Code:    ErrCodeLogicalNameEmpty,
		})
	}
	if strings.TrimSpace(string(typ)) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".type",
			Message: fmt.Sprintf("slot %q has no semantic type", name),
			Code:    ErrCodeSemanticTypeEmpty,
		})
	}
	return errs
}

// claimNames records a slot's logical name and aliases in seen, reporting
// any name already claimed by an earlier slot on the same side.
func claimNames(seen map[string]string, field, code, name string, aliases []string) []ValidationError {
	var errs []ValidationError
	for _, n := range append([]string{name}, aliases...) {
		if n == "" {
			continue
		}
		if owner, ok := seen[n]; ok && owner != field {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("name %q already used by %s", n, owner),
				Code:    code,
			})
			continue
		}
		seen[n] = field
	}
	return errs
}

func validateNodeType(spec *ir.StepSpecification) []ValidationError {
	if spec.NodeType == "" {
		return nil
	}
	if !ir.ValidNodeTypes[spec.NodeType] {
		return []ValidationError{{
			Field:   "node_type",
			Message: fmt.Sprintf("invalid node type %q: must be source, internal, sink, or singular", spec.NodeType),
			Code:    ErrCodeInvalidNodeType,
		}}
	}

	hasDeps := len(spec.Dependencies) > 0
	hasOuts := len(spec.Outputs) > 0
	switch spec.NodeType {
	case ir.NodeSource:
		if hasDeps {
			return []ValidationError{{Field: "dependencies", Message: "source nodes cannot declare dependencies", Code: ErrCodeSourceHasInputs}}
		}
	case ir.NodeSink:
		if hasOuts {
			return []ValidationError{{Field: "outputs", Message: "sink nodes cannot declare outputs", Code: ErrCodeSinkHasOutputs}}
		}
	case ir.NodeInternal:
		if !hasDeps || !hasOuts {
			return []ValidationError{{Field: "node_type", Message: "internal nodes need at least one dependency and one output", Code: ErrCodeInternalShape}}
		}
	case ir.NodeSingular:
		if hasDeps || hasOuts {
			return []ValidationError{{Field: "node_type", Message: "singular nodes cannot declare dependencies or outputs", Code: ErrCodeSingularShape}}
		}
	}
	return nil
}
