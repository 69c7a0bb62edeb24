package ir

// Severity grades a finding. ERROR and CRITICAL block; INFO and WARNING do not.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Blocking reports whether the severity fails the check it belongs to.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Rank orders severities from INFO (0) to CRITICAL (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// DiagnosticKind classifies a Diagnostic record.
type DiagnosticKind string

const (
	KindInvalidGraph           DiagnosticKind = "invalid_graph"
	KindCycle                  DiagnosticKind = "cycle"
	KindUnknownStepType        DiagnosticKind = "unknown_step_type"
	KindUnresolvedName         DiagnosticKind = "unresolved_canonical_name"
	KindUnresolvedDependency   DiagnosticKind = "unresolved_dependency"
	KindEdgeInconsistency      DiagnosticKind = "edge_inconsistency"
	KindAmbiguousBinding       DiagnosticKind = "ambiguous_binding"
	KindLowConfidence          DiagnosticKind = "low_confidence"
	KindDuplicateSpecification DiagnosticKind = "duplicate_specification"
	KindInvalidSpecification   DiagnosticKind = "invalid_specification"
)

// Diagnostic is a structured record for a diagnostics sink.
// Nothing in the core renders these; the CLI does.
type Diagnostic struct {
	Kind        DiagnosticKind    `json:"kind"`
	Severity    Severity          `json:"severity"`
	Node        string            `json:"node,omitempty"`
	StepType    string            `json:"step_type,omitempty"`
	Slot        string            `json:"slot,omitempty"`
	Message     string            `json:"message"`
	Remediation string            `json:"remediation,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}
