package alignment

import (
	"fmt"

	"github.com/roach88/stepwire/internal/ir"
)

// Level identifies one alignment check.
type Level int

const (
	LevelScriptContract   Level = 1
	LevelContractSpec     Level = 2
	LevelSpecDependencies Level = 3
	LevelBuilderConfig    Level = 4
)

// Levels lists every level in check order.
var Levels = []Level{LevelScriptContract, LevelContractSpec, LevelSpecDependencies, LevelBuilderConfig}

var levelNames = map[Level]string{
	LevelScriptContract:   "script_contract",
	LevelContractSpec:     "contract_specification",
	LevelSpecDependencies: "specification_dependencies",
	LevelBuilderConfig:    "builder_configuration",
}

// levelWeights make later levels count more in the overall score.
var levelWeights = map[Level]float64{
	LevelScriptContract:   1.0,
	LevelContractSpec:     1.5,
	LevelSpecDependencies: 2.0,
	LevelBuilderConfig:    2.5,
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return fmt.Sprintf("L%d %s", int(l), name)
	}
	return fmt.Sprintf("L%d", int(l))
}

// Weight returns the level's weight in the overall score.
func (l Level) Weight() float64 { return levelWeights[l] }

// Finding categories.
const (
	CategoryMissingArtifact = "missing_artifact"
	CategoryNaming          = "naming"
	CategoryPathUsage       = "path_usage"
	CategoryEnvironment     = "environment_variables"
	CategoryArguments       = "arguments"
	CategoryLogicalNames    = "logical_names"
	CategoryDataType        = "data_type"
	CategoryDependency      = "dependency_resolution"
	CategoryCycle           = "circular_dependency"
	CategoryConfigFields    = "configuration_fields"
)

// Finding is one alignment issue.
type Finding struct {
	Level          Level             `json:"level"`
	Severity       ir.Severity       `json:"severity"`
	Category       string            `json:"category"`
	StepType       string            `json:"step_type"`
	Message        string            `json:"message"`
	Recommendation string            `json:"recommendation,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}

// Diagnostic converts the finding into a record for a diagnostics sink.
func (f Finding) Diagnostic() ir.Diagnostic {
	details := map[string]string{"level": f.Level.String(), "category": f.Category}
	for k, v := range f.Details {
		details[k] = v
	}
	return ir.Diagnostic{
		Kind:        ir.DiagnosticKind("alignment_" + f.Category),
		Severity:    f.Severity,
		StepType:    f.StepType,
		Message:     f.Message,
		Remediation: f.Recommendation,
		Details:     details,
	}
}

// LevelResult is the outcome of one level for one step type. A level
// passes when it has no ERROR or CRITICAL finding. Skipped levels pass.
type LevelResult struct {
	Level    Level     `json:"level"`
	Passed   bool      `json:"passed"`
	Skipped  bool      `json:"skipped,omitempty"`
	Findings []Finding `json:"findings,omitempty"`
}

func newLevelResult(level Level, findings []Finding) LevelResult {
	r := LevelResult{Level: level, Passed: true, Findings: findings}
	for _, f := range findings {
		if f.Severity.Blocking() {
			r.Passed = false
			break
		}
	}
	return r
}

func skippedLevel(level Level, stepType, missing string) LevelResult {
	return LevelResult{
		Level:   level,
		Passed:  true,
		Skipped: true,
		Findings: []Finding{{
			Level:    level,
			Severity: ir.SeverityInfo,
			Category: CategoryMissingArtifact,
			StepType: stepType,
			Message:  fmt.Sprintf("no %s for %s; level skipped", missing, stepType),
		}},
	}
}

// MaxSeverity returns the most severe finding's severity, or INFO.
func (r LevelResult) MaxSeverity() ir.Severity {
	worst := ir.SeverityInfo
	for _, f := range r.Findings {
		if f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	return worst
}

// StepReport holds all four level results for one step type.
type StepReport struct {
	StepType string        `json:"step_type"`
	Levels   []LevelResult `json:"levels"`
}

// Passed reports whether every level passed.
func (s StepReport) Passed() bool {
	for _, l := range s.Levels {
		if !l.Passed {
			return false
		}
	}
	return true
}

// Level returns the result for l.
func (s StepReport) Level(l Level) (LevelResult, bool) {
	for _, r := range s.Levels {
		if r.Level == l {
			return r, true
		}
	}
	return LevelResult{}, false
}

// Findings returns every finding across levels in level order.
func (s StepReport) Findings() []Finding {
	var out []Finding
	for _, l := range s.Levels {
		out = append(out, l.Findings...)
	}
	return out
}

// Report is the alignment result for a set of step types.
type Report struct {
	Steps []StepReport `json:"steps"`
	// Unmatched holds findings for artifacts whose names match no step type.
	Unmatched []Finding `json:"unmatched,omitempty"`
	Score     Score     `json:"score"`
}

// Passed reports whether every step passed and every artifact matched.
func (r *Report) Passed() bool {
	for _, s := range r.Steps {
		if !s.Passed() {
			return false
		}
	}
	for _, f := range r.Unmatched {
		if f.Severity.Blocking() {
			return false
		}
	}
	return true
}

// Step returns the report for stepType.
func (r *Report) Step(stepType string) (StepReport, bool) {
	for _, s := range r.Steps {
		if s.StepType == stepType {
			return s, true
		}
	}
	return StepReport{}, false
}

// Diagnostics flattens every non-INFO finding into diagnostic records.
func (r *Report) Diagnostics() []ir.Diagnostic {
	var out []ir.Diagnostic
	for _, f := range r.Unmatched {
		out = append(out, f.Diagnostic())
	}
	for _, s := range r.Steps {
		for _, f := range s.Findings() {
			if f.Severity != ir.SeverityInfo {
				out = append(out, f.Diagnostic())
			}
		}
	}
	return out
}
