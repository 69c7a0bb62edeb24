package alignment

import (
	"fmt"

	"github.com/roach88/stepwire/internal/ir"
)

// checkContractSpec checks logical names in both directions, honouring
// aliases on the specification side.
func (v *Validator) checkContractSpec(stepType string, spec *ir.StepSpecification) LevelResult {
	contract, ok := v.index.contracts[stepType]
	if !ok {
		return skippedLevel(LevelContractSpec, stepType, "contract")
	}

	var findings []Finding
	add := func(sev ir.Severity, category, msg, rec string, details map[string]string) {
		details["contract"] = contract.Name
		findings = append(findings, Finding{
			Level:          LevelContractSpec,
			Severity:       sev,
			Category:       category,
			StepType:       stepType,
			Message:        msg,
			Recommendation: rec,
			Details:        details,
		})
	}

	for _, in := range contract.Inputs {
		dep, ok := spec.Dependency(in.LogicalName)
		if !ok {
			add(ir.SeverityError, CategoryLogicalNames,
				fmt.Sprintf("contract input %s is not a dependency of the specification", in.LogicalName),
				fmt.Sprintf("declare dependency %q or an alias for it", in.LogicalName),
				map[string]string{"logical_name": in.LogicalName, "path": in.Path})
			continue
		}
		if in.DataType != "" && dep.DataType != "" && in.DataType != dep.DataType {
			add(ir.SeverityWarning, CategoryDataType,
				fmt.Sprintf("data type mismatch for input %s: contract=%s, specification=%s", in.LogicalName, in.DataType, dep.DataType),
				"align the data types", map[string]string{"logical_name": in.LogicalName})
		}
	}
	for _, out := range contract.Outputs {
		spOut, ok := spec.Output(out.LogicalName)
		if !ok {
			add(ir.SeverityError, CategoryLogicalNames,
				fmt.Sprintf("contract output %s is not an output of the specification", out.LogicalName),
				fmt.Sprintf("declare output %q or an alias for it", out.LogicalName),
				map[string]string{"logical_name": out.LogicalName, "path": out.Path})
			continue
		}
		if out.DataType != "" && spOut.DataType != "" && out.DataType != spOut.DataType {
			add(ir.SeverityWarning, CategoryDataType,
				fmt.Sprintf("data type mismatch for output %s: contract=%s, specification=%s", out.LogicalName, out.DataType, spOut.DataType),
				"align the data types", map[string]string{"logical_name": out.LogicalName})
		}
	}

	for _, dep := range spec.Dependencies {
		if !hasPath(contract.Inputs, dep.Matches) {
			add(ir.SeverityWarning, CategoryLogicalNames,
				fmt.Sprintf("dependency %s has no contract input", dep.LogicalName),
				fmt.Sprintf("add input %q to the contract", dep.LogicalName),
				map[string]string{"logical_name": dep.LogicalName})
		}
	}
	for _, out := range spec.Outputs {
		if !hasPath(contract.Outputs, out.Matches) {
			add(ir.SeverityWarning, CategoryLogicalNames,
				fmt.Sprintf("output %s has no contract output", out.LogicalName),
				fmt.Sprintf("add output %q to the contract", out.LogicalName),
				map[string]string{"logical_name": out.LogicalName})
		}
	}

	return newLevelResult(LevelContractSpec, findings)
}

func hasPath(paths []ContractPath, matches func(string) bool) bool {
	for _, p := range paths {
		if matches(p.LogicalName) {
			return true
		}
	}
	return false
}
