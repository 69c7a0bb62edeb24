package alignment

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/stepwire/internal/ir"
)

// checkScriptContract compares what the script touches with what its
// contract declares.
func (v *Validator) checkScriptContract(stepType string) LevelResult {
	contract, ok := v.index.contracts[stepType]
	if !ok {
		return skippedLevel(LevelScriptContract, stepType, "contract")
	}
	script, ok := v.index.scripts[stepType]
	if !ok {
		return skippedLevel(LevelScriptContract, stepType, "script")
	}

	usage := ScanScript(script.Source, v.prefixes)
	finding := func(sev ir.Severity, category, msg, rec string, details map[string]string) Finding {
		if details == nil {
			details = map[string]string{}
		}
		details["script"] = script.Name
		return Finding{
			Level:          LevelScriptContract,
			Severity:       sev,
			Category:       category,
			StepType:       stepType,
			Message:        msg,
			Recommendation: rec,
			Details:        details,
		}
	}

	var findings []Finding
	findings = append(findings, checkPaths(contract, usage, finding)...)
	findings = append(findings, checkEnv(contract, usage, finding)...)
	findings = append(findings, checkArguments(contract, usage, finding)...)
	return newLevelResult(LevelScriptContract, findings)
}

type findingFunc func(sev ir.Severity, category, msg, rec string, details map[string]string) Finding

func checkPaths(contract *Contract, usage ScriptUsage, finding findingFunc) []Finding {
	var findings []Finding

	declared := make(map[string]string) // path → logical name
	for _, p := range slices.Concat(contract.Inputs, contract.Outputs) {
		declared[NormalizePath(p.Path)] = p.LogicalName
	}

	for _, used := range usage.Paths {
		if coveredBy(used, declared) != "" {
			continue
		}
		// A parent directory of a declared path, e.g. "/opt/ml/processing".
		if isParentOfDeclared(used, declared) {
			continue
		}
		details := map[string]string{"path": used}
		rec := fmt.Sprintf("add %s to the contract inputs or outputs", used)
		if name, ok := LogicalNameFromPath(used); ok {
			details["inferred_logical_name"] = name
			rec = fmt.Sprintf("add %s to the contract as %q", used, name)
		}
		findings = append(findings, finding(ir.SeverityError, CategoryPathUsage,
			fmt.Sprintf("script uses undeclared container path %s", used), rec, details))
	}

	for _, p := range slices.Sorted(maps.Keys(declared)) {
		used := slices.ContainsFunc(usage.Paths, func(u string) bool {
			return pathCovers(p, u)
		})
		if !used {
			findings = append(findings, finding(ir.SeverityWarning, CategoryPathUsage,
				fmt.Sprintf("contract declares %s (%s) but the script never references it", p, declared[p]),
				fmt.Sprintf("use %s in the script or remove it from the contract", p),
				map[string]string{"path": p, "logical_name": declared[p]}))
		}
	}
	return findings
}

// coveredBy returns the declared path that used falls under, or "".
func coveredBy(used string, declared map[string]string) string {
	for p := range declared {
		if pathCovers(p, used) {
			return p
		}
	}
	return ""
}

func isParentOfDeclared(used string, declared map[string]string) bool {
	for p := range declared {
		if strings.HasPrefix(p, used+"/") {
			return true
		}
	}
	return false
}

func checkEnv(contract *Contract, usage ScriptUsage, finding findingFunc) []Finding {
	var findings []Finding

	required := make(map[string]bool, len(contract.RequiredEnv))
	for _, name := range contract.RequiredEnv {
		required[name] = true
	}
	read := make(map[string]bool)
	undeclared := make(map[string]bool)
	noDefault := make(map[string]int) // optional var → first line read without default

	for _, a := range usage.Env {
		read[a.Name] = true
		_, optional := contract.OptionalEnv[a.Name]
		switch {
		case !required[a.Name] && !optional:
			undeclared[a.Name] = true
		case optional && !a.HasDefault:
			if _, seen := noDefault[a.Name]; !seen {
				noDefault[a.Name] = a.Line
			}
		}
	}

	for _, name := range sortedSet(undeclared) {
		findings = append(findings, finding(ir.SeverityError, CategoryEnvironment,
			fmt.Sprintf("script reads undeclared environment variable %s", name),
			fmt.Sprintf("add %s to the contract's environment variables", name),
			map[string]string{"variable": name}))
	}
	for _, name := range sortedSet(required) {
		if !read[name] {
			findings = append(findings, finding(ir.SeverityError, CategoryEnvironment,
				fmt.Sprintf("script never reads required environment variable %s", name),
				fmt.Sprintf("read %s in the script or make it optional", name),
				map[string]string{"variable": name}))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(noDefault)) {
		findings = append(findings, finding(ir.SeverityWarning, CategoryEnvironment,
			fmt.Sprintf("optional environment variable %s is read without a default", name),
			fmt.Sprintf("pass a default when reading %s", name),
			map[string]string{"variable": name, "line": fmt.Sprint(noDefault[name])}))
	}
	return findings
}

// checkArguments compares argparse definitions with contract arguments.
// Contracts use CLI names ("job-type"); scripts may use either form.
func checkArguments(contract *Contract, usage ScriptUsage, finding findingFunc) []Finding {
	if len(contract.Arguments) == 0 && len(usage.Arguments) == 0 {
		return nil
	}
	var findings []Finding

	defined := make(map[string]ArgumentDef, len(usage.Arguments))
	for _, a := range usage.Arguments {
		defined[cliName(a.Name)] = a
	}
	declared := make(map[string]bool, len(contract.Arguments))

	for _, arg := range contract.Arguments {
		name := cliName(arg.Name)
		declared[name] = true
		def, ok := defined[name]
		if !ok {
			findings = append(findings, finding(ir.SeverityError, CategoryArguments,
				fmt.Sprintf("contract declares argument --%s but the script does not define it", name),
				fmt.Sprintf("add a parser argument for --%s", name),
				map[string]string{"argument": name}))
			continue
		}
		if arg.Required && !def.Required {
			findings = append(findings, finding(ir.SeverityError, CategoryArguments,
				fmt.Sprintf("contract requires --%s but the script makes it optional", name),
				fmt.Sprintf("mark --%s required in the script", name),
				map[string]string{"argument": name, "line": fmt.Sprint(def.Line)}))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(defined)) {
		if !declared[name] {
			findings = append(findings, finding(ir.SeverityWarning, CategoryArguments,
				fmt.Sprintf("script defines argument --%s that the contract does not declare", name),
				fmt.Sprintf("add --%s to the contract arguments or remove it from the script", name),
				map[string]string{"argument": name, "line": fmt.Sprint(defined[name].Line)}))
		}
	}
	return findings
}

func cliName(name string) string {
	return strings.ReplaceAll(strings.TrimLeft(name, "-"), "_", "-")
}
