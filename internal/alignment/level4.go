package alignment

import (
	"fmt"

	"github.com/roach88/stepwire/internal/ir"
)

// checkBuilderConfig compares the builder's field usage with the
// configuration's declared fields.
func (v *Validator) checkBuilderConfig(stepType string) LevelResult {
	builder, ok := v.index.builders[stepType]
	if !ok {
		return skippedLevel(LevelBuilderConfig, stepType, "builder")
	}
	config, ok := v.index.configs[stepType]
	if !ok {
		return skippedLevel(LevelBuilderConfig, stepType, "config")
	}

	var findings []Finding
	add := func(sev ir.Severity, msg, rec, field string) {
		findings = append(findings, Finding{
			Level:          LevelBuilderConfig,
			Severity:       sev,
			Category:       CategoryConfigFields,
			StepType:       stepType,
			Message:        msg,
			Recommendation: rec,
			Details:        map[string]string{"field": field, "builder": builder.Name, "config": config.Name},
		})
	}

	declared := make(map[string]bool, len(config.Fields))
	configRequired := make(map[string]bool)
	for _, f := range config.Fields {
		declared[f.Name] = true
		if f.Required {
			configRequired[f.Name] = true
		}
	}
	accessed := make(map[string]bool)
	for _, f := range builder.AccessedFields {
		accessed[f] = true
	}
	builderRequired := make(map[string]bool)
	for _, f := range builder.RequiredFields {
		builderRequired[f] = true
		accessed[f] = true
	}

	for _, f := range sortedSet(builderRequired) {
		if !declared[f] {
			add(ir.SeverityError,
				fmt.Sprintf("builder requires field %s which the configuration does not declare", f),
				fmt.Sprintf("add %s to the configuration", f), f)
		}
	}
	for _, f := range sortedSet(accessed) {
		if !declared[f] && !builderRequired[f] {
			add(ir.SeverityError,
				fmt.Sprintf("builder accesses undeclared configuration field %s", f),
				fmt.Sprintf("add %s to the configuration or stop reading it", f), f)
		}
	}
	for _, f := range sortedSet(configRequired) {
		if !accessed[f] {
			add(ir.SeverityWarning,
				fmt.Sprintf("required configuration field %s is never accessed by the builder", f),
				fmt.Sprintf("use %s in the builder or make it optional", f), f)
		}
	}
	for _, f := range sortedSet(declared) {
		if !accessed[f] && !configRequired[f] {
			add(ir.SeverityWarning,
				fmt.Sprintf("configuration field %s is never accessed by the builder", f),
				fmt.Sprintf("remove %s from the configuration or use it", f), f)
		}
	}

	return newLevelResult(LevelBuilderConfig, findings)
}
