package alignment

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/stepwire/internal/compiler"
	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/resolver"
)

// checkSpecDependencies resolves the specification's pipeline
// dependencies against every other registered specification.
func (v *Validator) checkSpecDependencies(stepType string, spec *ir.StepSpecification) LevelResult {
	var findings []Finding
	add := func(sev ir.Severity, category, msg, rec string, details map[string]string) {
		findings = append(findings, Finding{
			Level:          LevelSpecDependencies,
			Severity:       sev,
			Category:       category,
			StepType:       stepType,
			Message:        msg,
			Recommendation: rec,
			Details:        details,
		})
	}

	pipeline := &ir.StepSpecification{StepType: spec.StepType, NodeType: spec.NodeType, Outputs: spec.Outputs}
	for _, dep := range spec.Dependencies {
		if p := resolver.Classify(dep); p != resolver.PatternPipeline {
			add(ir.SeverityInfo, CategoryDependency,
				fmt.Sprintf("dependency %s is %s and is not resolved against the catalogue", dep.LogicalName, p),
				"", map[string]string{"logical_name": dep.LogicalName, "pattern": string(p)})
			continue
		}
		pipeline.Dependencies = append(pipeline.Dependencies, dep)
	}

	res := v.resolveIsolated(stepType, pipeline)

	for _, slot := range res.Slots {
		dep := slot.Dependency
		if slot.Binding == nil {
			details := map[string]string{
				"logical_name": dep.LogicalName,
				"threshold":    fmt.Sprintf("%.2f", v.threshold),
			}
			if len(slot.Candidates) > 0 {
				best := slot.Candidates[0]
				details["best_candidate"] = best.ProducerType + "." + best.Output
				details["best_score"] = fmt.Sprintf("%.2f", best.Score)
			}
			if len(dep.CompatibleSources) > 0 {
				details["compatible_sources"] = strings.Join(dep.CompatibleSources, ",")
			}
			if dep.Required {
				add(ir.SeverityError, CategoryDependency,
					fmt.Sprintf("required dependency %s cannot be resolved", dep.LogicalName),
					"register a producing step type or add an alias matching an existing output", details)
			} else {
				add(ir.SeverityInfo, CategoryDependency,
					fmt.Sprintf("optional dependency %s has no producer in the catalogue", dep.LogicalName),
					"", details)
			}
			continue
		}

		b := slot.Binding
		producer, err := v.registry.Lookup(b.Producer)
		if err != nil {
			continue
		}
		out, _ := producer.Output(b.Output)
		if dep.DataType != "" && out.DataType != "" && dep.DataType != out.DataType {
			add(ir.SeverityWarning, CategoryDataType,
				fmt.Sprintf("data type mismatch for %s: expected=%s, producer %s.%s=%s",
					dep.LogicalName, dep.DataType, b.Producer, b.Output, out.DataType),
				"align the producer output and dependency data types",
				map[string]string{"logical_name": dep.LogicalName, "producer": b.Producer})
		}
	}

	if cycle := v.producerCycle(stepType); cycle != nil {
		add(ir.SeverityWarning, CategoryCycle,
			fmt.Sprintf("best producers form a cycle: %s", strings.Join(cycle, " → ")),
			"restrict compatible sources so that data flows one way",
			map[string]string{"cycle": strings.Join(cycle, ",")})
	}

	return newLevelResult(LevelSpecDependencies, findings)
}

// resolveIsolated resolves spec with every other registered step type as
// a candidate. Nodes are named after their step types.
func (v *Validator) resolveIsolated(stepType string, spec *ir.StepSpecification) *resolver.Resolution {
	var pool []resolver.Candidate
	for _, other := range v.registry.AllRegisteredTypes() {
		if other == stepType {
			continue
		}
		s, err := v.registry.Lookup(other)
		if err != nil {
			continue
		}
		pool = append(pool, resolver.Candidate{
			Node:     ir.StepNode{Name: other, StepType: other},
			StepType: other,
			Spec:     s,
			Distance: -1,
		})
	}

	r := resolver.New(
		resolver.WithThreshold(v.threshold),
		resolver.WithScorer(v.scorer),
		resolver.WithNames(v.names),
	)
	consumer := ir.StepNode{Name: stepType, StepType: stepType}
	// Unresolved slots are read from the Resolution.
	res, _ := r.Resolve(consumer, spec, pool)
	return res
}

// producerCycle returns a cycle through stepType in the best-producer
// graph of the whole catalogue, or nil.
func (v *Validator) producerCycle(stepType string) []string {
	v.producersOnce.Do(v.buildProducerGraph)

	order := v.registry.AllRegisteredTypes()
	for _, c := range compiler.Cycles(order, v.producers) {
		if slices.Contains(c, stepType) {
			return c
		}
	}
	return nil
}

func (v *Validator) buildProducerGraph() {
	adj := make(compiler.Adjacency)
	for _, st := range v.registry.AllRegisteredTypes() {
		spec, err := v.registry.Lookup(st)
		if err != nil {
			continue
		}
		pipeline := &ir.StepSpecification{StepType: st, Outputs: spec.Outputs}
		for _, dep := range spec.Dependencies {
			if resolver.Classify(dep) == resolver.PatternPipeline {
				pipeline.Dependencies = append(pipeline.Dependencies, dep)
			}
		}
		for _, b := range v.resolveIsolated(st, pipeline).Bindings {
			if !slices.Contains(adj[b.Producer], st) {
				adj[b.Producer] = append(adj[b.Producer], st)
			}
		}
	}
	v.producers = adj
}
