package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows future
// algorithm migration.
const (
	DomainPlan          = "stepwire/plan/v1"
	DomainSpecification = "stepwire/specification/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PlanCanonicalForm returns the hashed view of a plan: order and bindings only.
// RunID, diagnostics and the report are excluded so that identical inputs
// always hash identically.
func PlanCanonicalForm(p *CompiledPlan) map[string]any {
	order := make([]any, len(p.Order))
	for i, n := range p.Order {
		node := map[string]any{
			"name":      n.Name,
			"step_type": n.StepType,
		}
		if n.JobType != "" {
			node["job_type"] = n.JobType
		}
		order[i] = node
	}

	bindings := make([]any, len(p.Bindings))
	for i, b := range p.Bindings {
		bindings[i] = map[string]any{
			"consumer":         b.Consumer,
			"input":            b.Input,
			"producer":         b.Producer,
			"output":           b.Output,
			"confidence_milli": Milli(b.Confidence),
		}
	}

	return map[string]any{
		"version":  PlanVersion,
		"order":    order,
		"bindings": bindings,
	}
}

// PlanHash computes the content hash of a compiled plan.
func PlanHash(p *CompiledPlan) (string, error) {
	canonical, err := MarshalCanonical(PlanCanonicalForm(p))
	if err != nil {
		return "", fmt.Errorf("PlanHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}

// SpecificationHash computes the content hash of a step specification.
// The catalogue loader uses it to detect conflicting re-declarations.
func SpecificationHash(s *StepSpecification) (string, error) {
	deps := make([]any, len(s.Dependencies))
	for i, d := range s.Dependencies {
		deps[i] = map[string]any{
			"logical_name":       d.LogicalName,
			"dependency_type":    string(d.Type),
			"required":           d.Required,
			"aliases":            nonNil(d.Aliases),
			"compatible_sources": nonNil(d.CompatibleSources),
			"data_type":          d.DataType,
		}
	}
	outs := make([]any, len(s.Outputs))
	for i, o := range s.Outputs {
		outs[i] = map[string]any{
			"logical_name": o.LogicalName,
			"output_type":  string(o.Type),
			"aliases":      nonNil(o.Aliases),
			"data_type":    o.DataType,
		}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"step_type":    s.StepType,
		"node_type":    string(s.NodeType),
		"dependencies": deps,
		"outputs":      outs,
	})
	if err != nil {
		return "", fmt.Errorf("SpecificationHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSpecification, canonical), nil
}

// MustPlanHash is like PlanHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPlanHash(p *CompiledPlan) string {
	h, err := PlanHash(p)
	if err != nil {
		panic(err)
	}
	return h
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
