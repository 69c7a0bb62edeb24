package ir

import "math"

// ScoredCandidate is one (producer, output) pair considered for an input slot.
type ScoredCandidate struct {
	Producer     string  `json:"producer"`
	ProducerType string  `json:"producer_type"`
	Output       string  `json:"output"`
	Score        float64 `json:"score"`
	Distance     int     `json:"distance"` // edges from producer to consumer, -1 if unreachable
}

// ResolvedBinding wires a consumer input to a producer output.
type ResolvedBinding struct {
	Consumer   string  `json:"consumer"`
	Input      string  `json:"input"`
	Producer   string  `json:"producer"`
	Output     string  `json:"output"`
	Confidence float64 `json:"confidence"`
}

// Ambiguity records a slot whose runner-up scored close to the winner.
type Ambiguity struct {
	Consumer string          `json:"consumer"`
	Input    string          `json:"input"`
	Winner   ScoredCandidate `json:"winner"`
	RunnerUp ScoredCandidate `json:"runner_up"`
}

// PlanReport summarizes resolution quality for a compiled plan.
type PlanReport struct {
	BindingCount        int               `json:"binding_count"`
	AverageConfidence   float64           `json:"average_confidence"`
	LowConfidence       []ResolvedBinding `json:"low_confidence,omitempty"`
	Ambiguous           []Ambiguity       `json:"ambiguous,omitempty"`
	EdgeInconsistencies int               `json:"edge_inconsistencies"`
}

// CompiledPlan is the compiler output: nodes in topological order plus every binding.
type CompiledPlan struct {
	RunID       string            `json:"run_id"`
	Hash        string            `json:"hash"`
	Order       []StepNode        `json:"order"`
	Bindings    []ResolvedBinding `json:"bindings"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty"`
	Report      PlanReport        `json:"report"`
}

// NodeNames returns node names in plan order.
func (p *CompiledPlan) NodeNames() []string {
	names := make([]string, len(p.Order))
	for i, n := range p.Order {
		names[i] = n.Name
	}
	return names
}

// BindingsFor returns the bindings whose consumer is node, in declaration order.
func (p *CompiledPlan) BindingsFor(node string) []ResolvedBinding {
	var out []ResolvedBinding
	for _, b := range p.Bindings {
		if b.Consumer == node {
			out = append(out, b)
		}
	}
	return out
}

// Binding returns the binding for a consumer input slot.
func (p *CompiledPlan) Binding(node, input string) (ResolvedBinding, bool) {
	for _, b := range p.Bindings {
		if b.Consumer == node && b.Input == input {
			return b, true
		}
	}
	return ResolvedBinding{}, false
}

// Milli converts a confidence score to integer thousandths.
func Milli(score float64) int64 {
	return int64(math.Round(score * 1000))
}
