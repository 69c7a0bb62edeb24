package resolver

import (
	"errors"
	"slices"
	"strings"

	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/naming"
)

// Thresholds. These cutoffs are part of the resolution contract.
const (
	DefaultThreshold       = 0.5 // compile-time resolution
	AlignmentThreshold     = 0.6 // isolated per-step alignment check
	DefaultAmbiguityMargin = 0.1
)

// Candidate is one node whose outputs may satisfy the consumer.
type Candidate struct {
	Node     ir.StepNode
	StepType string // canonical step type of Node
	Spec     *ir.StepSpecification
	Distance int // edges from Node to the consumer, -1 if not an ancestor
}

// SlotResult is the outcome for one dependency of the consumer.
type SlotResult struct {
	Dependency ir.DependencySpec `json:"dependency"`
	// Binding is nil when the slot is unbound.
	Binding *ir.ResolvedBinding `json:"binding,omitempty"`
	// Candidates holds every scored candidate, best first.
	Candidates []ir.ScoredCandidate `json:"candidates"`
	// Filtered counts outputs excluded by compatible sources.
	Filtered int `json:"filtered,omitempty"`
}

// Resolution is the outcome for one consumer node.
type Resolution struct {
	Consumer    string
	Bindings    []ir.ResolvedBinding // dependency declaration order
	Slots       []SlotResult
	Unresolved  []*UnresolvedDependencyError
	Ambiguities []ir.Ambiguity
}

// Resolver binds consumer inputs to producer outputs.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	scorer    *Scorer
	names     *naming.Resolver
	threshold float64
	margin    float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold sets the minimum score for a binding.
func WithThreshold(t float64) Option {
	return func(r *Resolver) { r.threshold = t }
}

// WithAmbiguityMargin sets how close a runner-up must be to be reported.
func WithAmbiguityMargin(m float64) Option {
	return func(r *Resolver) { r.margin = m }
}

// WithScorer replaces the default scorer.
func WithScorer(s *Scorer) Option {
	return func(r *Resolver) { r.scorer = s }
}

// WithNames sets the name resolver used to match compatible source step types.
func WithNames(n *naming.Resolver) Option {
	return func(r *Resolver) { r.names = n }
}

// New creates a Resolver with DefaultThreshold.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		threshold: DefaultThreshold,
		margin:    DefaultAmbiguityMargin,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.scorer == nil {
		r.scorer = NewScorer(nil)
	}
	if r.names == nil {
		r.names = naming.NewResolver(nil)
	}
	return r
}

// Threshold returns the configured binding threshold.
func (r *Resolver) Threshold() float64 { return r.threshold }

// Resolve binds every dependency of spec. Unresolved required slots are
// collected in the Resolution and joined into the returned error; every
// candidate is scored even after one passes the threshold.
func (r *Resolver) Resolve(consumer ir.StepNode, spec *ir.StepSpecification, pool []Candidate) (*Resolution, error) {
	res := &Resolution{Consumer: consumer.Name}
	var errs []error

	for _, dep := range spec.Dependencies {
		slot := r.resolveSlot(consumer, dep, pool)
		res.Slots = append(res.Slots, slot)

		if slot.Binding != nil {
			res.Bindings = append(res.Bindings, *slot.Binding)
			if amb, ok := r.ambiguity(consumer.Name, dep.LogicalName, slot.Candidates); ok {
				res.Ambiguities = append(res.Ambiguities, amb)
			}
			continue
		}
		if dep.Required {
			e := &UnresolvedDependencyError{
				Node:              consumer.Name,
				StepType:          spec.StepType,
				Slot:              dep.LogicalName,
				Threshold:         r.threshold,
				CompatibleSources: slices.Clone(dep.CompatibleSources),
				Candidates:        slot.Candidates,
			}
			res.Unresolved = append(res.Unresolved, e)
			errs = append(errs, e)
		}
	}

	return res, errors.Join(errs...)
}

func (r *Resolver) resolveSlot(consumer ir.StepNode, dep ir.DependencySpec, pool []Candidate) SlotResult {
	slot := SlotResult{Dependency: dep}

	for _, c := range pool {
		if c.Node.Name == consumer.Name {
			continue
		}
		if !r.sourceAllowed(c, dep.CompatibleSources) {
			slot.Filtered += len(c.Spec.Outputs)
			continue
		}
		for _, out := range c.Spec.Outputs {
			slot.Candidates = append(slot.Candidates, ir.ScoredCandidate{
				Producer:     c.Node.Name,
				ProducerType: c.StepType,
				Output:       out.LogicalName,
				Score:        r.scorer.Score(out, dep),
				Distance:     c.Distance,
			})
		}
	}

	slices.SortStableFunc(slot.Candidates, compareCandidates)

	if len(slot.Candidates) > 0 && slot.Candidates[0].Score >= r.threshold {
		best := slot.Candidates[0]
		slot.Binding = &ir.ResolvedBinding{
			Consumer:   consumer.Name,
			Input:      dep.LogicalName,
			Producer:   best.Producer,
			Output:     best.Output,
			Confidence: best.Score,
		}
	}
	return slot
}

// compareCandidates orders by score (desc), graph distance (asc, unreachable
// last), producer name, then output name.
func compareCandidates(a, b ir.ScoredCandidate) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	if da, db := distanceKey(a.Distance), distanceKey(b.Distance); da != db {
		if da < db {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Producer, b.Producer); c != 0 {
		return c
	}
	return strings.Compare(a.Output, b.Output)
}

func distanceKey(d int) int {
	if d < 0 {
		return int(^uint(0) >> 1)
	}
	return d
}

// ambiguity reports a runner-up that passed the threshold within the
// margin of the winner.
func (r *Resolver) ambiguity(consumer, input string, cands []ir.ScoredCandidate) (ir.Ambiguity, bool) {
	if len(cands) < 2 {
		return ir.Ambiguity{}, false
	}
	winner, runnerUp := cands[0], cands[1]
	if runnerUp.Score < r.threshold || winner.Score-runnerUp.Score > r.margin {
		return ir.Ambiguity{}, false
	}
	return ir.Ambiguity{Consumer: consumer, Input: input, Winner: winner, RunnerUp: runnerUp}, true
}

// sourceAllowed applies a dependency's compatible source restriction.
// A source matches the candidate's step type directly, after case and
// separator normalization, or against its job-type base name.
func (r *Resolver) sourceAllowed(c Candidate, sources []string) bool {
	if len(sources) == 0 {
		return true
	}
	stepType := c.StepType
	if stepType == "" {
		stepType = c.Node.StepType
	}
	full := naming.Compact(stepType)
	base, _ := r.names.SplitJobType(stepType)
	baseCompact := naming.Compact(base)

	for _, s := range sources {
		cs := naming.Compact(s)
		if cs == full || cs == baseCompact {
			return true
		}
		if key, err := r.names.Canonicalize(s); err == nil && key == stepType {
			return true
		}
	}
	return false
}
