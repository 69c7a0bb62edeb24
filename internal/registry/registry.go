package registry

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/stepwire/internal/ir"
)

// Registry maps step types to their specifications, one-to-one.
type Registry struct {
	mu     sync.RWMutex
	frozen atomic.Bool
	specs  map[string]*ir.StepSpecification
	keys   []string // sorted snapshot, set by Freeze
}

// New creates an empty, unfrozen registry.
func New() *Registry {
	return &Registry{specs: make(map[string]*ir.StepSpecification)}
}

// Register adds spec under stepType.
// It fails with ErrDuplicateSpecification, ErrInvalidSpecification or
// ErrRegistryFrozen. The registry stores its own copy of spec.
func (r *Registry) Register(stepType string, spec *ir.StepSpecification) error {
	if problems := Validate(stepType, spec); len(problems) > 0 {
		return &SpecificationError{Kind: ErrInvalidSpecification, StepType: stepType, Problems: problems}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	if _, exists := r.specs[stepType]; exists {
		return &SpecificationError{Kind: ErrDuplicateSpecification, StepType: stepType}
	}

	stored := clone(spec)
	stored.StepType = stepType
	r.specs[stepType] = stored
	return nil
}

// Lookup returns the specification for stepType. The result is shared and
// must not be modified.
func (r *Registry) Lookup(stepType string) (*ir.StepSpecification, error) {
	if r.frozen.Load() {
		if spec, ok := r.specs[stepType]; ok {
			return spec, nil
		}
		return nil, &UnknownStepTypeError{StepType: stepType, Available: r.AllRegisteredTypes()}
	}

	r.mu.RLock()
	spec, ok := r.specs[stepType]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownStepTypeError{StepType: stepType, Available: r.AllRegisteredTypes()}
	}
	return spec, nil
}

// AllRegisteredTypes returns a sorted snapshot of registered step types.
func (r *Registry) AllRegisteredTypes() []string {
	if r.frozen.Load() {
		return slices.Clone(r.keys)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.specs)
}

// Freeze seals the registry. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return
	}
	r.keys = sortedKeys(r.specs)
	r.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Len returns the number of registered step types.
func (r *Registry) Len() int {
	if r.frozen.Load() {
		return len(r.keys)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

func sortedKeys(m map[string]*ir.StepSpecification) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func clone(spec *ir.StepSpecification) *ir.StepSpecification {
	c := *spec
	c.Dependencies = make([]ir.DependencySpec, len(spec.Dependencies))
	for i, d := range spec.Dependencies {
		d.Aliases = slices.Clone(d.Aliases)
		d.CompatibleSources = slices.Clone(d.CompatibleSources)
		d.SemanticKeywords = slices.Clone(d.SemanticKeywords)
		c.Dependencies[i] = d
	}
	c.Outputs = make([]ir.OutputSpec, len(spec.Outputs))
	for i, o := range spec.Outputs {
		o.Aliases = slices.Clone(o.Aliases)
		c.Outputs[i] = o
	}
	return &c
}
