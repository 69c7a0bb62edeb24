package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwire/internal/ir"
)

func preprocessingSpec() *ir.StepSpecification {
	return &ir.StepSpecification{
		NodeType: ir.NodeInternal,
		Dependencies: []ir.DependencySpec{
			{LogicalName: "DATA", Type: ir.TypeProcessingOutput, Required: true, Aliases: []string{"input_data"}},
		},
		Outputs: []ir.OutputSpec{
			{LogicalName: "processed_data", Type: ir.TypeProcessingOutput, Aliases: []string{"training_data"}},
		},
	}
}

func mustRegister(t testing.TB, r *Registry, stepType string, spec *ir.StepSpecification) {
	t.Helper()
	require.NoError(t, r.Register(stepType, spec))
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("TabularPreprocessing", preprocessingSpec()))

	spec, err := r.Lookup("TabularPreprocessing")
	require.NoError(t, err)
	assert.Equal(t, "TabularPreprocessing", spec.StepType, "registration key is stamped on the stored spec")
	assert.Len(t, spec.Dependencies, 1)
	assert.Equal(t, 1, r.Len())
}

// TestRegisterDuplicate tests that a step type can only be registered once.
func TestRegisterDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("TabularPreprocessing", preprocessingSpec()))

	err := r.Register("TabularPreprocessing", preprocessingSpec())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSpecification))

	var specErr *SpecificationError
	require.True(t, errors.As(err, &specErr))
	assert.Equal(t, "TabularPreprocessing", specErr.StepType)
	diags := specErr.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, ir.KindDuplicateSpecification, diags[0].Kind)
}

func TestRegisterInvalid(t *testing.T) {
	tests := []struct {
		name string
		spec *ir.StepSpecification
		code string
	}{
		{
			name: "duplicate input",
			spec: &ir.StepSpecification{Dependencies: []ir.DependencySpec{
				{LogicalName: "DATA", Type: ir.TypeProcessingOutput},
				{LogicalName: "DATA", Type: ir.TypeTrainingData},
			}},
			code: ErrCodeDuplicateInput,
		},
		{
			name: "duplicate output",
			spec: &ir.StepSpecification{Outputs: []ir.OutputSpec{
				{LogicalName: "model", Type: ir.TypeModelArtifacts},
				{LogicalName: "model", Type: ir.TypeModelArtifacts},
			}},
			code: ErrCodeDuplicateOutput,
		},
		{
			name: "alias collides with other output",
			spec: &ir.StepSpecification{Outputs: []ir.OutputSpec{
				{LogicalName: "model", Type: ir.TypeModelArtifacts},
				{LogicalName: "artifacts", Type: ir.TypeModelArtifacts, Aliases: []string{"model"}},
			}},
			code: ErrCodeDuplicateOutput,
		},
		{
			name: "missing logical name",
			spec: &ir.StepSpecification{Outputs: []ir.OutputSpec{{Type: ir.TypeModelArtifacts}}},
			code: ErrCodeLogicalNameEmpty,
		},
		{
			name: "nil specification",
			spec: nil,
			code: ErrCodeSpecMissing,
		},
		{
			name: "source with dependencies",
			spec: &ir.StepSpecification{NodeType: ir.NodeSource, Dependencies: []ir.DependencySpec{
				{LogicalName: "DATA", Type: ir.TypeProcessingOutput},
			}},
			code: ErrCodeSourceHasInputs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			err := r.Register("Step", tt.spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSpecification))

			var specErr *SpecificationError
			require.True(t, errors.As(err, &specErr))
			codes := make([]string, len(specErr.Problems))
			for i, p := range specErr.Problems {
				codes[i] = p.Code
			}
			assert.Contains(t, codes, tt.code)
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestSameNameAcrossSidesIsAllowed(t *testing.T) {
	r := New()
	err := r.Register("Passthrough", &ir.StepSpecification{
		Dependencies: []ir.DependencySpec{{LogicalName: "data", Type: ir.TypeProcessingOutput}},
		Outputs:      []ir.OutputSpec{{LogicalName: "data", Type: ir.TypeProcessingOutput}},
	})
	assert.NoError(t, err)
}

func TestLookupUnknown(t *testing.T) {
	r := New()
	mustRegister(t, r, "A", &ir.StepSpecification{})
	r.Freeze()

	_, err := r.Lookup("B")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStepType))

	var unknown *UnknownStepTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, []string{"A"}, unknown.Available)
}

func TestFreeze(t *testing.T) {
	r := New()
	mustRegister(t, r, "B", &ir.StepSpecification{})
	mustRegister(t, r, "A", &ir.StepSpecification{})
	assert.False(t, r.Frozen())

	r.Freeze()
	r.Freeze() // idempotent
	assert.True(t, r.Frozen())
	assert.Equal(t, []string{"A", "B"}, r.AllRegisteredTypes())

	err := r.Register("C", &ir.StepSpecification{})
	assert.ErrorIs(t, err, ErrRegistryFrozen)
	assert.Equal(t, 2, r.Len())
}

// TestStoredCopyIsolated tests that mutating the caller's spec after
// registration does not change the registry.
func TestStoredCopyIsolated(t *testing.T) {
	r := New()
	spec := preprocessingSpec()
	mustRegister(t, r, "TabularPreprocessing", spec)

	spec.Dependencies[0].Aliases[0] = "changed"
	spec.Outputs = nil

	stored, err := r.Lookup("TabularPreprocessing")
	require.NoError(t, err)
	assert.Equal(t, "input_data", stored.Dependencies[0].Aliases[0])
	assert.Len(t, stored.Outputs, 1)
}

// TestConcurrentReadsAfterFreeze tests lock-free reads from many goroutines.
func TestConcurrentReadsAfterFreeze(t *testing.T) {
	r := New()
	for i := range 20 {
		mustRegister(t, r, fmt.Sprintf("Step%02d", i), &ir.StepSpecification{})
	}
	r.Freeze()

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for g := range 10 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range 20 {
				if _, err := r.Lookup(fmt.Sprintf("Step%02d", (i+g)%20)); err != nil {
					errs <- err
				}
				_ = r.AllRegisteredTypes()
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected lookup error: %v", err)
	}
}
