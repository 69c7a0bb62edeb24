package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() *CompiledPlan {
	return &CompiledPlan{
		RunID: "run-1",
		Order: []StepNode{
			{Name: "load", StepType: "CradleDataLoading", JobType: "training"},
			{Name: "prep", StepType: "TabularPreprocessing"},
		},
		Bindings: []ResolvedBinding{
			{Consumer: "prep", Input: "DATA", Producer: "load", Output: "DATA", Confidence: 1.0},
		},
	}
}

// TestPlanHashDeterminism tests that identical plans hash identically.
func TestPlanHashDeterminism(t *testing.T) {
	h1, err := PlanHash(samplePlan())
	require.NoError(t, err)
	h2, err := PlanHash(samplePlan())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestPlanHashIgnoresRunIDAndReport(t *testing.T) {
	a := samplePlan()
	b := samplePlan()
	b.RunID = "run-2"
	b.Report.BindingCount = 99
	b.Diagnostics = []Diagnostic{{Kind: KindLowConfidence, Message: "x"}}

	assert.Equal(t, MustPlanHash(a), MustPlanHash(b))
}

func TestPlanHashChangesWithBindings(t *testing.T) {
	base := MustPlanHash(samplePlan())

	tests := []struct {
		name   string
		mutate func(p *CompiledPlan)
	}{
		{"producer", func(p *CompiledPlan) { p.Bindings[0].Producer = "other" }},
		{"confidence", func(p *CompiledPlan) { p.Bindings[0].Confidence = 0.9 }},
		{"order", func(p *CompiledPlan) { p.Order[0], p.Order[1] = p.Order[1], p.Order[0] }},
		{"job type", func(p *CompiledPlan) { p.Order[0].JobType = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePlan()
			tt.mutate(p)
			assert.NotEqual(t, base, MustPlanHash(p))
		})
	}
}

func TestPlanCanonicalFormUsesMilli(t *testing.T) {
	p := samplePlan()
	p.Bindings[0].Confidence = 0.6666

	data, err := MarshalCanonical(PlanCanonicalForm(p))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"confidence_milli":667`)
}

func TestSpecificationHash(t *testing.T) {
	spec := &StepSpecification{
		StepType: "XGBoostTraining",
		NodeType: NodeInternal,
		Dependencies: []DependencySpec{
			{LogicalName: "input_path", Type: TypeTrainingData, Required: true},
		},
		Outputs: []OutputSpec{
			{LogicalName: "model_output", Type: TypeModelArtifacts},
		},
	}

	h1, err := SpecificationHash(spec)
	require.NoError(t, err)

	changed := *spec
	changed.Dependencies = []DependencySpec{
		{LogicalName: "input_path", Type: TypeTrainingData, Required: false},
	}
	h2, err := SpecificationHash(&changed)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}
