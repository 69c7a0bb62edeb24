package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepSpecificationLookups(t *testing.T) {
	spec := &StepSpecification{
		StepType: "TabularPreprocessing",
		Dependencies: []DependencySpec{
			{LogicalName: "DATA", Required: true, Aliases: []string{"input_data"}},
			{LogicalName: "METADATA"},
		},
		Outputs: []OutputSpec{
			{LogicalName: "processed_data", Aliases: []string{"training_data", "model_input_data"}},
		},
	}

	d, ok := spec.Dependency("input_data")
	assert.True(t, ok)
	assert.Equal(t, "DATA", d.LogicalName)

	_, ok = spec.Dependency("missing")
	assert.False(t, ok)

	o, ok := spec.Output("model_input_data")
	assert.True(t, ok)
	assert.Equal(t, "processed_data", o.LogicalName)
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		sev      Severity
		blocking bool
		rank     int
	}{
		{SeverityInfo, false, 0},
		{SeverityWarning, false, 1},
		{SeverityError, true, 2},
		{SeverityCritical, true, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.sev), func(t *testing.T) {
			assert.Equal(t, tt.blocking, tt.sev.Blocking())
			assert.Equal(t, tt.rank, tt.sev.Rank())
		})
	}
}

func TestCompiledPlanAccessors(t *testing.T) {
	p := samplePlan()
	assert.Equal(t, []string{"load", "prep"}, p.NodeNames())
	assert.Len(t, p.BindingsFor("prep"), 1)
	assert.Empty(t, p.BindingsFor("load"))

	b, ok := p.Binding("prep", "DATA")
	assert.True(t, ok)
	assert.Equal(t, "load", b.Producer)
}

func TestGraphBuilder(t *testing.T) {
	g := &Graph{}
	g.AddNode("a", "A").AddNode("b", "B").AddEdge("a", "b")

	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, []Edge{{From: "a", To: "b"}}, g.Edges)
}
