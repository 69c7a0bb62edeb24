package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/registry"
)

// SpecBuilder assembles a StepSpecification fluently.
//
//	spec := testutil.Spec("Beta").Needs("X", ir.TypeProcessingOutput).Produces("Y", ir.TypeProcessingOutput).Build()
type SpecBuilder struct {
	spec ir.StepSpecification
}

// Spec starts a specification for stepType with node type internal.
func Spec(stepType string) *SpecBuilder {
	return &SpecBuilder{spec: ir.StepSpecification{StepType: stepType, NodeType: ir.NodeInternal}}
}

// Node sets the node type.
func (b *SpecBuilder) Node(t ir.NodeType) *SpecBuilder {
	b.spec.NodeType = t
	return b
}

// Needs adds a required dependency.
func (b *SpecBuilder) Needs(name string, typ ir.SemanticType, aliases ...string) *SpecBuilder {
	b.spec.Dependencies = append(b.spec.Dependencies, ir.DependencySpec{
		LogicalName: name, Type: typ, Required: true, Aliases: aliases,
	})
	return b
}

// Wants adds an optional dependency.
func (b *SpecBuilder) Wants(name string, typ ir.SemanticType, aliases ...string) *SpecBuilder {
	b.spec.Dependencies = append(b.spec.Dependencies, ir.DependencySpec{
		LogicalName: name, Type: typ, Aliases: aliases,
	})
	return b
}

// From restricts the most recently added dependency to the given source step types.
func (b *SpecBuilder) From(sources ...string) *SpecBuilder {
	last := len(b.spec.Dependencies) - 1
	b.spec.Dependencies[last].CompatibleSources = sources
	return b
}

// Produces adds an output.
func (b *SpecBuilder) Produces(name string, typ ir.SemanticType, aliases ...string) *SpecBuilder {
	b.spec.Outputs = append(b.spec.Outputs, ir.OutputSpec{
		LogicalName: name, Type: typ, Aliases: aliases,
	})
	return b
}

// Build returns the specification.
func (b *SpecBuilder) Build() *ir.StepSpecification {
	spec := b.spec
	return &spec
}

// Registry registers specs and freezes the registry, failing t on any error.
func Registry(t testing.TB, specs ...*ir.StepSpecification) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, s := range specs {
		require.NoError(t, reg.Register(s.StepType, s), "register %s", s.StepType)
	}
	reg.Freeze()
	return reg
}

// ChainSpecs returns Alpha (produces X), Beta (X to Y), Gamma (consumes Y)
// and Delta (consumes foo, which nothing produces).
func ChainSpecs() []*ir.StepSpecification {
	return []*ir.StepSpecification{
		Spec("Alpha").Node(ir.NodeSource).Produces("X", ir.TypeProcessingOutput).Build(),
		Spec("Beta").Needs("X", ir.TypeProcessingOutput).Produces("Y", ir.TypeProcessingOutput).Build(),
		Spec("Gamma").Node(ir.NodeSink).Needs("Y", ir.TypeProcessingOutput).Build(),
		Spec("Delta").Node(ir.NodeSink).Needs("foo", ir.TypeHyperparameters).Build(),
	}
}

// PipelineSpecs returns a small training pipeline catalogue:
// data loading, preprocessing, XGBoost training and evaluation,
// packaging and registration.
func PipelineSpecs() []*ir.StepSpecification {
	return []*ir.StepSpecification{
		Spec("CradleDataLoading").Node(ir.NodeSource).
			Produces("DATA", ir.TypeProcessingOutput).
			Produces("METADATA", ir.TypeCustomProperty).
			Produces("SIGNATURE", ir.TypeCustomProperty).
			Build(),
		Spec("TabularPreprocessing").
			Needs("DATA", ir.TypeProcessingOutput).From("CradleDataLoading").
			Produces("processed_data", ir.TypeProcessingOutput).
			Build(),
		Spec("XGBoostTraining").
			Needs("input_path", ir.TypeTrainingData, "processed_data").From("TabularPreprocessing").
			Wants("hyperparameters_s3_uri", ir.TypeHyperparameters).
			Produces("model_output", ir.TypeModelArtifacts, "ModelArtifacts").
			Build(),
		Spec("XGBoostModelEval").
			Needs("model_input", ir.TypeModelArtifacts, "model_output").From("XGBoostTraining").
			Needs("processed_data", ir.TypeProcessingOutput).From("TabularPreprocessing").
			Produces("eval_output", ir.TypeProcessingOutput).
			Produces("metrics_output", ir.TypeProcessingOutput).
			Build(),
		Spec("Package").
			Needs("model_input", ir.TypeModelArtifacts, "model_output").
			Produces("packaged_model", ir.TypeModelArtifacts).
			Build(),
		Spec("Registration").Node(ir.NodeSink).
			Needs("PackagedModel", ir.TypeModelArtifacts, "packaged_model").
			Build(),
	}
}
