package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/stepwire/internal/ir"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		dep  ir.DependencySpec
		want DependencyPattern
	}{
		{"external source", ir.DependencySpec{LogicalName: "raw", CompatibleSources: []string{"EXTERNAL"}}, PatternExternal},
		{"s3 uri suffix", ir.DependencySpec{LogicalName: "model_s3_uri"}, PatternExternal},
		{"known external", ir.DependencySpec{LogicalName: "pretrained_model_path"}, PatternExternal},
		{"config prefix", ir.DependencySpec{LogicalName: "config_file"}, PatternConfiguration},
		{"hyperparameters", ir.DependencySpec{LogicalName: "hyperparams", Type: ir.TypeHyperparameters}, PatternConfiguration},
		{"hyperparameters from a step", ir.DependencySpec{LogicalName: "hyperparams", Type: ir.TypeHyperparameters,
			CompatibleSources: []string{"HyperparameterPrep"}}, PatternPipeline},
		{"env prefix", ir.DependencySpec{LogicalName: "env_region"}, PatternEnvironment},
		{"environment infix", ir.DependencySpec{LogicalName: "runtime_environment_vars"}, PatternEnvironment},
		{"pipeline", ir.DependencySpec{LogicalName: "input_path", Type: ir.TypeTrainingData}, PatternPipeline},
		{"external among others", ir.DependencySpec{LogicalName: "data", CompatibleSources: []string{"EXTERNAL", "CradleDataLoading"}}, PatternPipeline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.dep))
		})
	}
}
