package alignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwire/internal/compiler"
	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/naming"
	"github.com/roach88/stepwire/internal/registry"
	"github.com/roach88/stepwire/internal/testutil"
)

const trainingScript = `import argparse
import os

INPUT_DIR = "/opt/ml/input/data"
HPARAMS = "/opt/ml/input/data/config/hyperparameters.json"
MODEL_DIR = "/opt/ml/model"

def main():
    parser = argparse.ArgumentParser()
    parser.add_argument("--job-type", required=True)
    args = parser.parse_args()
    region = os.environ["AWS_REGION"]
    debug = os.environ.get("DEBUG_MODE", "false")
`

const preprocessingScript = `import os

INPUT_DIR = "/opt/ml/processing/input/data"
OUTPUT_DIR = "/opt/ml/processing/output"
SIGNATURE = "/opt/ml/processing/input/signature/signature.csv"
label = os.environ.get("LABEL_FIELD")
`

func pipelineArtifacts() Artifacts {
	return Artifacts{
		Contracts: []Contract{
			{
				Name: "xgboost_training_contract",
				Inputs: []ContractPath{
					{LogicalName: "input_path", Path: "/opt/ml/input/data"},
					{LogicalName: "hyperparameters_s3_uri", Path: "/opt/ml/input/data/config/hyperparameters.json"},
				},
				Outputs:     []ContractPath{{LogicalName: "model_output", Path: "/opt/ml/model"}},
				RequiredEnv: []string{"AWS_REGION"},
				OptionalEnv: map[string]string{"DEBUG_MODE": "false"},
				Arguments:   []ContractArgument{{Name: "job-type", Required: true}},
			},
			{
				Name:   "tabular_preprocessing_contract",
				Inputs: []ContractPath{{LogicalName: "DATA", Path: "/opt/ml/processing/input/data"}},
				Outputs: []ContractPath{
					{LogicalName: "processed_data", Path: "/opt/ml/processing/output"},
					{LogicalName: "full_data", Path: "/opt/ml/processing/output/full"},
				},
			},
		},
		Scripts: []Script{
			{Name: "xgboost_training.py", Source: trainingScript},
			{Name: "tabular_preprocessing.py", Source: preprocessingScript},
		},
		Builders: []Builder{{
			Name:           "builder_xgboost_training_step.py",
			RequiredFields: []string{"training_instance_type", "hyperparameters"},
			AccessedFields: []string{"training_entry_point", "region"},
		}},
		Configs: []Config{{
			Name: "config_xgboost_training_step.py",
			Fields: []ConfigField{
				{Name: "training_instance_type", Required: true},
				{Name: "hyperparameters", Required: true},
				{Name: "training_entry_point"},
				{Name: "framework_version"},
				{Name: "pipeline_name", Required: true},
			},
		}},
	}
}

func newPipelineValidator(t *testing.T, artifacts Artifacts, opts ...Option) *Validator {
	t.Helper()
	reg := testutil.Registry(t, testutil.PipelineSpecs()...)
	v, err := New(reg, artifacts, opts...)
	require.NoError(t, err)
	return v
}

func messages(findings []Finding) []string {
	var out []string
	for _, f := range findings {
		out = append(out, string(f.Severity)+" "+f.Message)
	}
	return out
}

// TestNew_RequiresFrozenRegistry tests that an open registry is rejected.
func TestNew_RequiresFrozenRegistry(t *testing.T) {
	_, err := New(registry.New(), Artifacts{})
	assert.ErrorIs(t, err, compiler.ErrRegistryNotFrozen)
}

// TestValidate_FullAgreement tests a step whose artifacts all agree.
func TestValidate_FullAgreement(t *testing.T) {
	v := newPipelineValidator(t, pipelineArtifacts())

	report, err := v.Validate(context.Background(), "XGBoostTraining")
	require.NoError(t, err)

	l1, _ := report.Level(LevelScriptContract)
	assert.True(t, l1.Passed)
	assert.Empty(t, l1.Findings)

	l2, _ := report.Level(LevelContractSpec)
	assert.True(t, l2.Passed)
	assert.Empty(t, l2.Findings)

	l3, _ := report.Level(LevelSpecDependencies)
	assert.True(t, l3.Passed)
	require.Len(t, l3.Findings, 1, "the external hyperparameters dependency is noted")
	assert.Equal(t, ir.SeverityInfo, l3.Findings[0].Severity)
	assert.Equal(t, "external", l3.Findings[0].Details["pattern"])
}

// TestValidate_ContractPathMissingFromSpec tests the L2 finding for an
// output the specification does not declare.
func TestValidate_ContractPathMissingFromSpec(t *testing.T) {
	v := newPipelineValidator(t, pipelineArtifacts())

	report, err := v.Validate(context.Background(), "TabularPreprocessing")
	require.NoError(t, err)

	l2, ok := report.Level(LevelContractSpec)
	require.True(t, ok)
	assert.False(t, l2.Passed)
	assert.Equal(t, []string{
		"ERROR contract output full_data is not an output of the specification",
	}, messages(l2.Findings))
	assert.Equal(t, ir.SeverityError, l2.MaxSeverity())

	l3, _ := report.Level(LevelSpecDependencies)
	assert.True(t, l3.Passed, "levels are independent")
}

// TestValidate_ScriptContract tests L1 path and environment findings.
func TestValidate_ScriptContract(t *testing.T) {
	v := newPipelineValidator(t, pipelineArtifacts())

	l1, err := v.CheckLevel("tabular_preprocessing", LevelScriptContract)
	require.NoError(t, err)
	assert.False(t, l1.Passed)
	assert.Equal(t, []string{
		"ERROR script uses undeclared container path /opt/ml/processing/input/signature/signature.csv",
		"WARNING contract declares /opt/ml/processing/output/full (full_data) but the script never references it",
		"ERROR script reads undeclared environment variable LABEL_FIELD",
	}, messages(l1.Findings))
	assert.Equal(t, "signature", l1.Findings[0].Details["inferred_logical_name"])
}

// TestValidate_Environment tests required and optional environment rules.
func TestValidate_Environment(t *testing.T) {
	a := pipelineArtifacts()
	a.Contracts[0].RequiredEnv = []string{"AWS_REGION", "MODEL_NAME"}
	a.Scripts[0].Source = trainingScript + `    mode = os.environ["DEBUG_MODE"]
`
	v := newPipelineValidator(t, a)

	l1, err := v.CheckLevel("XGBoostTraining", LevelScriptContract)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ERROR script never reads required environment variable MODEL_NAME",
		"WARNING optional environment variable DEBUG_MODE is read without a default",
	}, messages(l1.Findings))
}

// TestValidate_Arguments tests contract and script argument agreement.
func TestValidate_Arguments(t *testing.T) {
	a := pipelineArtifacts()
	a.Contracts[0].Arguments = []ContractArgument{{Name: "job_type", Required: true}, {Name: "n-estimators"}}
	a.Scripts[0].Source = trainingScript + `    parser.add_argument("--seed")
`
	v := newPipelineValidator(t, a)

	l1, err := v.CheckLevel("XGBoostTraining", LevelScriptContract)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ERROR contract declares argument --n-estimators but the script does not define it",
		"WARNING script defines argument --seed that the contract does not declare",
	}, messages(l1.Findings))
}

// TestValidate_WrappedArguments tests argparse calls split across lines.
func TestValidate_WrappedArguments(t *testing.T) {
	a := pipelineArtifacts()
	a.Contracts[0].Arguments = []ContractArgument{{Name: "job-type", Required: true}, {Name: "n-estimators", Required: true}}
	a.Scripts[0].Source = `import argparse
import os

INPUT_DIR = "/opt/ml/input/data"
HPARAMS = "/opt/ml/input/data/config/hyperparameters.json"
MODEL_DIR = "/opt/ml/model"

def main():
    parser = argparse.ArgumentParser()
    parser.add_argument(
        "--job-type",
        type=str,
        required=True,
    )
    parser.add_argument("--n-estimators", type=int,
                        required=True)
    region = os.environ["AWS_REGION"]
    debug = os.environ.get(
        "DEBUG_MODE",
        "false",
    )
`
	v := newPipelineValidator(t, a)

	l1, err := v.CheckLevel("XGBoostTraining", LevelScriptContract)
	require.NoError(t, err)
	assert.True(t, l1.Passed)
	assert.Empty(t, messages(l1.Findings))
}

// TestValidate_BuilderConfig tests L4 set differences.
func TestValidate_BuilderConfig(t *testing.T) {
	v := newPipelineValidator(t, pipelineArtifacts())

	l4, err := v.CheckLevel("XGBoostTraining", LevelBuilderConfig)
	require.NoError(t, err)
	assert.False(t, l4.Passed)
	assert.Equal(t, []string{
		"ERROR builder accesses undeclared configuration field region",
		"WARNING required configuration field pipeline_name is never accessed by the builder",
		"WARNING configuration field framework_version is never accessed by the builder",
	}, messages(l4.Findings))
}

// TestValidate_BuilderRequiresUndeclaredField tests the builder-required rule.
func TestValidate_BuilderRequiresUndeclaredField(t *testing.T) {
	a := pipelineArtifacts()
	a.Builders[0].RequiredFields = append(a.Builders[0].RequiredFields, "role")
	v := newPipelineValidator(t, a)

	l4, err := v.CheckLevel("XGBoostTraining", LevelBuilderConfig)
	require.NoError(t, err)
	assert.Contains(t, messages(l4.Findings), "ERROR builder requires field role which the configuration does not declare")
}

// TestValidate_MissingArtifactsSkip tests that missing artifacts skip a level.
func TestValidate_MissingArtifactsSkip(t *testing.T) {
	v := newPipelineValidator(t, Artifacts{})

	report, err := v.Validate(context.Background(), "Package")
	require.NoError(t, err)
	assert.True(t, report.Passed())

	for _, level := range []Level{LevelScriptContract, LevelContractSpec, LevelBuilderConfig} {
		r, ok := report.Level(level)
		require.True(t, ok)
		assert.True(t, r.Skipped, level.String())
		require.Len(t, r.Findings, 1)
		assert.Equal(t, CategoryMissingArtifact, r.Findings[0].Category)
	}
	l3, _ := report.Level(LevelSpecDependencies)
	assert.False(t, l3.Skipped)
}

// TestValidate_UnresolvableDependency tests L3 errors and optional notes.
func TestValidate_UnresolvableDependency(t *testing.T) {
	specs := append(testutil.ChainSpecs(),
		testutil.Spec("Orphan").Node(ir.NodeSink).
			Needs("weights", ir.TypeModelArtifacts).
			Wants("notes", ir.TypeCustomProperty).
			Build())
	reg := testutil.Registry(t, specs...)
	v, err := New(reg, Artifacts{})
	require.NoError(t, err)

	l3, err := v.CheckLevel("Orphan", LevelSpecDependencies)
	require.NoError(t, err)
	assert.False(t, l3.Passed)
	assert.Equal(t, []string{
		"ERROR required dependency weights cannot be resolved",
		"INFO optional dependency notes has no producer in the catalogue",
	}, messages(l3.Findings))
}

// TestValidate_DataTypeMismatch tests the L3 producer data type check.
func TestValidate_DataTypeMismatch(t *testing.T) {
	producer := &ir.StepSpecification{
		StepType: "Producer",
		NodeType: ir.NodeSource,
		Outputs:  []ir.OutputSpec{{LogicalName: "X", Type: ir.TypeProcessingOutput, DataType: "S3Uri"}},
	}
	consumer := &ir.StepSpecification{
		StepType:     "Consumer",
		NodeType:     ir.NodeSink,
		Dependencies: []ir.DependencySpec{{LogicalName: "X", Type: ir.TypeProcessingOutput, Required: true, DataType: "String"}},
	}
	v, err := New(testutil.Registry(t, producer, consumer), Artifacts{})
	require.NoError(t, err)

	l3, err := v.CheckLevel("Consumer", LevelSpecDependencies)
	require.NoError(t, err)
	assert.True(t, l3.Passed)
	assert.Equal(t, []string{
		"WARNING data type mismatch for X: expected=String, producer Producer.X=S3Uri",
	}, messages(l3.Findings))
}

// TestValidate_ProducerCycle tests that a specification-level cycle warns.
func TestValidate_ProducerCycle(t *testing.T) {
	specs := []*ir.StepSpecification{
		testutil.Spec("Ping").Needs("pong_out", ir.TypeProcessingOutput).Produces("ping_out", ir.TypeProcessingOutput).Build(),
		testutil.Spec("Pong").Needs("ping_out", ir.TypeProcessingOutput).Produces("pong_out", ir.TypeProcessingOutput).Build(),
	}
	v, err := New(testutil.Registry(t, specs...), Artifacts{})
	require.NoError(t, err)

	l3, err := v.CheckLevel("Pong", LevelSpecDependencies)
	require.NoError(t, err)
	assert.True(t, l3.Passed)
	require.Len(t, l3.Findings, 1)
	assert.Equal(t, CategoryCycle, l3.Findings[0].Category)
	assert.Equal(t, "Ping,Pong,Ping", l3.Findings[0].Details["cycle"])
}

// TestValidate_UnknownStepType tests that an unregistered name is an error.
func TestValidate_UnknownStepType(t *testing.T) {
	v := newPipelineValidator(t, Artifacts{})
	_, err := v.Validate(context.Background(), "Nonexistent")
	assert.ErrorIs(t, err, naming.ErrUnresolvedCanonicalName)
}

// TestValidateAll tests parallel validation, unmatched artifacts and scoring.
func TestValidateAll(t *testing.T) {
	a := pipelineArtifacts()
	a.Contracts = append(a.Contracts, Contract{Name: "mystery_step_contract"})
	v := newPipelineValidator(t, a, WithWorkers(2))

	report, err := v.ValidateAll(context.Background())
	require.NoError(t, err)

	var order []string
	for _, s := range report.Steps {
		order = append(order, s.StepType)
	}
	assert.Equal(t, v.StepTypes(), order)

	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, CategoryNaming, report.Unmatched[0].Category)
	assert.False(t, report.Passed())

	// L1 50, L2 50, L3 100, L4 0: (50 + 75 + 200 + 0) / 7
	assert.Equal(t, 46.4, report.Score.Overall)
	assert.Equal(t, RatingPoor, report.Score.Rating)

	assert.NotEmpty(t, report.Diagnostics())
}

// TestValidateAll_Deterministic tests that worker count does not change results.
func TestValidateAll_Deterministic(t *testing.T) {
	serial, err := newPipelineValidator(t, pipelineArtifacts(), WithWorkers(1)).ValidateAll(context.Background())
	require.NoError(t, err)
	parallel, err := newPipelineValidator(t, pipelineArtifacts(), WithWorkers(8)).ValidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

// TestValidateAll_Cancelled tests that a cancelled context stops validation.
func TestValidateAll_Cancelled(t *testing.T) {
	v := newPipelineValidator(t, pipelineArtifacts())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.ValidateAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
