package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwire/internal/alignment"
	"github.com/roach88/stepwire/internal/compiler"
	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/testutil"
)

// TestParse_Empty tests that an empty file yields the defaults.
func TestParse_Empty(t *testing.T) {
	opts, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)
	assert.Equal(t, 0.5, opts.ResolutionThreshold)
	assert.Equal(t, 0.6, opts.AlignmentThreshold)
	assert.Equal(t, "warn", opts.EdgePolicy)
	assert.Equal(t, []string{"/opt/ml/"}, opts.ContainerPathPrefixes)
}

// TestParse_Overrides tests that file values replace defaults and unset
// keys keep them.
func TestParse_Overrides(t *testing.T) {
	opts, err := Parse([]byte(`
resolution_threshold: 0.7
edge_policy: error
workers: 4
container_path_prefixes: [/mnt/data/]
abbreviations: {tf: tensorflow}
job_types: [inference]
type_compatibility:
  - [model_artifacts, payload_samples]
`))
	require.NoError(t, err)

	assert.Equal(t, 0.7, opts.ResolutionThreshold)
	assert.Equal(t, 0.6, opts.AlignmentThreshold)
	assert.Equal(t, "error", opts.EdgePolicy)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, []string{"/mnt/data/"}, opts.ContainerPathPrefixes)
	assert.Equal(t, map[string]string{"tf": "tensorflow"}, opts.Abbreviations)
	assert.Equal(t, []string{"inference"}, opts.JobTypes)
	assert.Equal(t, 0.8, opts.LowConfidence)
}

// TestParse_Invalid tests unknown keys and out-of-range values.
func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "unknown key", src: "thresold: 0.5", want: "thresold"},
		{name: "threshold range", src: "resolution_threshold: 1.5", want: "resolution_threshold"},
		{name: "edge policy", src: "edge_policy: ignore", want: "edge_policy"},
		{name: "workers", src: "workers: -1", want: "workers"},
		{name: "pair", src: "type_compatibility: [[a]]", want: "type_compatibility[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// TestLoad tests reading from disk.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepwire.yaml")
	require.NoError(t, os.WriteFile(path, []byte("low_confidence: 0.95\n"), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.95, opts.LowConfidence)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestScorer tests that configured pairs widen compatibility.
func TestScorer(t *testing.T) {
	out := ir.OutputSpec{LogicalName: "model", Type: ir.TypeModelArtifacts}
	in := ir.DependencySpec{LogicalName: "samples", Type: ir.TypePayloadSamples}

	assert.Zero(t, Default().Scorer().Score(out, in))

	opts := Default()
	opts.TypeCompatibility = [][]string{{"model_artifacts", "payload_samples"}}
	assert.Greater(t, opts.Scorer().Score(out, in), 0.0)
}

// TestCompiler tests that the edge policy reaches the compiler.
func TestCompiler(t *testing.T) {
	reg := testutil.Registry(t, testutil.ChainSpecs()...)
	opts := Default()
	opts.EdgePolicy = string(compiler.EdgePolicyError)

	c, err := opts.Compiler(reg, compiler.WithIDGenerator(testutil.NewFixedRunIDGenerator("run-1")))
	require.NoError(t, err)

	// B consumes X from A with no edge between them.
	g := (&ir.Graph{}).AddNode("A", "Alpha").AddNode("B", "Beta")
	_, err = c.Compile(context.Background(), *g)
	assert.ErrorIs(t, err, compiler.ErrCompilationFailed)
}

// TestValidator tests that a validator is built over a frozen registry.
func TestValidator(t *testing.T) {
	reg := testutil.Registry(t, testutil.PipelineSpecs()...)
	v, err := Default().Validator(reg, alignment.Artifacts{})
	require.NoError(t, err)
	assert.Len(t, v.StepTypes(), 6)
}
