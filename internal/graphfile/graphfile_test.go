package graphfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwire/internal/ir"
)

var xgboostGraph = &ir.Graph{
	Name: "xgboost_training",
	Nodes: []ir.StepNode{
		{Name: "load", StepType: "CradleDataLoading", JobType: "training"},
		{Name: "prep", StepType: "tabular_preprocessing", JobType: "training"},
		{Name: "train", StepType: "XGBoostTraining"},
		{Name: "package", StepType: "Package"},
		{Name: "register", StepType: "Registration"},
	},
	Edges: []ir.Edge{
		{From: "load", To: "prep"},
		{From: "prep", To: "train"},
		{From: "train", To: "package"},
		{From: "package", To: "register"},
	},
}

// TestLoad tests that the YAML and HCL forms of one pipeline agree.
func TestLoad(t *testing.T) {
	for _, file := range []string{"../../examples/xgboost/graphs/xgboost_training.yaml", "../../examples/xgboost/graphs/xgboost_training.hcl"} {
		t.Run(filepath.Ext(file), func(t *testing.T) {
			g, err := Load(context.Background(), file)
			require.NoError(t, err)
			assert.Equal(t, xgboostGraph, g)
		})
	}
}

// TestLoad_Unsupported tests extension dispatch.
func TestLoad_Unsupported(t *testing.T) {
	_, err := Load(context.Background(), "graph.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// TestLoad_Missing tests that a missing file surfaces the OS error.
func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestParseYAML_After tests that after lists become edges after the
// explicit ones.
func TestParseYAML_After(t *testing.T) {
	g, err := ParseYAML("g.yaml", []byte(`
nodes:
  - {name: a, step_type: Alpha}
  - {name: b, step_type: Beta, after: [a]}
  - {name: c, step_type: Gamma, after: [a, b]}
edges:
  - {from: a, to: c}
`))
	require.NoError(t, err)
	assert.Equal(t, []ir.Edge{
		{From: "a", To: "c"},
		{From: "a", To: "b"},
		{From: "a", To: "c"},
		{From: "b", To: "c"},
	}, g.Edges)
}

// TestParseJSON tests that JSON documents go through the YAML reader.
func TestParseJSON(t *testing.T) {
	g, err := Parse(FormatYAML, "g.json", []byte(`{"nodes": [{"name": "a", "step_type": "Alpha"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []ir.StepNode{{Name: "a", StepType: "Alpha"}}, g.Nodes)
	assert.Empty(t, g.Edges)
}

// TestParseYAML_Invalid tests schema and syntax failures.
func TestParseYAML_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		schema bool
	}{
		{name: "empty", src: ``, schema: true},
		{name: "missing nodes", src: `name: g`, schema: true},
		{name: "missing step type", src: `nodes: [{name: a}]`, schema: true},
		{name: "empty name", src: `nodes: [{name: "", step_type: Alpha}]`, schema: true},
		{name: "unknown field", src: `nodes: [{name: a, step_type: Alpha, kind: x}]`, schema: true},
		{name: "edge missing to", src: "nodes: []\nedges: [{from: a}]", schema: true},
		{name: "syntax", src: "nodes: [\n", schema: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML("g.yaml", []byte(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidGraphFile)

			var se *SchemaError
			assert.Equal(t, tt.schema, errors.As(err, &se))
			if tt.schema {
				assert.Equal(t, "g.yaml", se.File)
				assert.NotEmpty(t, se.Causes)
			}
		})
	}
}

// TestParseHCL_Invalid tests HCL diagnostics and schema failures.
func TestParseHCL_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "syntax", src: `node "a" {`, want: "g.hcl"},
		{name: "missing step type", src: `node "a" {}`, want: "step_type"},
		{name: "unknown attribute", src: "node \"a\" {\n  step_type = \"Alpha\"\n  kind = \"x\"\n}", want: "kind"},
		{name: "empty step type", src: "node \"a\" {\n  step_type = \"\"\n}", want: "schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHCL("g.hcl", []byte(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidGraphFile)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// TestParseHCL_After tests the after attribute in node blocks.
func TestParseHCL_After(t *testing.T) {
	g, err := ParseHCL("g.hcl", []byte(`
node "a" {
  step_type = "Alpha"
}

node "b" {
  step_type = "Beta"
  after     = ["a"]
}
`))
	require.NoError(t, err)
	assert.Equal(t, "", g.Name)
	assert.Equal(t, []ir.Edge{{From: "a", To: "b"}}, g.Edges)
}
