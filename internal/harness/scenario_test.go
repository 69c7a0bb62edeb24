package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadScenario tests parsing and path resolution of a scenario file.
func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/xgboost_training.yaml")
	require.NoError(t, err)

	assert.Equal(t, "xgboost_training", s.Name)
	assert.Equal(t, ModeCompile, s.mode())
	assert.Equal(t, []string{filepath.Join("..", "..", "examples", "xgboost", "catalog")}, s.Catalogs)
	assert.Equal(t, filepath.Join("..", "..", "examples", "xgboost", "graphs", "xgboost_training.yaml"), s.GraphFile)
	require.Len(t, s.Assertions, 7)
	assert.Equal(t, AssertOrder, s.Assertions[1].Type)
	assert.Equal(t, []string{"load", "prep", "train", "package", "register"}, s.Assertions[1].Nodes)
	assert.InDelta(t, 0.9, s.Assertions[3].MinConfidence, 1e-9)
}

// TestLoadScenarios tests that a directory loads in file name order.
func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"cycle",
		"missing_producer",
		"partial_preview",
		"strict_edges",
		"training_alignment",
		"xgboost_training",
	}, names)
}

// TestLoadScenario_Invalid tests scenario validation errors.
func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "catalogs: [c]\ngraph_file: g.yaml\nassertions: [{type: succeeds}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing catalogs",
			content: "name: x\ngraph_file: g.yaml\nassertions: [{type: succeeds}]\n",
			wantErr: "at least one catalog",
		},
		{
			name:    "compile without graph",
			content: "name: x\ncatalogs: [c]\nassertions: [{type: succeeds}]\n",
			wantErr: "graph or graph_file is required",
		},
		{
			name:    "both graph forms",
			content: "name: x\ncatalogs: [c]\ngraph_file: g.yaml\ngraph: {nodes: []}\nassertions: [{type: succeeds}]\n",
			wantErr: "not both",
		},
		{
			name:    "align with graph",
			content: "name: x\ncatalogs: [c]\nmode: align\ngraph_file: g.yaml\nassertions: [{type: rating, rating: Good}]\n",
			wantErr: "align mode takes no graph",
		},
		{
			name:    "unknown mode",
			content: "name: x\ncatalogs: [c]\nmode: run\ngraph_file: g.yaml\nassertions: [{type: succeeds}]\n",
			wantErr: `unknown mode "run"`,
		},
		{
			name:    "no assertions",
			content: "name: x\ncatalogs: [c]\ngraph_file: g.yaml\n",
			wantErr: "at least one assertion",
		},
		{
			name:    "order without nodes",
			content: "name: x\ncatalogs: [c]\ngraph_file: g.yaml\nassertions: [{type: order}]\n",
			wantErr: "nodes list is required",
		},
		{
			name:    "binding without input",
			content: "name: x\ncatalogs: [c]\ngraph_file: g.yaml\nassertions: [{type: binding, consumer: a}]\n",
			wantErr: "consumer and input are required",
		},
		{
			name:    "diagnostic without kind",
			content: "name: x\ncatalogs: [c]\ngraph_file: g.yaml\nassertions: [{type: diagnostic}]\n",
			wantErr: "kind is required",
		},
		{
			name:    "level in compile mode",
			content: "name: x\ncatalogs: [c]\ngraph_file: g.yaml\nassertions: [{type: level, step_type: A, level: 1, passed: true}]\n",
			wantErr: "level is not available in compile mode",
		},
		{
			name:    "level out of range",
			content: "name: x\ncatalogs: [c]\nmode: align\nassertions: [{type: level, step_type: A, level: 5, passed: true}]\n",
			wantErr: "level (1-4)",
		},
		{
			name:    "level without passed",
			content: "name: x\ncatalogs: [c]\nmode: align\nassertions: [{type: level, step_type: A, level: 1}]\n",
			wantErr: "passed are required",
		},
		{
			name:    "order in align mode",
			content: "name: x\ncatalogs: [c]\nmode: align\nassertions: [{type: order, nodes: [a]}]\n",
			wantErr: "order is not available in align mode",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ncatalogs: [c]\ngraph_file: g.yaml\nassertions: [{type: eventually}]\n",
			wantErr: `unknown assertion type "eventually"`,
		},
		{
			name:    "unknown field",
			content: "name: x\ncatalogs: [c]\ngraph_file: g.yaml\nflows: []\nassertions: [{type: succeeds}]\n",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestLoadScenario_MissingFile tests the read error.
func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
