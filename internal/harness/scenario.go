package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario modes.
const (
	ModeCompile = "compile"
	ModePreview = "preview"
	ModeAlign   = "align"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalogs lists catalogue directories, merged in order.
	Catalogs []string `yaml:"catalogs"`

	// Mode is compile, preview or align. Empty means compile.
	Mode string `yaml:"mode,omitempty"`

	// Graph is an inline graph document in graph file form.
	Graph yaml.Node `yaml:"graph,omitempty"`

	// GraphFile is a YAML or HCL graph file.
	GraphFile string `yaml:"graph_file,omitempty"`

	// Options override the default compiler and validator options.
	Options yaml.Node `yaml:"options,omitempty"`

	// Steps limits align mode to these step types. Empty means all.
	Steps []string `yaml:"steps,omitempty"`

	// RunID is the fixed plan run ID. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the outcome of a scenario. Which fields apply depends
// on Type.
type Assertion struct {
	Type string `yaml:"type"`

	// order
	Nodes []string `yaml:"nodes,omitempty"`

	// binding, unbound
	Consumer      string  `yaml:"consumer,omitempty"`
	Input         string  `yaml:"input,omitempty"`
	Producer      string  `yaml:"producer,omitempty"`
	Output        string  `yaml:"output,omitempty"`
	MinConfidence float64 `yaml:"min_confidence,omitempty"`

	// fails, diagnostic
	Kind     string `yaml:"kind,omitempty"`
	Severity string `yaml:"severity,omitempty"`
	Node     string `yaml:"node,omitempty"`

	// binding_count
	Count int `yaml:"count,omitempty"`

	// level, rating
	StepType string `yaml:"step_type,omitempty"`
	Level    int    `yaml:"level,omitempty"`
	Passed   *bool  `yaml:"passed,omitempty"`
	Rating   string `yaml:"rating,omitempty"`
}

// Assertion type constants.
const (
	AssertSucceeds     = "succeeds"
	AssertFails        = "fails"
	AssertOrder        = "order"
	AssertBinding      = "binding"
	AssertUnbound      = "unbound"
	AssertBindingCount = "binding_count"
	AssertDiagnostic   = "diagnostic"
	AssertLevel        = "level"
	AssertRating       = "rating"
)

// LoadScenario reads and parses a scenario YAML file. Catalogue and graph
// paths are resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, dir := range scenario.Catalogs {
		scenario.Catalogs[i] = resolvePath(base, dir)
	}
	if scenario.GraphFile != "" {
		scenario.GraphFile = resolvePath(base, scenario.GraphFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, sorted by name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var out []*Scenario
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

func (s *Scenario) mode() string {
	if s.Mode == "" {
		return ModeCompile
	}
	return s.Mode
}

// HasSnapshot reports whether the scenario produces a golden snapshot.
// Only compile mode does.
func (s *Scenario) HasSnapshot() bool {
	return s.mode() == ModeCompile
}

func (s *Scenario) hasGraph() bool {
	return s.Graph.Kind != 0 || s.GraphFile != ""
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Catalogs) == 0 {
		return fmt.Errorf("at least one catalog is required")
	}

	switch s.mode() {
	case ModeCompile, ModePreview:
		if !s.hasGraph() {
			return fmt.Errorf("graph or graph_file is required in %s mode", s.mode())
		}
		if s.Graph.Kind != 0 && s.GraphFile != "" {
			return fmt.Errorf("set graph or graph_file, not both")
		}
	case ModeAlign:
		if s.hasGraph() {
			return fmt.Errorf("align mode takes no graph")
		}
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("at least one assertion is required")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(s.mode(), a, i); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(mode string, a Assertion, index int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	alignOnly := a.Type == AssertLevel || a.Type == AssertRating
	if alignOnly != (mode == ModeAlign) {
		return fmt.Errorf("assertions[%d]: %s is not available in %s mode", index, a.Type, mode)
	}

	switch a.Type {
	case AssertSucceeds, AssertFails:
	case AssertOrder:
		if len(a.Nodes) == 0 {
			return fmt.Errorf("assertions[%d]: nodes list is required for order", index)
		}
	case AssertBinding, AssertUnbound:
		if a.Consumer == "" || a.Input == "" {
			return fmt.Errorf("assertions[%d]: consumer and input are required for %s", index, a.Type)
		}
	case AssertBindingCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for binding_count", index)
		}
	case AssertDiagnostic:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for diagnostic", index)
		}
	case AssertLevel:
		if a.StepType == "" || a.Level < 1 || a.Level > 4 || a.Passed == nil {
			return fmt.Errorf("assertions[%d]: step_type, level (1-4) and passed are required for level", index)
		}
	case AssertRating:
		if a.Rating == "" {
			return fmt.Errorf("assertions[%d]: rating is required for rating", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
