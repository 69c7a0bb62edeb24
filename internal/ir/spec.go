package ir

import "slices"

// SemanticType tags what kind of artifact a slot carries.
type SemanticType string

const (
	TypeModelArtifacts   SemanticType = "model_artifacts"
	TypeProcessingOutput SemanticType = "processing_output"
	TypeTrainingData     SemanticType = "training_data"
	TypeHyperparameters  SemanticType = "hyperparameters"
	TypePayloadSamples   SemanticType = "payload_samples"
	TypeCustomProperty   SemanticType = "custom_property"
)

// NodeType describes the shape of a step: whether it consumes, produces, or both.
type NodeType string

const (
	NodeSource   NodeType = "source"   // outputs only
	NodeInternal NodeType = "internal" // dependencies and outputs
	NodeSink     NodeType = "sink"     // dependencies only
	NodeSingular NodeType = "singular" // neither
)

// ValidNodeTypes defines allowed node types. Empty is allowed and means unchecked.
var ValidNodeTypes = map[NodeType]bool{
	NodeSource:   true,
	NodeInternal: true,
	NodeSink:     true,
	NodeSingular: true,
}

// StepSpecification is the declared interface of one step type.
type StepSpecification struct {
	StepType     string           `json:"step_type"`
	NodeType     NodeType         `json:"node_type,omitempty"`
	Dependencies []DependencySpec `json:"dependencies"`
	Outputs      []OutputSpec     `json:"outputs"`
}

// DependencySpec declares one input slot.
type DependencySpec struct {
	LogicalName       string       `json:"logical_name"`
	Type              SemanticType `json:"dependency_type"`
	Required          bool         `json:"required"`
	Aliases           []string     `json:"aliases,omitempty"`
	CompatibleSources []string     `json:"compatible_sources,omitempty"`
	SemanticKeywords  []string     `json:"semantic_keywords,omitempty"`
	DataType          string       `json:"data_type,omitempty"`
	Description       string       `json:"description,omitempty"`
}

// OutputSpec declares one output slot.
type OutputSpec struct {
	LogicalName  string       `json:"logical_name"`
	Type         SemanticType `json:"output_type"`
	Aliases      []string     `json:"aliases,omitempty"`
	PropertyPath string       `json:"property_path,omitempty"`
	DataType     string       `json:"data_type,omitempty"`
	Description  string       `json:"description,omitempty"`
}

// Dependency returns the dependency whose logical name or alias is name.
func (s *StepSpecification) Dependency(name string) (DependencySpec, bool) {
	for _, d := range s.Dependencies {
		if d.Matches(name) {
			return d, true
		}
	}
	return DependencySpec{}, false
}

// Output returns the output whose logical name or alias is name.
func (s *StepSpecification) Output(name string) (OutputSpec, bool) {
	for _, o := range s.Outputs {
		if o.Matches(name) {
			return o, true
		}
	}
	return OutputSpec{}, false
}

// Matches reports whether name is the logical name or one of the aliases.
func (d DependencySpec) Matches(name string) bool {
	return d.LogicalName == name || slices.Contains(d.Aliases, name)
}

// Matches reports whether name is the logical name or one of the aliases.
func (o OutputSpec) Matches(name string) bool {
	return o.LogicalName == name || slices.Contains(o.Aliases, name)
}
