package alignment

// ContractPath binds a logical name to a container path.
type ContractPath struct {
	LogicalName string `json:"logical_name"`
	Path        string `json:"path"`
	DataType    string `json:"data_type,omitempty"`
}

// ContractArgument is a command-line argument the script must accept.
type ContractArgument struct {
	Name     string `json:"name"` // CLI form, e.g. "job-type"
	Required bool   `json:"required,omitempty"`
}

// Contract is the executable contract of a step's script: the paths it
// reads and writes and the environment it expects.
type Contract struct {
	// Name is the contract's identifier, usually file-derived.
	Name string `json:"name"`
	// StepType, when set, skips canonicalization of Name.
	StepType    string             `json:"step_type,omitempty"`
	EntryPoint  string             `json:"entry_point,omitempty"`
	Inputs      []ContractPath     `json:"inputs,omitempty"`
	Outputs     []ContractPath     `json:"outputs,omitempty"`
	RequiredEnv []string           `json:"required_env,omitempty"`
	OptionalEnv map[string]string  `json:"optional_env,omitempty"` // name → default
	Arguments   []ContractArgument `json:"arguments,omitempty"`
}

// Script is the source text of a step's executable.
type Script struct {
	Name     string `json:"name"`
	StepType string `json:"step_type,omitempty"`
	Source   string `json:"source"`
}

// Builder describes which configuration fields a step builder uses.
type Builder struct {
	Name           string   `json:"name"`
	StepType       string   `json:"step_type,omitempty"`
	RequiredFields []string `json:"required_fields,omitempty"`
	AccessedFields []string `json:"accessed_fields,omitempty"`
}

// ConfigField is one field of a step configuration class.
type ConfigField struct {
	Name     string `json:"name"`
	Required bool   `json:"required,omitempty"`
}

// Config describes a step's configuration object.
type Config struct {
	Name     string        `json:"name"`
	StepType string        `json:"step_type,omitempty"`
	Fields   []ConfigField `json:"fields,omitempty"`
}

// Artifacts is everything the validator checks besides the specifications.
type Artifacts struct {
	Contracts []Contract `json:"contracts,omitempty"`
	Scripts   []Script   `json:"scripts,omitempty"`
	Builders  []Builder  `json:"builders,omitempty"`
	Configs   []Config   `json:"configs,omitempty"`
}

// artifactIndex maps canonical step types to their artifacts.
type artifactIndex struct {
	contracts map[string]*Contract
	scripts   map[string]*Script
	builders  map[string]*Builder
	configs   map[string]*Config
}
