package harness

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stepwire/internal/alignment"
	"github.com/roach88/stepwire/internal/catalog"
	"github.com/roach88/stepwire/internal/compiler"
	"github.com/roach88/stepwire/internal/config"
	"github.com/roach88/stepwire/internal/graphfile"
	"github.com/roach88/stepwire/internal/ir"
)

// DefaultRunID is the plan run ID of scenarios that set none.
const DefaultRunID = "test-run-default"

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`

	// Plan is set when compile mode succeeded.
	Plan *ir.CompiledPlan `json:"plan,omitempty"`

	// Preview is set when preview mode succeeded.
	Preview *compiler.Preview `json:"preview,omitempty"`

	// Alignment is set in align mode.
	Alignment *alignment.Report `json:"alignment,omitempty"`

	// Err is the compilation or preview error, if any. It is an outcome
	// under test, not a harness failure.
	Err error `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failed assertion.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Run executes a scenario. The returned error reports a scenario that
// could not be set up (catalogue, graph or options); compilation errors
// are recorded in Result.Err and judged by the assertions.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cat, errs := catalog.LoadAll(scenario.Catalogs, catalog.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load catalogs: %w", errs[0])
	}
	reg, errs := cat.Registry()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to register specifications: %w", errs[0])
	}

	opts, err := scenarioOptions(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	switch scenario.mode() {
	case ModeAlign:
		v, err := opts.Validator(reg, cat.Artifacts)
		if err != nil {
			return nil, fmt.Errorf("failed to create validator: %w", err)
		}
		steps := scenario.Steps
		if len(steps) == 0 {
			steps = v.StepTypes()
		}
		result.Alignment, err = v.ValidateSteps(ctx, steps)
		if err != nil {
			return nil, fmt.Errorf("failed to validate alignment: %w", err)
		}

	default:
		g, err := scenarioGraph(ctx, scenario)
		if err != nil {
			return nil, err
		}
		runID := scenario.RunID
		if runID == "" {
			runID = DefaultRunID
		}
		c, err := opts.Compiler(reg, compiler.WithIDGenerator(compiler.NewFixedGenerator(runID)))
		if err != nil {
			return nil, fmt.Errorf("failed to create compiler: %w", err)
		}
		if scenario.mode() == ModePreview {
			result.Preview, result.Err = c.Preview(ctx, *g)
		} else {
			result.Plan, result.Err = c.Compile(ctx, *g)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func scenarioOptions(s *Scenario) (config.Options, error) {
	if s.Options.Kind == 0 {
		return config.Default(), nil
	}
	data, err := yaml.Marshal(&s.Options)
	if err != nil {
		return config.Options{}, fmt.Errorf("failed to encode options: %w", err)
	}
	opts, err := config.Parse(data)
	if err != nil {
		return config.Options{}, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

func scenarioGraph(ctx context.Context, s *Scenario) (*ir.Graph, error) {
	if s.GraphFile != "" {
		g, err := graphfile.Load(ctx, s.GraphFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph: %w", err)
		}
		return g, nil
	}
	data, err := yaml.Marshal(&s.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	g, err := graphfile.ParseYAML(s.Name+".graph", data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	return g, nil
}
