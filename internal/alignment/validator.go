package alignment

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/stepwire/internal/compiler"
	"github.com/roach88/stepwire/internal/ctxlog"
	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/naming"
	"github.com/roach88/stepwire/internal/registry"
	"github.com/roach88/stepwire/internal/resolver"
)

// DefaultPathPrefixes are the container roots the script scan looks for.
var DefaultPathPrefixes = []string{"/opt/ml/"}

// Validator runs alignment checks against a frozen registry.
// It is safe for concurrent use once constructed.
type Validator struct {
	registry  *registry.Registry
	names     *naming.Resolver
	scorer    *resolver.Scorer
	threshold float64
	prefixes  []string
	workers   int

	index     artifactIndex
	unmatched []Finding

	producersOnce sync.Once
	producers     compiler.Adjacency // producer step type → consumer step types
}

// Option configures a Validator.
type Option func(*Validator)

// WithThreshold sets the L3 resolution threshold. The default is
// resolver.AlignmentThreshold.
func WithThreshold(t float64) Option {
	return func(v *Validator) { v.threshold = t }
}

// WithWorkers bounds ValidateAll parallelism. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(v *Validator) { v.workers = n }
}

// WithPathPrefixes replaces DefaultPathPrefixes.
func WithPathPrefixes(prefixes ...string) Option {
	return func(v *Validator) { v.prefixes = prefixes }
}

// WithNames replaces the canonical name resolver.
func WithNames(n *naming.Resolver) Option {
	return func(v *Validator) { v.names = n }
}

// WithScorer replaces the L3 compatibility scorer.
func WithScorer(s *resolver.Scorer) Option {
	return func(v *Validator) { v.scorer = s }
}

// New indexes artifacts by canonical step type. Artifacts whose names do
// not canonicalize are reported in Report.Unmatched rather than failing.
func New(reg *registry.Registry, artifacts Artifacts, opts ...Option) (*Validator, error) {
	if !reg.Frozen() {
		return nil, compiler.ErrRegistryNotFrozen
	}
	v := &Validator{
		registry:  reg,
		threshold: resolver.AlignmentThreshold,
		prefixes:  DefaultPathPrefixes,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.names == nil {
		v.names = naming.NewResolver(reg.AllRegisteredTypes())
	}
	if v.scorer == nil {
		v.scorer = resolver.NewScorer(nil)
	}
	if v.workers < 1 {
		v.workers = runtime.GOMAXPROCS(0)
	}
	v.index = v.buildIndex(artifacts)
	return v, nil
}

// StepTypes returns every registered step type in sorted order.
func (v *Validator) StepTypes() []string {
	return v.registry.AllRegisteredTypes()
}

// Validate runs all four levels for one step type. stepType may be any
// name that canonicalizes to a registered key.
func (v *Validator) Validate(ctx context.Context, stepType string) (StepReport, error) {
	key, err := v.names.Canonicalize(stepType)
	if err != nil {
		return StepReport{}, err
	}
	spec, err := v.registry.Lookup(key)
	if err != nil {
		return StepReport{}, err
	}

	report := StepReport{
		StepType: key,
		Levels: []LevelResult{
			v.checkScriptContract(key),
			v.checkContractSpec(key, spec),
			v.checkSpecDependencies(key, spec),
			v.checkBuilderConfig(key),
		},
	}

	logger := ctxlog.FromContext(ctx)
	for _, l := range report.Levels {
		logger.Debug("alignment level checked",
			"step_type", key,
			"level", l.Level.String(),
			"passed", l.Passed,
			"skipped", l.Skipped,
			"findings", len(l.Findings))
	}
	return report, nil
}

// ValidateAll validates every registered step type in parallel and scores
// the result. Step reports are in sorted step-type order.
func (v *Validator) ValidateAll(ctx context.Context) (*Report, error) {
	return v.ValidateSteps(ctx, v.StepTypes())
}

// ValidateSteps validates the named step types in parallel.
func (v *Validator) ValidateSteps(ctx context.Context, stepTypes []string) (*Report, error) {
	steps := make([]StepReport, len(stepTypes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i, st := range stepTypes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := v.Validate(gctx, st)
			if err != nil {
				return fmt.Errorf("validate %s: %w", st, err)
			}
			steps[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Steps:     steps,
		Unmatched: v.unmatched,
		Score:     ScoreSteps(steps),
	}
	ctxlog.FromContext(ctx).Info("alignment validated",
		"steps", len(steps),
		"passed", report.Passed(),
		"score", report.Score.Overall,
		"rating", report.Score.Rating)
	return report, nil
}

// CheckLevel runs a single level for one step type.
func (v *Validator) CheckLevel(stepType string, level Level) (LevelResult, error) {
	key, err := v.names.Canonicalize(stepType)
	if err != nil {
		return LevelResult{}, err
	}
	spec, err := v.registry.Lookup(key)
	if err != nil {
		return LevelResult{}, err
	}
	switch level {
	case LevelScriptContract:
		return v.checkScriptContract(key), nil
	case LevelContractSpec:
		return v.checkContractSpec(key, spec), nil
	case LevelSpecDependencies:
		return v.checkSpecDependencies(key, spec), nil
	case LevelBuilderConfig:
		return v.checkBuilderConfig(key), nil
	default:
		return LevelResult{}, fmt.Errorf("unknown alignment level %d", int(level))
	}
}

// canonical resolves an artifact's step type from its explicit step type
// or its file-derived name.
func (v *Validator) canonical(name, stepType string) (string, error) {
	if stepType != "" {
		return v.names.Canonicalize(stepType)
	}
	return v.names.Canonicalize(naming.FromFileName(name))
}

func (v *Validator) buildIndex(a Artifacts) artifactIndex {
	idx := artifactIndex{
		contracts: make(map[string]*Contract),
		scripts:   make(map[string]*Script),
		builders:  make(map[string]*Builder),
		configs:   make(map[string]*Config),
	}

	for i := range a.Contracts {
		c := &a.Contracts[i]
		if key, ok := v.claim(LevelContractSpec, "contract", c.Name, c.StepType); ok {
			idx.contracts[key] = c
		}
	}
	for i := range a.Scripts {
		s := &a.Scripts[i]
		if key, ok := v.claim(LevelScriptContract, "script", s.Name, s.StepType); ok {
			idx.scripts[key] = s
		}
	}
	for i := range a.Builders {
		b := &a.Builders[i]
		if key, ok := v.claim(LevelBuilderConfig, "builder", b.Name, b.StepType); ok {
			idx.builders[key] = b
		}
	}
	for i := range a.Configs {
		c := &a.Configs[i]
		if key, ok := v.claim(LevelBuilderConfig, "config", c.Name, c.StepType); ok {
			idx.configs[key] = c
		}
	}
	return idx
}

// claim canonicalizes one artifact name, recording an ERROR when it fails.
func (v *Validator) claim(level Level, kind, name, stepType string) (string, bool) {
	key, err := v.canonical(name, stepType)
	if err == nil {
		return key, true
	}
	raw := stepType
	if raw == "" {
		raw = name
	}
	f := Finding{
		Level:          level,
		Severity:       ir.SeverityError,
		Category:       CategoryNaming,
		StepType:       raw,
		Message:        fmt.Sprintf("%s %q does not match any registered step type: %v", kind, raw, err),
		Recommendation: "rename the artifact after its step type or set step_type explicitly",
		Details:        map[string]string{"artifact": kind, "name": name},
	}
	var unresolved *naming.UnresolvedNameError
	if errors.As(err, &unresolved) && len(unresolved.Suggestions) > 0 {
		f.Details["suggestions"] = joinQuoted(unresolved.Suggestions)
	}
	v.unmatched = append(v.unmatched, f)
	return "", false
}
