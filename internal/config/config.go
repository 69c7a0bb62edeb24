// Package config loads compiler and validator options from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stepwire/internal/alignment"
	"github.com/roach88/stepwire/internal/compiler"
	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/naming"
	"github.com/roach88/stepwire/internal/registry"
	"github.com/roach88/stepwire/internal/resolver"
)

// ErrInvalidOptions is returned, wrapped, when an options file fails Validate.
var ErrInvalidOptions = errors.New("invalid options")

// Options are the tunables shared by the compiler and the alignment
// validator. Zero values in a file leave the default in place.
type Options struct {
	ResolutionThreshold   float64           `yaml:"resolution_threshold"`
	AlignmentThreshold    float64           `yaml:"alignment_threshold"`
	EdgePolicy            string            `yaml:"edge_policy"`
	LowConfidence         float64           `yaml:"low_confidence"`
	AmbiguityMargin       float64           `yaml:"ambiguity_margin"`
	Workers               int               `yaml:"workers"`
	ContainerPathPrefixes []string          `yaml:"container_path_prefixes"`
	Abbreviations         map[string]string `yaml:"abbreviations"`
	JobTypes              []string          `yaml:"job_types"`
	// TypeCompatibility lists extra symmetric pairs, e.g. [model_artifacts, payload_samples].
	TypeCompatibility [][]string `yaml:"type_compatibility"`
	// Catalogs are catalogue directories used when no --catalog flag is given.
	Catalogs []string `yaml:"catalogs"`
}

// Default returns the built-in options.
func Default() Options {
	return Options{
		ResolutionThreshold:   resolver.DefaultThreshold,
		AlignmentThreshold:    resolver.AlignmentThreshold,
		EdgePolicy:            string(compiler.EdgePolicyWarn),
		LowConfidence:         compiler.DefaultLowConfidence,
		AmbiguityMargin:       resolver.DefaultAmbiguityMargin,
		ContainerPathPrefixes: append([]string(nil), alignment.DefaultPathPrefixes...),
	}
}

// Load reads path and merges it over Default.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading options: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML options and merges them over Default. Unknown keys
// are rejected.
func Parse(data []byte) (Options, error) {
	var file Options
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("parsing options: %w", err)
	}

	opts := Default()
	if err := mergo.Merge(&opts, file, mergo.WithOverride); err != nil {
		return Options{}, fmt.Errorf("merging options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks ranges and enumerations.
func (o Options) Validate() error {
	var problems []error
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"resolution_threshold", o.ResolutionThreshold},
		{"alignment_threshold", o.AlignmentThreshold},
		{"low_confidence", o.LowConfidence},
		{"ambiguity_margin", o.AmbiguityMargin},
	} {
		if f.v < 0 || f.v > 1 {
			problems = append(problems, fmt.Errorf("%s must be within [0,1], got %g", f.name, f.v))
		}
	}
	switch compiler.EdgePolicy(o.EdgePolicy) {
	case compiler.EdgePolicyWarn, compiler.EdgePolicyError:
	default:
		problems = append(problems, fmt.Errorf("edge_policy must be %q or %q, got %q",
			compiler.EdgePolicyWarn, compiler.EdgePolicyError, o.EdgePolicy))
	}
	if o.Workers < 0 {
		problems = append(problems, fmt.Errorf("workers must not be negative, got %d", o.Workers))
	}
	for i, pair := range o.TypeCompatibility {
		if len(pair) != 2 {
			problems = append(problems, fmt.Errorf("type_compatibility[%d] must name exactly two types", i))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(problems...))
}

// Names builds a canonical name resolver over keys.
func (o Options) Names(keys []string) *naming.Resolver {
	return naming.NewResolver(keys,
		naming.WithAbbreviations(o.Abbreviations),
		naming.WithJobTypes(o.JobTypes...),
	)
}

// Scorer builds a compatibility scorer with the extra type pairs applied.
func (o Options) Scorer() *resolver.Scorer {
	types := resolver.DefaultTypeCompatibility()
	for _, pair := range o.TypeCompatibility {
		if len(pair) == 2 {
			types.Allow(ir.SemanticType(pair[0]), ir.SemanticType(pair[1]))
		}
	}
	return resolver.NewScorer(types)
}

// Compiler builds a compiler for reg. extra options are applied last.
func (o Options) Compiler(reg *registry.Registry, extra ...compiler.Option) (*compiler.Compiler, error) {
	names := o.Names(reg.AllRegisteredTypes())
	res := resolver.New(
		resolver.WithThreshold(o.ResolutionThreshold),
		resolver.WithAmbiguityMargin(o.AmbiguityMargin),
		resolver.WithScorer(o.Scorer()),
		resolver.WithNames(names),
	)
	opts := []compiler.Option{
		compiler.WithNames(names),
		compiler.WithResolver(res),
		compiler.WithEdgePolicy(compiler.EdgePolicy(o.EdgePolicy)),
		compiler.WithLowConfidence(o.LowConfidence),
	}
	return compiler.New(reg, append(opts, extra...)...)
}

// Validator builds an alignment validator for reg and artifacts.
func (o Options) Validator(reg *registry.Registry, artifacts alignment.Artifacts) (*alignment.Validator, error) {
	return alignment.New(reg, artifacts,
		alignment.WithThreshold(o.AlignmentThreshold),
		alignment.WithWorkers(o.Workers),
		alignment.WithPathPrefixes(o.ContainerPathPrefixes...),
		alignment.WithNames(o.Names(reg.AllRegisteredTypes())),
		alignment.WithScorer(o.Scorer()),
	)
}
