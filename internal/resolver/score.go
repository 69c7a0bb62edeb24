package resolver

import (
	"slices"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/naming"
)

// Score tiers. The type-only tier stays below DefaultThreshold, so a
// compatible type alone never binds a slot at the default settings.
const (
	ScoreExact    = 1.0
	ScoreAlias    = 0.9
	scoreTokenMin = 0.6
	scoreTokenMax = 0.8
	scoreTypeMin  = 0.3
	scoreTypeMax  = 0.49
)

// stopWords carry no meaning for matching slot names.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true, "to": true,
	"and": true, "in": true, "on": true,
	"input": true, "output": true, "data": true, "path": true, "uri": true,
	"s3": true, "file": true, "dir": true, "directory": true, "location": true,
}

// Scorer computes compatibility between a producer output and a consumer input.
type Scorer struct {
	types *TypeCompatibility
}

// NewScorer creates a Scorer. A nil relation means DefaultTypeCompatibility.
func NewScorer(types *TypeCompatibility) *Scorer {
	if types == nil {
		types = DefaultTypeCompatibility()
	}
	return &Scorer{types: types}
}

// Score returns a confidence in [0,1] that out satisfies in.
func (s *Scorer) Score(out ir.OutputSpec, in ir.DependencySpec) float64 {
	if out.LogicalName == in.LogicalName {
		return ScoreExact
	}
	if aliasMatch(out, in) {
		return ScoreAlias
	}
	if !s.types.Compatible(out.Type, in.Type) {
		return 0
	}

	producer := meaningfulWords(append([]string{out.LogicalName}, out.Aliases...)...)
	consumerNames := append([]string{in.LogicalName}, in.Aliases...)
	consumer := meaningfulWords(append(consumerNames, in.SemanticKeywords...)...)
	if ratio := overlap(producer, consumer); ratio > 0 {
		return scoreTokenMin + (scoreTokenMax-scoreTokenMin)*ratio
	}

	sim := levenshtein.Similarity(naming.Compact(out.LogicalName), naming.Compact(in.LogicalName), nil)
	return scoreTypeMin + (scoreTypeMax-scoreTypeMin)*sim
}

func aliasMatch(out ir.OutputSpec, in ir.DependencySpec) bool {
	if slices.Contains(out.Aliases, in.LogicalName) || slices.Contains(in.Aliases, out.LogicalName) {
		return true
	}
	for _, a := range out.Aliases {
		if slices.Contains(in.Aliases, a) {
			return true
		}
	}
	return false
}

// meaningfulWords splits names into singular, lower-case words without
// stop words. A name made only of stop words keeps them.
func meaningfulWords(names ...string) map[string]bool {
	words := make(map[string]bool)
	for _, name := range names {
		all := naming.Split(name)
		kept := 0
		for _, w := range all {
			if !stopWords[w] {
				words[singular(w)] = true
				kept++
			}
		}
		if kept == 0 {
			for _, w := range all {
				words[singular(w)] = true
			}
		}
	}
	return words
}

// overlap returns |a∩b| / |a∪b|, or 0 when either set is empty.
func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for w := range a {
		if b[w] {
			common++
		}
	}
	union := len(a) + len(b) - common
	return float64(common) / float64(union)
}

func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}
