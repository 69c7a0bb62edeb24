package resolver

import (
	"strings"

	"github.com/roach88/stepwire/internal/ir"
)

// TypeCompatibility is a symmetric relation over semantic types.
// Every type is compatible with itself.
type TypeCompatibility struct {
	pairs map[[2]ir.SemanticType]bool
}

// NewTypeCompatibility returns a relation where types match only themselves.
func NewTypeCompatibility() *TypeCompatibility {
	return &TypeCompatibility{pairs: make(map[[2]ir.SemanticType]bool)}
}

// DefaultTypeCompatibility returns the built-in relation.
func DefaultTypeCompatibility() *TypeCompatibility {
	c := NewTypeCompatibility()
	c.Allow(ir.TypeTrainingData, ir.TypeProcessingOutput)
	c.Allow(ir.TypeProcessingOutput, ir.TypePayloadSamples)
	c.Allow(ir.TypeHyperparameters, ir.TypeCustomProperty)
	return c
}

// Allow marks a and b compatible in both directions.
func (c *TypeCompatibility) Allow(a, b ir.SemanticType) {
	a, b = normType(a), normType(b)
	c.pairs[[2]ir.SemanticType{a, b}] = true
	c.pairs[[2]ir.SemanticType{b, a}] = true
}

// Compatible reports whether a producer of type a may satisfy a consumer of type b.
func (c *TypeCompatibility) Compatible(a, b ir.SemanticType) bool {
	a, b = normType(a), normType(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || c.pairs[[2]ir.SemanticType{a, b}]
}

func normType(t ir.SemanticType) ir.SemanticType {
	return ir.SemanticType(strings.ToLower(strings.TrimSpace(string(t))))
}
