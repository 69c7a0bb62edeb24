// Package resolver scores producer outputs against consumer inputs and
// binds each input slot of a step to the best upstream output.
//
// Scores are tiered so that contractual agreement always outranks
// similarity: exact logical name 1.0, alias 0.9, compatible type with a
// shared word 0.6-0.8, compatible type alone 0.3-0.49, otherwise 0.
package resolver
