// Package compiler turns a graph of step nodes into a CompiledPlan.
//
// Compile validates structure, rejects cycles, orders nodes topologically
// (ties broken by insertion order), then resolves each node's inputs
// against the nodes placed before it. Structural problems abort at once;
// unresolved required slots are collected across all nodes and reported
// together as a CompilationFailedError.
package compiler
