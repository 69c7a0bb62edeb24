// Package harness runs conformance scenarios against the compiler and the
// alignment validator.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: xgboost_training
//	description: "Training pipeline binds end to end"
//	catalogs:
//	  - ../catalog/xgboost
//	graph:
//	  nodes:
//	    - {name: load, step_type: CradleDataLoading, job_type: training}
//	    - {name: prep, step_type: TabularPreprocessing, after: [load]}
//	options:
//	  edge_policy: error
//	assertions:
//	  - type: order
//	    nodes: [load, prep]
//	  - type: binding
//	    consumer: prep
//	    input: DATA
//	    producer: load
//
// Catalogue and graph file paths are relative to the scenario file. A
// scenario gives either an inline graph or graph_file. options takes the
// same keys as the options file.
//
// # Modes
//
//   - compile (default): compile the graph; assertions see the plan or the error
//   - preview: resolve without failing on unresolved slots
//   - align: run the alignment validator over the catalogue
//
// # Assertion Types
//
//   - succeeds / fails: compilation outcome; fails may name a diagnostic kind
//   - order: exact node order of the plan
//   - binding: a slot is bound, optionally to a given producer and output
//   - unbound: a slot has no binding
//   - binding_count: number of bindings
//   - diagnostic: a diagnostic of a given kind (and severity, node) exists
//   - level: an alignment level passed or failed for a step type
//   - rating: the overall alignment rating
//
// # Deterministic Testing
//
// Plans get a fixed run ID (scenario run_id or "test-run-default"), so the
// canonical plan can be compared against golden files.
package harness
