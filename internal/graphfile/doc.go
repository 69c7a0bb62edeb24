// Package graphfile reads pipeline graphs from YAML or HCL files.
//
// YAML:
//
//	name: xgboost_training
//	nodes:
//	  - {name: load, step_type: CradleDataLoading, job_type: training}
//	  - {name: prep, step_type: TabularPreprocessing, after: [load]}
//	edges:
//	  - {from: prep, to: train}
//
// HCL:
//
//	name = "xgboost_training"
//
//	node "load" {
//	  step_type = "CradleDataLoading"
//	  job_type  = "training"
//	}
//
//	edge {
//	  from = "prep"
//	  to   = "train"
//	}
//
// Both forms are checked against the same JSON Schema before they become an
// ir.Graph. Structural checks that need the whole graph (unknown endpoints,
// duplicate names, cycles) belong to the compiler.
package graphfile
