// Package catalog loads step specifications and their alignment artifacts
// from CUE.
//
// A catalogue directory holds one CUE package with up to five top-level
// structs keyed by name:
//
//	step:     XGBoostTraining: { node_type: "internal", dependencies: {...}, outputs: {...} }
//	contract: xgboost_training: { inputs: {...}, outputs: {...}, env: {...}, arguments: {...} }
//	script:   xgboost_training: { path: "scripts/xgboost_training.py" }
//	builder:  xgboost_training: { required_fields: [...], accessed_fields: [...] }
//	config:   xgboost_training: { fields: { name: { required: true } } }
//
// Field order in CUE is preserved, so dependencies and outputs keep their
// declaration order.
package catalog
