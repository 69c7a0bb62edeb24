// Package alignment checks that the artifacts describing one step type
// agree with each other before any graph is compiled.
//
// Four levels are checked per step type:
//
//	L1 script ↔ contract        container paths, environment variables, arguments
//	L2 contract ↔ specification logical names and data types
//	L3 specification ↔ deps     every pipeline dependency resolves against the catalogue
//	L4 builder ↔ configuration  field sets agree
//
// Every level always runs; a step type may pass some levels and fail others.
// Findings are structured records and are never rendered here.
package alignment
