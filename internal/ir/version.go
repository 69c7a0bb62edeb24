package ir

// Version constants for the plan schema and compiler.
const (
	// PlanVersion is the compiled plan schema version.
	PlanVersion = "1"

	// CompilerVersion is the stepwire compiler version.
	CompilerVersion = "0.1.0"
)
