package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/stepwire/internal/ir"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the graph, catalogue or scenarios did not pass
	ExitCommandError = 2 // bad arguments, unreadable files, invalid options
)

// ExitError carries the process exit code for a failed command. Commands
// write their own output first and return an ExitError so main only has
// to exit.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError with err as its cause.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not
// ExitErrors (cobra argument errors, for one) give ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as text or as one JSON object.
// Log lines go to ErrWriter so stdout stays parseable.
type OutputFormatter struct {
	Format    string // "json" | "text"
	Writer    io.Writer
	ErrWriter io.Writer // nil means Writer
	Verbose   bool
}

// CLIResponse is the envelope of every JSON result.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" | "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError is the error member of a JSON result. Code is a catalogue
// (E0xx, E2xx), registry (E1xx) or command (E3xx) code.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data. Text mode prints it with fmt.
func (f *OutputFormatter) Success(data any) error {
	if f.Format != "json" {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
}

// Error writes a coded error. Details appear in text mode only with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a progress line to the error writer when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.errWriter(), format+"\n", args...)
	}
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Severity renders a severity label, coloured when the terminal supports it.
func (f *OutputFormatter) Severity(sev ir.Severity) string {
	label := fmt.Sprintf("%-8s", sev)
	switch sev {
	case ir.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case ir.SeverityError:
		return color.RedString("%s", label)
	case ir.SeverityWarning:
		return color.YellowString("%s", label)
	default:
		return color.CyanString("%s", label)
	}
}

// Mark renders a pass/fail marker.
func (f *OutputFormatter) Mark(ok bool) string {
	if ok {
		return color.GreenString("✓")
	}
	return color.RedString("✗")
}

// Diagnostics writes diagnostics as indented text lines.
func (f *OutputFormatter) Diagnostics(diags []ir.Diagnostic) {
	for _, d := range diags {
		where := d.Node
		if d.Slot != "" {
			where += "." + d.Slot
		}
		if where == "" {
			where = d.StepType
		}
		fmt.Fprintf(f.Writer, "  %s %s", f.Severity(d.Severity), d.Kind)
		if where != "" {
			fmt.Fprintf(f.Writer, " [%s]", where)
		}
		fmt.Fprintf(f.Writer, ": %s\n", d.Message)
		if d.Remediation != "" {
			fmt.Fprintf(f.Writer, "           → %s\n", d.Remediation)
		}
	}
}
