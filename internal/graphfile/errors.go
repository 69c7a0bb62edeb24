package graphfile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// ErrInvalidGraphFile is returned, wrapped, for every parse or schema failure.
var ErrInvalidGraphFile = errors.New("invalid graph file")

// ErrUnsupportedFormat is returned for file extensions with no parser.
var ErrUnsupportedFormat = errors.New("unsupported graph file format")

// SchemaError lists schema violations.
type SchemaError struct {
	File   string
	Causes []string
}

func (e *SchemaError) Error() string {
	msg := "graph does not match schema: " + strings.Join(e.Causes, "; ")
	if e.File != "" {
		return e.File + ": " + msg
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return ErrInvalidGraphFile }

// ParseError is a syntax or decoding failure in one file.
type ParseError struct {
	File  string
	Err   error           // YAML decoder error
	Diags hcl.Diagnostics // HCL diagnostics, with source ranges
}

func (e *ParseError) Error() string {
	if e.Diags.HasErrors() {
		return fmt.Sprintf("%s: %s", e.File, e.Diags.Error())
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidGraphFile, e.Err}
	}
	return []error{ErrInvalidGraphFile}
}
