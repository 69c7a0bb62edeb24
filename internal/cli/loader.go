package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/stepwire/internal/catalog"
	"github.com/roach88/stepwire/internal/config"
	"github.com/roach88/stepwire/internal/ctxlog"
	"github.com/roach88/stepwire/internal/registry"
)

// Command-level error codes. Catalogue loading codes (E00x, E2xx) come from
// the catalog package; registry validation codes (E1xx) from the registry.
const (
	ErrCodeGeneric       = catalog.ErrCodeGeneric
	ErrCodeNotFound      = catalog.ErrCodeNotFound
	ErrCodeCompileFailed = "E301" // unresolved slots or edge inconsistencies
	ErrCodeInvalidGraph  = "E302" // graph file unreadable or invalid
	ErrCodeInvalidConfig = "E303" // options file unreadable or invalid
	ErrCodeWriteFailed   = "E304" // output file write error
	ErrCodeAlignFailed   = "E305" // alignment levels failed
	ErrCodeTestFailed    = "E306" // scenarios failed
)

// session is the loaded state shared by commands that need a catalogue.
type session struct {
	ctx      context.Context
	options  config.Options
	catalog  *catalog.Catalog
	registry *registry.Registry
}

// openSession loads options and the catalogue directories and builds a
// frozen registry. dirs overrides the catalogues named in the options file.
// Failures are written through formatter and returned as ExitErrors.
func openSession(ctx context.Context, root *RootOptions, formatter *OutputFormatter, dirs []string, mode catalog.LoadMode) (*session, error) {
	opts, err := root.options()
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeInvalidConfig, err.Error())
	}
	if len(dirs) == 0 {
		dirs = opts.Catalogs
	}
	if len(dirs) == 0 {
		return nil, outputCommandError(formatter, ErrCodeNotFound, "no catalogue directory given (use --catalog or the catalogs option)")
	}

	cat, errs := catalog.LoadAll(dirs, mode)
	formatter.VerboseLog("Loaded %d specification(s) from %d CUE file(s)", len(cat.Specs), cat.FileCount)

	reg, regErrs := cat.Registry()
	errs = append(errs, regErrs...)
	if len(errs) > 0 {
		return nil, outputLoadErrors(formatter, errs)
	}

	logger := ctxlog.FromContext(ctx)
	for _, w := range cat.Warnings {
		logger.Warn(w.Message, "kind", w.Kind, "step_type", w.StepType)
	}

	return &session{ctx: ctx, options: opts, catalog: cat, registry: reg}, nil
}

// errorCode extracts a stable code from a catalogue or registry error.
func errorCode(err error) (string, string) {
	var loadErr *catalog.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var specErr *registry.SpecificationError
	if errors.As(err, &specErr) {
		if errors.Is(specErr.Kind, registry.ErrDuplicateSpecification) || len(specErr.Problems) == 0 {
			return catalog.ErrCodeConflict, err.Error()
		}
		return specErr.Problems[0].Code, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// outputCommandError outputs a single command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputLoadErrors outputs every catalogue error (exit code 2).
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	if len(errs) == 0 {
		errs = []error{errors.New("catalogue could not be loaded")}
	}

	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := errorCode(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // every error, not just the first
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("catalogue failed with %d error(s)", len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "%s Catalogue failed to load\n\n", formatter.Mark(false))
	for _, err := range errs {
		code, message := errorCode(err)
		var loadErr *catalog.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("catalogue failed with %d error(s)", len(errs)))
}
