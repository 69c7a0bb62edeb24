package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stepwire/internal/catalog"
	"github.com/roach88/stepwire/internal/ir"
)

// ValidationResult summarizes a valid catalogue.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Files          int      `json:"files"`
	Specifications []string `json:"specifications"`
	Contracts      int      `json:"contracts"`
	Scripts        int      `json:"scripts"`
	Builders       int      `json:"builders"`
	Configs        int      `json:"configs"`

	Warnings []ir.Diagnostic `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog-dir>...",
		Short: "Validate catalogues without compiling a graph",
		Long: `Load CUE catalogues and check every step specification for
well-formedness: slot names, semantic types, node type shape and
duplicate declarations. Every problem is reported, not just the first.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dirs []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(opts.context(cmd), opts, formatter, dirs, catalog.LoadModeCollectAll)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Valid:          true,
		Files:          s.catalog.FileCount,
		Specifications: s.registry.AllRegisteredTypes(),
		Contracts:      len(s.catalog.Artifacts.Contracts),
		Scripts:        len(s.catalog.Artifacts.Scripts),
		Builders:       len(s.catalog.Artifacts.Builders),
		Configs:        len(s.catalog.Artifacts.Configs),
		Warnings:       s.catalog.Warnings,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s Catalogue valid: %d specification(s) from %d file(s)\n",
		formatter.Mark(true), len(result.Specifications), result.Files)
	fmt.Fprintf(w, "  %d contract(s), %d script(s), %d builder(s), %d config(s)\n",
		result.Contracts, result.Scripts, result.Builders, result.Configs)
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		formatter.Diagnostics(result.Warnings)
	}
	if formatter.Verbose {
		fmt.Fprintln(w)
		for _, st := range result.Specifications {
			fmt.Fprintf(w, "  %s\n", st)
		}
	}
	return nil
}
