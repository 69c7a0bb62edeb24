package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stepwire/internal/catalog"
	"github.com/roach88/stepwire/internal/compiler"
	"github.com/roach88/stepwire/internal/graphfile"
	"github.com/roach88/stepwire/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Catalogs []string // catalogue directories
	Output   string   // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <graph-file>",
		Short: "Compile a pipeline graph into an ordered, wired plan",
		Long: `Compile a YAML or HCL pipeline graph against one or more CUE catalogues.

Every required input of every node is bound to an upstream output. The plan
lists nodes in topological order with one binding per resolved input.

Exit codes:
  0 - Plan compiled
  1 - Compilation failed (cycle, unknown step type, unresolved input)
  2 - Command error (catalogue, graph or options file unusable)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // we handle our own error output
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Catalogs, "catalog", "c", nil, "catalogue directory (repeatable)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the plan as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, graphPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := opts.context(cmd)

	s, err := openSession(ctx, opts.RootOptions, formatter, opts.Catalogs, catalog.LoadModeFailFast)
	if err != nil {
		return err
	}
	g, err := loadGraph(s, formatter, graphPath)
	if err != nil {
		return err
	}
	c, err := s.options.Compiler(s.registry)
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidConfig, err.Error())
	}

	plan, err := c.Compile(ctx, *g)
	if err != nil {
		return outputCompileFailure(formatter, err)
	}

	if opts.Output != "" {
		if err := writePlanToFile(plan, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}
	return outputCompileSuccess(formatter, g.Name, plan, opts.Output)
}

// loadGraph reads a graph file, reporting failures as command errors.
func loadGraph(s *session, formatter *OutputFormatter, path string) (*ir.Graph, error) {
	g, err := graphfile.Load(s.ctx, path)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeInvalidGraph, err.Error())
	}
	formatter.VerboseLog("Loaded graph %q: %d node(s), %d edge(s)", g.Name, len(g.Nodes), len(g.Edges))
	return g, nil
}

func outputCompileSuccess(formatter *OutputFormatter, name string, plan *ir.CompiledPlan, outputFile string) error {
	if formatter.Format == "json" {
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   plan,
			RunID:  plan.RunID,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s Compiled %s: %d node(s), %d binding(s)\n\n",
		formatter.Mark(true), displayName(name), len(plan.Order), len(plan.Bindings))

	fmt.Fprintln(w, "Order:")
	for i, n := range plan.Order {
		fmt.Fprintf(w, "  %d. %s\n", i+1, nodeLabel(n))
	}
	fmt.Fprintln(w)

	if len(plan.Bindings) > 0 {
		fmt.Fprintln(w, "Bindings:")
		for _, b := range plan.Bindings {
			fmt.Fprintf(w, "  %s.%s ← %s.%s (%.2f)\n", b.Consumer, b.Input, b.Producer, b.Output, b.Confidence)
		}
		fmt.Fprintln(w)
	}

	if len(plan.Diagnostics) > 0 {
		fmt.Fprintln(w, "Diagnostics:")
		formatter.Diagnostics(plan.Diagnostics)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Average confidence: %.2f\n", plan.Report.AverageConfidence)
	fmt.Fprintf(w, "Plan hash: %s\n", plan.Hash)
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote plan to %s\n", outputFile)
	}
	return nil
}

// outputCompileFailure reports a failed compilation (exit code 1).
func outputCompileFailure(formatter *OutputFormatter, err error) error {
	diags := compiler.DiagnosticsOf(err)
	code := ErrCodeCompileFailed
	if errors.Is(err, compiler.ErrInvalidGraph) {
		code = ErrCodeInvalidGraph
	}

	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if encErr := encoder.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error(), Details: diags},
		}); encErr != nil {
			return encErr
		}
		return WrapExitError(ExitFailure, "compilation failed", err)
	}

	fmt.Fprintf(formatter.Writer, "%s Compilation failed\n\n", formatter.Mark(false))
	fmt.Fprintf(formatter.Writer, "  %s: %v\n\n", code, err)
	if len(diags) > 0 {
		formatter.Diagnostics(diags)
	}
	return WrapExitError(ExitFailure, "compilation failed", err)
}

func nodeLabel(n ir.StepNode) string {
	if n.JobType != "" {
		return fmt.Sprintf("%s (%s, %s)", n.Name, n.StepType, n.JobType)
	}
	return fmt.Sprintf("%s (%s)", n.Name, n.StepType)
}

func displayName(name string) string {
	if name == "" {
		return "graph"
	}
	return name
}

// writePlanToFile writes the plan as indented JSON. Canonical JSON is only
// used for hashing.
func writePlanToFile(plan *ir.CompiledPlan, filename string) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
