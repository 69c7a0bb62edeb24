package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stepwire/internal/catalog"
	"github.com/roach88/stepwire/internal/compiler"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	Catalogs   []string
	Candidates int // candidates listed per slot in verbose text output
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview <graph-file>",
		Short: "Show how each input would resolve without failing",
		Long: `Run resolution for every node and report bindings and unresolved
slots. Unlike compile, preview reports every node even when some required
inputs have no producer.

Exit codes:
  0 - Every required input resolves
  1 - At least one required input is unresolved
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Catalogs, "catalog", "c", nil, "catalogue directory (repeatable)")
	cmd.Flags().IntVar(&opts.Candidates, "candidates", 3, "candidates shown per slot with --verbose")

	return cmd
}

func runPreview(opts *PreviewOptions, graphPath string, cmd *cobra.Command) error {
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

	preview, err := c.Preview(ctx, *g)
	if err != nil {
		return outputCompileFailure(formatter, err)
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: preview}
		if !preview.Resolvable() {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeCompileFailed,
				Message: fmt.Sprintf("%d unresolved slot(s)", len(preview.Unresolved)),
			}
		}
		if err := json.NewEncoder(formatter.Writer).Encode(resp); err != nil {
			return err
		}
	} else {
		outputPreviewText(formatter, g.Name, preview, opts.Candidates)
	}

	if !preview.Resolvable() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unresolved slot(s)", len(preview.Unresolved)))
	}
	return nil
}

func outputPreviewText(formatter *OutputFormatter, name string, p *compiler.Preview, candidates int) {
	w := formatter.Writer
	fmt.Fprintf(w, "%s Preview %s: %d node(s), %d binding(s), %d unresolved\n\n",
		formatter.Mark(p.Resolvable()), displayName(name), len(p.Nodes), p.Report.BindingCount, len(p.Unresolved))

	for _, n := range p.Nodes {
		fmt.Fprintln(w, nodeLabel(n.Node))
		if len(n.Slots) == 0 {
			fmt.Fprintln(w, "  (no inputs)")
		}
		for _, slot := range n.Slots {
			dep := slot.Dependency
			switch {
			case slot.Binding != nil:
				fmt.Fprintf(w, "  %s ← %s.%s (%.2f)\n", dep.LogicalName, slot.Binding.Producer, slot.Binding.Output, slot.Binding.Confidence)
			case dep.Required:
				fmt.Fprintf(w, "  %s %s: unresolved\n", formatter.Mark(false), dep.LogicalName)
			default:
				fmt.Fprintf(w, "  %s: unbound (optional)\n", dep.LogicalName)
			}
			if !formatter.Verbose {
				continue
			}
			for i, c := range slot.Candidates {
				if i == candidates {
					break
				}
				fmt.Fprintf(w, "      candidate %s.%s (%s) score %.2f distance %d\n",
					c.Producer, c.Output, c.ProducerType, c.Score, c.Distance)
			}
		}
		fmt.Fprintln(w)
	}

	if len(p.Unresolved) > 0 {
		fmt.Fprintln(w, "Unresolved:")
		formatter.Diagnostics(p.Unresolved)
		fmt.Fprintln(w)
	}
	if len(p.Diagnostics) > 0 {
		fmt.Fprintln(w, "Diagnostics:")
		formatter.Diagnostics(p.Diagnostics)
		fmt.Fprintln(w)
	}
}
