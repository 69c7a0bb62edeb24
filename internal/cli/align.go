package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stepwire/internal/alignment"
	"github.com/roach88/stepwire/internal/catalog"
)

// AlignOptions holds flags for the align command.
type AlignOptions struct {
	*RootOptions
	Steps []string // step types to validate; empty means all
}

// NewAlignCommand creates the align command.
func NewAlignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AlignOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "align <catalog-dir>...",
		Short: "Check scripts, contracts, specifications and configs agree",
		Long: `Run the four alignment levels for each step type in the catalogues:

  L1 script ↔ contract        container paths, environment variables, arguments
  L2 contract ↔ specification logical names and data types
  L3 specification ↔ dependencies  every pipeline input has a producer
  L4 builder ↔ configuration  required and accessed fields

Exit codes:
  0 - Every level passed for every step type
  1 - At least one level failed or an artifact matched no step type
  2 - Command error`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlign(opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Steps, "step", "s", nil, "step type to validate (repeatable)")

	return cmd
}

func runAlign(opts *AlignOptions, dirs []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := opts.context(cmd)

	s, err := openSession(ctx, opts.RootOptions, formatter, dirs, catalog.LoadModeFailFast)
	if err != nil {
		return err
	}
	v, err := s.options.Validator(s.registry, s.catalog.Artifacts)
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidConfig, err.Error())
	}

	steps := opts.Steps
	if len(steps) == 0 {
		steps = v.StepTypes()
	}
	report, err := v.ValidateSteps(ctx, steps)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: report}
		if !report.Passed() {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeAlignFailed,
				Message: fmt.Sprintf("alignment %s (%.1f)", report.Score.Rating, report.Score.Overall),
			}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	} else {
		outputAlignText(formatter, report)
	}

	if !report.Passed() {
		return NewExitError(ExitFailure, fmt.Sprintf("alignment failed: %s (%.1f)", report.Score.Rating, report.Score.Overall))
	}
	return nil
}

func outputAlignText(formatter *OutputFormatter, report *alignment.Report) {
	w := formatter.Writer
	for _, step := range report.Steps {
		fmt.Fprintf(w, "%s %s\n", formatter.Mark(step.Passed()), step.StepType)
		for _, level := range step.Levels {
			status := "passed"
			switch worst := level.MaxSeverity(); {
			case level.Skipped:
				status = "skipped"
			case !level.Passed:
				status = fmt.Sprintf("failed (%s)", worst)
			case worst.Rank() > 0:
				status = fmt.Sprintf("passed (%s)", worst)
			}
			fmt.Fprintf(w, "  %-32s %s\n", level.Level, status)
			for _, f := range level.Findings {
				if f.Severity.Rank() == 0 && !formatter.Verbose {
					continue
				}
				fmt.Fprintf(w, "    %s %s\n", formatter.Severity(f.Severity), f.Message)
				if f.Recommendation != "" && formatter.Verbose {
					fmt.Fprintf(w, "             → %s\n", f.Recommendation)
				}
			}
		}
		fmt.Fprintln(w)
	}

	if len(report.Unmatched) > 0 {
		fmt.Fprintln(w, "Unmatched artifacts:")
		for _, f := range report.Unmatched {
			fmt.Fprintf(w, "  %s %s\n", formatter.Severity(f.Severity), f.Message)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Score:")
	for _, level := range alignment.Levels {
		fmt.Fprintf(w, "  %-32s %5.1f\n", level, report.Score.Levels[level.String()])
	}
	fmt.Fprintf(w, "Overall: %.1f (%s)\n", report.Score.Overall, report.Score.Rating)
}
