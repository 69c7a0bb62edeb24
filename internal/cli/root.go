package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/stepwire/internal/config"
	"github.com/roach88/stepwire/internal/ctxlog"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // options file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stepwire CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stepwire",
		Short: "stepwire - pipeline step dependency compiler",
		Long: `Compile declarative pipeline graphs into ordered, fully wired plans.

Step specifications, script contracts, builders and configurations live in
CUE catalogues. Graphs are YAML or HCL files naming steps and their edges;
stepwire decides which upstream output feeds each declared input.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "options file (YAML)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewAlignCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter builds the output formatter for a command invocation.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // verbose logs go to stderr to keep JSON clean
		Verbose:   o.Verbose,
	}
}

// context returns the command context carrying a text logger on stderr.
// --verbose lowers the level to Debug.
func (o *RootOptions) context(cmd *cobra.Command) context.Context {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctxlog.WithLogger(ctx, logger)
}

// options loads --config over the defaults. Catalogue paths in the file
// are relative to the file.
func (o *RootOptions) options() (config.Options, error) {
	if o.Config == "" {
		return config.Default(), nil
	}
	opts, err := config.Load(o.Config)
	if err != nil {
		return config.Options{}, err
	}
	base := filepath.Dir(o.Config)
	for i, dir := range opts.Catalogs {
		if !filepath.IsAbs(dir) {
			opts.Catalogs[i] = filepath.Join(base, dir)
		}
	}
	return opts, nil
}
