package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/seasign/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is the merged file and flag configuration. Filled in before any
	// subcommand runs; commands built directly (as in tests) fall back to
	// config.Default().
	Config *config.Config

	// Logger receives structured logs. Nil discards them.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// NewRootCommand creates the root command for the seasign CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "seasign",
		Short: "seasign - type signatures for Seahorse programs",
		Long: "Compute the type signature of every class, function and builtin in a resolved\n" +
			"Seahorse namespace tree, ahead of type checking.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file")

	// Add subcommands
	cmd.AddCommand(NewSignCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the config file, lets explicit flags override it and sets
// up logging on stderr so JSON on stdout stays clean.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error [%s]: %v\n", ErrCodeInvalidConfig, err)
			return WrapExitError(ExitCommandError, ErrCodeInvalidConfig+": invalid config", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("format") {
		cfg.Format = o.Format
	}
	if !isValidFormat(cfg.Format) {
		msg := fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
		fmt.Fprintf(cmd.ErrOrStderr(), "Error [%s]: %s\n", ErrCodeInvalidConfig, msg)
		return NewExitError(ExitCommandError, msg)
	}
	o.Format = cfg.Format
	o.Config = &cfg

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// settings returns the resolved configuration.
func (o *RootOptions) settings() config.Config {
	if o.Config != nil {
		return *o.Config
	}
	cfg := config.Default()
	if o.Format != "" {
		cfg.Format = o.Format
	}
	return cfg
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.settings().Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
