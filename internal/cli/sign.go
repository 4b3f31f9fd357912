package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/seasign/internal/diag"
	"github.com/roach88/seasign/internal/ir"
	"github.com/roach88/seasign/internal/loader"
	"github.com/roach88/seasign/internal/sign"
	"github.com/roach88/seasign/internal/store"
)

// SignOptions holds flags for the sign command.
type SignOptions struct {
	*RootOptions
	Output           string
	DB               string
	Workers          int
	StrictDuplicates bool
}

// SignResult is the JSON payload of a successful sign.
type SignResult struct {
	Modules       int             `json:"modules"`
	Stats         sign.Stats      `json:"stats"`
	NamespaceHash string          `json:"namespace_hash"`
	SignedHash    string          `json:"signed_hash"`
	Files         []string        `json:"files"`
	Output        string          `json:"output,omitempty"`
	RunID         string          `json:"run_id,omitempty"`
	Signatures    json.RawMessage `json:"signatures"`
}

// NewSignCommand creates the sign command.
func NewSignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SignOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sign <namespace-dir>",
		Short: "Compute signatures for a namespace tree",
		Long: `Load the namespace manifests in a directory and compute the signature of
every definition and builtin it exports.

Exit codes:
  0 - Every definition was signed
  1 - The program was rejected (located error printed)
  2 - Command error (missing directory, unreadable manifests, write failure)

Examples:
  seasign sign ./namespace
  seasign sign ./namespace -o signatures.json
  seasign sign ./namespace --db build/signatures.db --workers 4
  seasign sign ./namespace --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical JSON signatures to file")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in this SQLite database")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "goroutines per signing pass")
	cmd.Flags().BoolVar(&opts.StrictDuplicates, "strict-duplicates", false, "reject repeated field and variant names")

	return cmd
}

func runSign(ctx context.Context, opts *SignOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	// Flags given on the command line win over the config file.
	cfg := opts.settings()
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if cmd.Flags().Changed("strict-duplicates") {
		cfg.StrictDuplicates = opts.StrictDuplicates
	}
	if cmd.Flags().Changed("db") {
		cfg.DB = opts.DB
	}
	if err := cfg.Validate(); err != nil {
		return commandError(formatter, ErrCodeInvalidConfig, "invalid settings", err)
	}

	loaded, err := loader.Load(dir)
	if err != nil {
		return outputDiagnostic(formatter, err, ExitCommandError)
	}
	formatter.VerboseLog("Loaded %d manifest file(s), namespace %s", len(loaded.Files), loaded.Hash)

	out, err := sign.Sign(loaded.Namespace,
		sign.WithWorkers(cfg.Workers),
		sign.WithStrictDuplicates(cfg.StrictDuplicates),
		sign.WithLogger(opts.logger()),
	)
	if err != nil {
		return outputDiagnostic(formatter, err, ExitFailure)
	}

	doc, err := sign.Document(out, loaded.Hash)
	if err != nil {
		return commandError(formatter, ErrCodeWriteFailed, "encoding signatures", err)
	}
	signatures, err := ir.MarshalCanonical(doc["signatures"])
	if err != nil {
		return commandError(formatter, ErrCodeWriteFailed, "encoding signatures", err)
	}

	stats := out.Stats()
	result := SignResult{
		Modules:       stats.Modules,
		Stats:         stats,
		NamespaceHash: loaded.Hash,
		SignedHash:    string(doc["signed_hash"].(ir.String)),
		Files:         loaded.Files,
		Output:        opts.Output,
		Signatures:    signatures,
	}

	if opts.Output != "" {
		if err := writeDocument(doc, opts.Output); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, "failed to write signatures", err)
		}
	}

	if cfg.DB != "" {
		runID, err := recordRun(ctx, cfg.DB, loaded.Hash, out, cfg.Workers, cfg.StrictDuplicates)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to record run", err)
		}
		result.RunID = runID
		formatter.VerboseLog("Recorded run %s in %s", runID, cfg.DB)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputSignText(formatter, out, result, cfg.DB)
}

func outputSignText(formatter *OutputFormatter, out *sign.Output, result SignResult, db string) error {
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Signed %d module(s), %d signature(s)\n\n", result.Modules, result.Stats.Total())
	if err := sign.Render(w, out); err != nil {
		return err
	}
	if result.Output != "" {
		fmt.Fprintf(w, "\nWrote canonical signatures to %s\n", result.Output)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "Recorded run %s in %s\n", result.RunID, db)
	}
	return nil
}

// outputDiagnostic prints a located error. Errors without a location are
// reported as generic command errors.
func outputDiagnostic(formatter *OutputFormatter, err error, exitCode int) error {
	d, ok := diag.As(err)
	if !ok {
		return commandError(formatter, loader.ErrCodeGeneric, "signing failed", err)
	}
	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, "✗ Signing failed")
		fmt.Fprintln(formatter.Writer)
	}
	_ = formatter.Diagnostic(d)
	return WrapExitError(exitCode, fmt.Sprintf("%s: %s", d.Code(), d.Message()), err)
}

// writeDocument writes the canonical encoding followed by a newline.
func writeDocument(doc ir.Object, filename string) error {
	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return fmt.Errorf("marshaling signatures: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func recordRun(ctx context.Context, path, nsHash string, out *sign.Output, workers int, strict bool) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := store.NewRun(nsHash, out, workers, strict)
	if err != nil {
		return "", err
	}
	records, err := store.SignedRecords(out)
	if err != nil {
		return "", err
	}
	run, _, err = st.WriteRun(ctx, run, records)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}
