package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/seasign/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	RunID  string
	DiffOf string
}

// ShowRecord is one stored signature in JSON output.
type ShowRecord struct {
	Module    string          `json:"module"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Hash      string          `json:"hash"`
	Signature json.RawMessage `json:"signature"`
}

// ShowChange is one difference between two runs in JSON output.
type ShowChange struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	RunID            string       `json:"run_id"`
	Seq              int64        `json:"seq"`
	NamespaceHash    string       `json:"namespace_hash"`
	SignedHash       string       `json:"signed_hash"`
	StrictDuplicates bool         `json:"strict_duplicates"`
	Workers          int          `json:"workers"`
	ToolVersion      string       `json:"tool_version"`
	EncodingVersion  string       `json:"encoding_version"`
	CreatedAt        string       `json:"created_at"`
	Signatures       []ShowRecord `json:"signatures,omitempty"`
	DiffFrom         string       `json:"diff_from,omitempty"`
	Changes          []ShowChange `json:"changes,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <db>",
		Short: "Show a recorded sign run",
		Long: `Print the signatures of a recorded sign run, by default the latest one.

With --diff, print only what changed between another run and this one.

Examples:
  seasign show build/signatures.db
  seasign show build/signatures.db --run 0190b6f4-...
  seasign show build/signatures.db --diff <older-run-id>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show (default: latest)")
	cmd.Flags().StringVar(&opts.DiffOf, "diff", "", "compare against this earlier run ID")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, dbPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	// Open would create an empty database; a typo should fail instead.
	if _, err := os.Stat(dbPath); err != nil {
		return commandError(formatter, ErrCodeStore, fmt.Sprintf("database not found: %s", dbPath), nil)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	run, err := selectShowRun(ctx, st, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		if opts.RunID != "" {
			return commandError(formatter, ErrCodeNoRuns, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		}
		return commandError(formatter, ErrCodeNoRuns, "no runs recorded", nil)
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read run", err)
	}

	result := showResult(run)

	if opts.DiffOf != "" {
		if _, err := st.ReadRun(ctx, opts.DiffOf); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return commandError(formatter, ErrCodeNoRuns, fmt.Sprintf("run not found: %s", opts.DiffOf), nil)
			}
			return commandError(formatter, ErrCodeStore, "failed to read run", err)
		}
		changes, err := st.DiffRuns(ctx, opts.DiffOf, run.ID)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to diff runs", err)
		}
		result.DiffFrom = opts.DiffOf
		result.Changes = make([]ShowChange, len(changes))
		for i, c := range changes {
			kind := c.To.Kind
			if c.Type == store.Removed {
				kind = c.From.Kind
			}
			result.Changes[i] = ShowChange{Type: c.Type.String(), Path: c.Path(), Kind: kind}
		}
	} else {
		records, err := st.ReadSignatures(ctx, run.ID)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to read signatures", err)
		}
		result.Signatures = make([]ShowRecord, len(records))
		for i, r := range records {
			result.Signatures[i] = ShowRecord{
				Module:    r.Module,
				Name:      r.Name,
				Kind:      r.Kind,
				Hash:      r.Hash,
				Signature: json.RawMessage(r.Signature),
			}
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputShowText(formatter, result)
	return nil
}

func selectShowRun(ctx context.Context, st *store.Store, id string) (store.Run, error) {
	if id != "" {
		return st.ReadRun(ctx, id)
	}
	return st.LatestRun(ctx)
}

func showResult(run store.Run) ShowResult {
	return ShowResult{
		RunID:            run.ID,
		Seq:              run.Seq,
		NamespaceHash:    run.NamespaceHash,
		SignedHash:       run.SignedHash,
		StrictDuplicates: run.StrictDuplicates,
		Workers:          run.Workers,
		ToolVersion:      run.ToolVersion,
		EncodingVersion:  run.EncodingVersion,
		CreatedAt:        run.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func outputShowText(formatter *OutputFormatter, result ShowResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n", result.RunID, result.Seq)
	fmt.Fprintf(w, "  created:   %s\n", result.CreatedAt)
	fmt.Fprintf(w, "  namespace: %s\n", result.NamespaceHash)
	fmt.Fprintf(w, "  signed:    %s\n", result.SignedHash)
	fmt.Fprintf(w, "  workers:   %d, strict duplicates: %t\n", result.Workers, result.StrictDuplicates)
	fmt.Fprintln(w)

	if result.DiffFrom != "" {
		if len(result.Changes) == 0 {
			fmt.Fprintf(w, "No changes since %s\n", result.DiffFrom)
			return
		}
		fmt.Fprintf(w, "Changes since %s:\n", result.DiffFrom)
		for _, c := range result.Changes {
			fmt.Fprintf(w, "  %-8s %s (%s)\n", c.Type, c.Path, c.Kind)
		}
		return
	}

	fmt.Fprintf(w, "Signatures (%d):\n", len(result.Signatures))
	for _, r := range result.Signatures {
		path := r.Name
		if r.Module != "" {
			path = r.Module + "." + r.Name
		}
		fmt.Fprintf(w, "  %s: %s %s\n", path, r.Kind, r.Signature)
	}
}
