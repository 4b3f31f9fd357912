package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/seasign/internal/diag"
	"github.com/roach88/seasign/internal/loader"
	"github.com/roach88/seasign/internal/sign"
	"github.com/roach88/seasign/internal/store"
	"github.com/roach88/seasign/internal/testutil"
)

// Harness is the scenario execution engine.
// It signs with a deterministic clock and sequential run IDs.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the namespace manifests
// 2. Sign with the scenario options
// 3. Match a diagnostic against expect, or
// 4. Record the run, read it back and evaluate the assertions
//
// A returned error means the scenario could not be executed at all; a
// scenario whose expectations are not met returns a failing Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store access.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	ids := &testutil.SequentialIDs{}

	st, err := store.Open(":memory:", store.WithClock(clock.Now), store.WithIDGenerator(ids.Next))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	loaded, err := loader.Load(scenario.Namespace)
	if err != nil {
		return h.failed(scenario, result, err)
	}

	workers := scenario.Options.Workers
	if workers == 0 {
		workers = 1
	}
	out, err := sign.Sign(loaded.Namespace,
		sign.WithWorkers(workers),
		sign.WithStrictDuplicates(scenario.Options.StrictDuplicates),
		sign.WithLogger(h.logger),
	)
	if err != nil {
		return h.failed(scenario, result, err)
	}

	if scenario.Expect != nil {
		result.AddError(fmt.Sprintf("expected error %s, but signing succeeded", scenario.Expect.Error.Code))
	}

	var listing bytes.Buffer
	if err := sign.Render(&listing, out); err != nil {
		return nil, fmt.Errorf("failed to render signatures: %w", err)
	}
	result.Listing = listing.String()

	run, err := store.NewRun(loaded.Hash, out, workers, scenario.Options.StrictDuplicates)
	if err != nil {
		return nil, err
	}
	records, err := store.SignedRecords(out)
	if err != nil {
		return nil, err
	}
	run, _, err = h.store.WriteRun(ctx, run, records)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	result.Run = run

	result.Records, err = h.store.ReadSignatures(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read signatures: %w", err)
	}

	actx := &AssertionContext{Output: out, Records: result.Records}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// failed records the diagnostic a run stopped at and matches it against
// the scenario's expectation. Errors that carry no diagnostic are returned
// as execution failures.
func (h *Harness) failed(scenario *Scenario, result *Result, err error) (*Result, error) {
	d, ok := diag.As(err)
	if !ok {
		return nil, err
	}
	result.Diagnostic = &DiagnosticResult{
		Code:     d.Code(),
		Message:  d.Message(),
		Location: d.Location(),
	}

	if scenario.Expect == nil {
		result.AddError("unexpected error: " + diag.Format(d))
		return result, nil
	}
	want := scenario.Expect.Error
	if d.Code() != want.Code {
		result.AddError(fmt.Sprintf("expected error %s, got %s", want.Code, diag.Format(d)))
	}
	if want.Line != 0 && d.Location().Line != want.Line {
		result.AddError(fmt.Sprintf("expected error on line %d, got line %d", want.Line, d.Location().Line))
	}
	if want.File != "" && d.Location().File != want.File {
		result.AddError(fmt.Sprintf("expected error in %s, got %s", want.File, d.Location().File))
	}
	return result, nil
}
