package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seasign/internal/ir"
	"github.com/roach88/seasign/internal/store"
	"github.com/roach88/seasign/internal/testutil"
)

func enumSig(variants ...string) ir.Value {
	arr := make(ir.Array, len(variants))
	for i, v := range variants {
		arr[i] = ir.String(v)
	}
	return ir.Object{"kind": ir.String("enum"), "variants": arr}
}

func mustRecord(t *testing.T, name, kind string, sig ir.Value) store.Record {
	t.Helper()
	r, err := store.NewRecord("program", name, kind, sig)
	require.NoError(t, err)
	return r
}

// seedStore records two runs: run-0001 with E{A} and Old, run-0002 with
// E{A, B} and u8.
func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signatures.db")
	ids := &testutil.SequentialIDs{}
	st, err := store.Open(path,
		store.WithClock(testutil.NewDeterministicClock().Now),
		store.WithIDGenerator(ids.Next),
	)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, _, err = st.WriteRun(ctx, store.Run{
		NamespaceHash:   "ns-v1",
		SignedHash:      "signed-v1",
		Workers:         1,
		ToolVersion:     ir.ToolVersion,
		EncodingVersion: ir.EncodingVersion,
	}, []store.Record{
		mustRecord(t, "E", "enum", enumSig("A")),
		mustRecord(t, "Old", "struct", ir.Object{"kind": ir.String("struct"), "fields": ir.Array{}}),
	})
	require.NoError(t, err)

	_, _, err = st.WriteRun(ctx, store.Run{
		NamespaceHash:    "ns-v2",
		SignedHash:       "signed-v2",
		Workers:          4,
		StrictDuplicates: true,
		ToolVersion:      ir.ToolVersion,
		EncodingVersion:  ir.EncodingVersion,
	}, []store.Record{
		mustRecord(t, "E", "enum", enumSig("A", "B")),
		mustRecord(t, "u8", "builtin", ir.Object{"kind": ir.String("builtin"), "builtin": ir.String("prelude.u8")}),
	})
	require.NoError(t, err)
	return path
}

func TestShowLatest_Golden(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := execute(t, "show", db)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "show_latest_text", []byte(stdout))
}

func TestShowDiff_Golden(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := execute(t, "show", db, "--diff", "run-0001")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "show_diff_text", []byte(stdout))
}

func TestShowDiff_NoChanges(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := execute(t, "show", db, "--run", "run-0002", "--diff", "run-0002")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No changes since run-0002")
}

func TestShowByRunID(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := execute(t, "show", db, "--run", "run-0001")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run run-0001 (seq 1)")
	assert.Contains(t, stdout, "  created:   2024-01-01T00:00:00Z")
	assert.Contains(t, stdout, `program.E: enum {"kind":"enum","variants":["A"]}`)
	assert.Contains(t, stdout, "program.Old: struct")
	assert.NotContains(t, stdout, "program.u8")
}

func TestShowJSON(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := execute(t, "--format", "json", "show", db)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ShowResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-0002", resp.Data.RunID)
	assert.Equal(t, int64(2), resp.Data.Seq)
	assert.Equal(t, 4, resp.Data.Workers)
	assert.True(t, resp.Data.StrictDuplicates)
	require.Len(t, resp.Data.Signatures, 2)
	assert.Equal(t, "E", resp.Data.Signatures[0].Name)
	assert.JSONEq(t, `{"kind":"enum","variants":["A","B"]}`, string(resp.Data.Signatures[0].Signature))
	assert.Empty(t, resp.Data.Changes)
}

func TestShowDiffJSON(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := execute(t, "--format", "json", "show", db, "--diff", "run-0001")
	require.NoError(t, err)

	var resp struct {
		Data ShowResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "run-0001", resp.Data.DiffFrom)
	assert.Equal(t, []ShowChange{
		{Type: "changed", Path: "program.E", Kind: "enum"},
		{Type: "removed", Path: "program.Old", Kind: "struct"},
		{Type: "added", Path: "program.u8", Kind: "builtin"},
	}, resp.Data.Changes)
	assert.Empty(t, resp.Data.Signatures)
}

func TestShowMissingDatabase(t *testing.T) {
	stdout, _, err := execute(t, "show", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E014]: database not found")
}

func TestShowEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := execute(t, "show", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E015]: no runs recorded")
}

func TestShowUnknownRun(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := execute(t, "show", db, "--run", "run-9999")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [E015]: run not found: run-9999")

	stdout, _, err = execute(t, "show", db, "--diff", "run-9999")
	require.Error(t, err)
	assert.Contains(t, stdout, "Error [E015]: run not found: run-9999")
}
