package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")
	goldenDir    = filepath.Join("..", "harness", "testdata", "golden")
)

func TestTestCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Contains(t, buf.String(), "Error [E005]")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandRunsScenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err, stdout)

	for _, name := range []string{"bad_base", "duplicate_lenient", "duplicate_strict", "modules", "program"} {
		assert.Contains(t, stdout, "✓ "+name+"\n")
	}
	assert.Contains(t, stdout, "5 passed, 0 failed, 5 total")
}

func TestTestCommandFilter(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir, "--golden", goldenDir, "--filter", "duplicate_*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ duplicate_lenient")
	assert.Contains(t, stdout, "✓ duplicate_strict")
	assert.NotContains(t, stdout, "program")
	assert.Contains(t, stdout, "2 passed, 0 failed, 2 total")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, _, err := execute(t, "test", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandJSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "test", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 5, resp.Data.Total)
	assert.Equal(t, 5, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.True(t, s.Pass, s.Name)
	}
}

func TestTestCommandUpdateWritesGoldens(t *testing.T) {
	out := filepath.Join(t.TempDir(), "golden")

	_, _, err := execute(t, "test", scenariosDir, "--golden", out, "--update")
	require.NoError(t, err)

	for _, name := range []string{"program", "bad_base"} {
		got, err := os.ReadFile(filepath.Join(out, name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join(goldenDir, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "program.golden"), []byte("stale\n"), 0o644))

	stdout, _, err := execute(t, "test", scenariosDir, "--golden", out, "--filter", "program")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ program")
	assert.Contains(t, stdout, "listing does not match golden file")
	assert.Contains(t, stdout, "0 passed, 1 failed, 1 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(badBaseDir)
	require.NoError(t, err)
	scenario := `name: wrong_code
description: "Expects the wrong error code"
namespace: ` + abs + `
expect:
  error:
    code: E999
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_code.yaml"), []byte(scenario), 0o644))

	stdout, _, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	require.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "expected error E999, got ")
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "error[E201]")
}
