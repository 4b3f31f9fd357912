package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its signature listing
// against testdata/golden/{scenario.Name}.golden. A failing scenario is
// compared by its diagnostic instead, as "error[CODE] at LOCATION: message".
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}

// Snapshot is the golden representation of a result: the signature
// listing, or the diagnostic line of a failed run.
func Snapshot(result *Result) []byte {
	if d := result.Diagnostic; d != nil {
		return []byte("error[" + d.Code + "] at " + d.Location.String() + ": " + d.Message + "\n")
	}
	return []byte(result.Listing)
}
