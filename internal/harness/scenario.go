package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a signing conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Namespace is the manifest directory to load. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	Namespace string `yaml:"namespace"`

	// Options configure the sign run.
	Options Options `yaml:"options,omitempty"`

	// Expect describes a failing run. Nil means the run must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the signed tree. Ignored when Expect is set.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Options mirror the sign options a scenario may set.
type Options struct {
	Workers          int  `yaml:"workers,omitempty"`
	StrictDuplicates bool `yaml:"strict_duplicates,omitempty"`
}

// ExpectClause specifies the expected outcome of a failing run.
type ExpectClause struct {
	Error *ExpectedError `yaml:"error"`
}

// ExpectedError matches a diagnostic. Zero Line and empty File match any.
type ExpectedError struct {
	Code string `yaml:"code"`
	File string `yaml:"file,omitempty"`
	Line int    `yaml:"line,omitempty"`
}

// Assertion validates the signed tree. See the package documentation for
// the fields each type reads.
type Assertion struct {
	Type     string   `yaml:"type"`
	Path     string   `yaml:"path,omitempty"`
	Kind     string   `yaml:"kind,omitempty"`
	Field    string   `yaml:"field,omitempty"`
	Ty       string   `yaml:"ty,omitempty"`
	Variants []string `yaml:"variants,omitempty"`
	Count    int      `yaml:"count,omitempty"`
	JSON     string   `yaml:"json,omitempty"`
}

// Assertion type constants.
const (
	AssertKind     = "kind"
	AssertField    = "field"
	AssertVariants = "variants"
	AssertReturns  = "returns"
	AssertCount    = "count"
	AssertStored   = "stored"
	AssertAbsent   = "absent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(scenario.Namespace) {
		scenario.Namespace = filepath.Join(filepath.Dir(path), scenario.Namespace)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. The namespace path is kept as
// written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if s.Options.Workers < 0 {
		return fmt.Errorf("options.workers must not be negative")
	}

	if s.Expect != nil {
		if s.Expect.Error == nil || s.Expect.Error.Code == "" {
			return fmt.Errorf("expect.error.code is required")
		}
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with an expected error")
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	needPath := func() error {
		if a.Path == "" {
			return fmt.Errorf("%s requires path", a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertKind:
		if a.Kind == "" {
			return fmt.Errorf("kind requires kind")
		}
		return needPath()
	case AssertField:
		if a.Field == "" || a.Ty == "" {
			return fmt.Errorf("field requires field and ty")
		}
		return needPath()
	case AssertVariants:
		return needPath()
	case AssertReturns:
		if a.Ty == "" {
			return fmt.Errorf("returns requires ty")
		}
		return needPath()
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("count must not be negative")
		}
		return nil
	case AssertStored:
		if a.JSON == "" {
			return fmt.Errorf("stored requires json")
		}
		return needPath()
	case AssertAbsent:
		return needPath()
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}
