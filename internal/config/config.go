// Package config loads seasign settings from a YAML file.
//
//	workers: 4
//	strict_duplicates: true
//	db: build/signatures.db
//	format: json
//
// Command-line flags override file values; see cli.RootOptions.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds every setting a sign run reads.
type Config struct {
	// Workers is the number of goroutines each signing pass uses.
	Workers int `yaml:"workers"`

	// StrictDuplicates rejects repeated field and variant names.
	StrictDuplicates bool `yaml:"strict_duplicates"`

	// DB is the SQLite database that sign runs are recorded in. Empty
	// disables recording.
	DB string `yaml:"db,omitempty"`

	// Format is the output format, "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{Workers: 1, Format: FormatText}
}

// Load reads a config file. Missing keys keep their defaults; unknown keys
// are rejected so typos surface.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("format must be %q or %q, got %q", FormatText, FormatJSON, c.Format)
	}
	return nil
}
