// Package config handles YAML config file loading for the pybuild CLI.
package config

import (
	"fmt"
	"time"
)

// Config represents a pybuild.yaml configuration file.
// All values are optional and act as defaults for pybuild command flags.
// CLI flags always override config values.
type Config struct {
	// Root is the project root path.
	Root string `yaml:"root"`
	// Backend overrides the backend key discovered from pyproject.toml,
	// in module[:obj] form.
	Backend string `yaml:"backend"`
	// BackendPath lists extra import paths provisioned to the backend.
	BackendPath []string `yaml:"backend_path"`
	// Python is the interpreter hosting the backend.
	Python string `yaml:"python"`
	// Runner is the path to the backend-side command loop entry point.
	Runner string `yaml:"runner"`
	// Journal is the exchange journal path; empty disables journalling.
	Journal string `yaml:"journal"`
	// PollInterval overrides the completion polling interval.
	PollInterval Duration `yaml:"poll_interval"`
	// Format is the default output format: json, table, yaml.
	Format string `yaml:"format"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10ms", "1s").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10ms" or "1m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
