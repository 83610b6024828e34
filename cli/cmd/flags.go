// Package cmd provides CLI commands for the pybuild binary.
package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/petrel-io/pybuild/types"
)

// Exit codes, see docs/PROTOCOL.md.
const (
	exitSuccess           = 0
	exitBackendFailure    = 1
	exitContractViolation = 2
	exitUsage             = 3
)

// Shared flags for commands that talk to a backend.
var (
	// RootFlag selects the project root directory.
	RootFlag = &cli.StringFlag{
		Name:    "root",
		Aliases: []string{"r"},
		Usage:   "Project root directory (contains pyproject.toml)",
		Value:   ".",
	}

	// ConfigFlag selects a pybuild.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to pybuild.yaml config file",
	}

	// BackendFlag overrides the discovered build backend.
	BackendFlag = &cli.StringFlag{
		Name:  "backend",
		Usage: "Build backend override, in module[:obj] form",
	}

	// PythonFlag selects the interpreter hosting the backend.
	PythonFlag = &cli.StringFlag{
		Name:  "python",
		Usage: "Python interpreter hosting the backend",
	}

	// RunnerFlag points at the backend-side command loop script.
	RunnerFlag = &cli.StringFlag{
		Name:  "runner",
		Usage: "Path to the backend command loop script",
	}

	// BackendPathFlag adds extra import paths for the backend.
	BackendPathFlag = &cli.StringSliceFlag{
		Name:  "backend-path",
		Usage: "Extra import path provisioned to the backend (repeatable)",
	}

	// ConfigSettingFlag passes key=value config settings to the backend.
	ConfigSettingFlag = &cli.StringSliceFlag{
		Name:    "config-setting",
		Aliases: []string{"C"},
		Usage:   "Backend config setting as key=value (repeatable)",
	}

	// JournalFlag enables exchange journalling.
	JournalFlag = &cli.StringFlag{
		Name:  "journal",
		Usage: "Append exchange records to this journal file",
	}

	// StatsFlag prints a metrics summary after the command.
	StatsFlag = &cli.BoolFlag{
		Name:  "stats",
		Usage: "Print exchange statistics to stderr after the command",
	}

	// VerboseFlag enables debug logging to stderr.
	VerboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging to stderr",
	}
)

// Shared flags for output rendering.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}
)

// OutputFlags returns the shared rendering flags.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
	}
}

// BuildFlags returns the shared flags for commands that invoke a backend.
func BuildFlags() []cli.Flag {
	return append([]cli.Flag{
		RootFlag,
		ConfigFlag,
		BackendFlag,
		PythonFlag,
		RunnerFlag,
		BackendPathFlag,
		ConfigSettingFlag,
		JournalFlag,
		StatsFlag,
		VerboseFlag,
	}, OutputFlags()...)
}

// parseConfigSettings parses repeated key=value flags into config settings.
// Returns nil for an empty list so that the request carries null instead of
// an empty object.
func parseConfigSettings(pairs []string) (types.ConfigSettings, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	settings := make(types.ConfigSettings, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid config setting %q (expected key=value)", pair)
		}
		settings[key] = value
	}
	return settings, nil
}
