// Package project discovers build-backend configuration from a project's
// pyproject.toml.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/petrel-io/pybuild/frontend"
	"github.com/petrel-io/pybuild/types"
)

// BuildSystem is the parsed [build-system] table of a pyproject.toml.
type BuildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
	BackendPath  []string `toml:"backend-path"`
}

type pyProject struct {
	BuildSystem *BuildSystem `toml:"build-system"`
}

// Discover reads the build-system configuration of the project in folder
// and returns frontend creation arguments for it.
//
// A missing pyproject.toml, a missing [build-system] table, or missing
// keys fall back to the legacy setuptools backend with its documented
// seed requirements. Backend paths are resolved against the folder.
func Discover(folder string) (*frontend.Config, error) {
	config := &frontend.Config{
		Root:         folder,
		Requires:     frontend.LegacyRequires(),
		ReuseBackend: true,
	}
	backend := frontend.LegacyBuildBackend

	data, err := os.ReadFile(filepath.Join(folder, "pyproject.toml"))
	switch {
	case os.IsNotExist(err):
		// No declarative build config; the legacy defaults apply.
	case err != nil:
		return nil, fmt.Errorf("read pyproject.toml: %w", err)
	default:
		var py pyProject
		if err := toml.Unmarshal(data, &py); err != nil {
			return nil, fmt.Errorf("parse pyproject.toml: %w", err)
		}
		if bs := py.BuildSystem; bs != nil {
			for _, p := range bs.BackendPath {
				config.BackendPaths = append(config.BackendPaths, filepath.Join(folder, p))
			}
			if bs.Requires != nil {
				requires, err := types.ParseRequirements(bs.Requires)
				if err != nil {
					return nil, fmt.Errorf("parse build-system.requires: %w", err)
				}
				config.Requires = requires
			}
			if bs.BuildBackend != "" {
				backend = bs.BuildBackend
			}
		}
	}

	config.BackendModule, config.BackendObj = splitBackend(backend)
	return config, nil
}

// splitBackend splits a backend key into module and optional object key.
func splitBackend(backend string) (module, obj string) {
	if i := strings.Index(backend, ":"); i >= 0 {
		return backend[:i], backend[i+1:]
	}
	return backend, ""
}
