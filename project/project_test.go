package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petrel-io/pybuild/frontend"
)

func writePyProject(t *testing.T, folder, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(folder, "pyproject.toml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write pyproject.toml: %v", err)
	}
}

func TestDiscover_FullBuildSystem(t *testing.T) {
	folder := t.TempDir()
	writePyProject(t, folder, `
[build-system]
requires = ["flit_core >=3.2,<4"]
build-backend = "flit_core.buildapi"
backend-path = ["backend", "tools/backend"]
`)

	config, err := Discover(folder)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if config.BackendModule != "flit_core.buildapi" || config.BackendObj != "" {
		t.Errorf("backend = %q:%q", config.BackendModule, config.BackendObj)
	}
	if len(config.Requires) != 1 || config.Requires[0].Name != "flit_core" {
		t.Errorf("Requires = %v", config.Requires)
	}
	if len(config.BackendPaths) != 2 {
		t.Fatalf("BackendPaths = %v", config.BackendPaths)
	}
	if config.BackendPaths[0] != filepath.Join(folder, "backend") {
		t.Errorf("BackendPaths[0] = %q", config.BackendPaths[0])
	}
	if !config.ReuseBackend {
		t.Error("ReuseBackend = false, want true")
	}
}

func TestDiscover_BackendObjectKey(t *testing.T) {
	folder := t.TempDir()
	writePyProject(t, folder, `
[build-system]
build-backend = "setuptools.build_meta:__legacy__"
`)

	config, err := Discover(folder)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if config.BackendModule != "setuptools.build_meta" {
		t.Errorf("BackendModule = %q", config.BackendModule)
	}
	if config.BackendObj != "__legacy__" {
		t.Errorf("BackendObj = %q", config.BackendObj)
	}
	// Requires were not declared: the legacy seed requirements apply.
	if len(config.Requires) != 2 || config.Requires[0].Name != "setuptools" {
		t.Errorf("Requires = %v", config.Requires)
	}
}

func TestDiscover_MissingFile(t *testing.T) {
	config, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	module, obj := splitBackend(frontend.LegacyBuildBackend)
	if config.BackendModule != module || config.BackendObj != obj {
		t.Errorf("backend = %q:%q, want legacy", config.BackendModule, config.BackendObj)
	}
	if len(config.BackendPaths) != 0 {
		t.Errorf("BackendPaths = %v, want none", config.BackendPaths)
	}
}

func TestDiscover_EmptyRequiresListIsRespected(t *testing.T) {
	folder := t.TempDir()
	writePyProject(t, folder, `
[build-system]
requires = []
build-backend = "hatchling.build"
`)

	config, err := Discover(folder)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(config.Requires) != 0 {
		t.Errorf("Requires = %v, want empty (declared empty beats legacy default)", config.Requires)
	}
}

func TestDiscover_MalformedTOML(t *testing.T) {
	folder := t.TempDir()
	writePyProject(t, folder, "[build-system\nrequires = [")

	if _, err := Discover(folder); err == nil {
		t.Fatal("Discover succeeded on malformed TOML")
	}
}

func TestDiscover_MalformedRequirement(t *testing.T) {
	folder := t.TempDir()
	writePyProject(t, folder, `
[build-system]
requires = ["[oops"]
`)

	if _, err := Discover(folder); err == nil {
		t.Fatal("Discover succeeded on malformed requirement")
	}
}
