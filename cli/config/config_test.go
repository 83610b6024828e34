package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `root: ./proj
backend: "flit_core.buildapi"
backend_path:
  - backend
  - tools/backend
python: python3.12
runner: /opt/pybuild/_backend.py
journal: ./exchanges.journal
poll_interval: 10ms
format: yaml
`
	path := filepath.Join(t.TempDir(), "pybuild.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Root != "./proj" || cfg.Backend != "flit_core.buildapi" {
		t.Errorf("Root/Backend = %q/%q", cfg.Root, cfg.Backend)
	}
	if len(cfg.BackendPath) != 2 || cfg.BackendPath[1] != "tools/backend" {
		t.Errorf("BackendPath = %v", cfg.BackendPath)
	}
	if cfg.Python != "python3.12" || cfg.Runner != "/opt/pybuild/_backend.py" {
		t.Errorf("Python/Runner = %q/%q", cfg.Python, cfg.Runner)
	}
	if cfg.PollInterval.Duration != 10*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval.Duration)
	}
	if cfg.Format != "yaml" {
		t.Errorf("Format = %q", cfg.Format)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Load error = %v, want not-found", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pybuild.yaml")
	if err := os.WriteFile(path, []byte("root: [unclosed"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded on invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pybuild.yaml")
	if err := os.WriteFile(path, []byte("poll_interval: quickly"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded on invalid duration")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("PYBUILD_TEST_PY", "python3.13")

	cases := []struct {
		in   string
		want string
	}{
		{"python: ${PYBUILD_TEST_PY}", "python: python3.13"},
		{"python: ${PYBUILD_TEST_UNSET}", "python: "},
		{"python: ${PYBUILD_TEST_UNSET:-python3}", "python: python3"},
		{"python: ${PYBUILD_TEST_PY:-python3}", "python: python3.13"},
		{"no vars here", "no vars here"},
	}
	for _, tc := range cases {
		if got := ExpandEnv(tc.in); got != tc.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
