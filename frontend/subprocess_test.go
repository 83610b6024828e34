package frontend

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

// TestHelperBackend is not a real test: it is re-executed as the backend
// process by the subprocess transport tests. It reads one request message
// from stdin and plays the backend according to PYBUILD_BACKEND_MODE.
func TestHelperBackend(t *testing.T) {
	if os.Getenv("PYBUILD_BACKEND_HELPER") != "1" {
		t.Skip("helper process")
	}
	defer os.Exit(0)

	scanner := bufio.NewScanner(os.Stdin)
	var line string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			line = s
			break
		}
	}
	var req struct {
		Cmd    string         `json:"cmd"`
		Kwargs map[string]any `json:"kwargs"`
		Result string         `json:"result"`
	}
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		fmt.Fprintf(os.Stderr, "helper: bad request: %v\n", err)
		os.Exit(3)
	}

	switch os.Getenv("PYBUILD_BACKEND_MODE") {
	case "ok":
		fmt.Print("backend out\n")
		fmt.Fprint(os.Stderr, "backend err\n")
		data, _ := json.Marshal(map[string]any{"return": []string{"a==1", "b"}})
		if err := os.WriteFile(req.Result, data, 0o600); err != nil {
			os.Exit(3)
		}
	case "silent":
		// Exit cleanly without writing the result file.
	case "crash":
		fmt.Fprint(os.Stderr, "backend blew up\n")
		os.Exit(3)
	}
}

// helperTransport re-executes the test binary as the backend process.
func helperTransport(t *testing.T, mode string) *SubprocessTransport {
	t.Helper()
	return &SubprocessTransport{
		Python: os.Args[0],
		Args:   []string{"-test.run=TestHelperBackend", "--"},
		Root:   t.TempDir(),
		ExtraEnv: []string{
			"PYBUILD_BACKEND_HELPER=1",
			"PYBUILD_BACKEND_MODE=" + mode,
		},
	}
}

func newSubprocessTestFrontend(t *testing.T, mode string) *Frontend {
	t.Helper()
	f, err := New(&Config{
		Root:          t.TempDir(),
		BackendModule: "setuptools.build_meta",
		Transport:     helperTransport(t, mode),
		TempDir:       t.TempDir(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func TestSubprocessTransport_EndToEnd(t *testing.T) {
	f := newSubprocessTestFrontend(t, "ok")

	res, err := f.GetRequiresForBuildSdist(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetRequiresForBuildSdist failed: %v", err)
	}
	if len(res.Requires) != 2 || res.Requires[0].String() != "a==1" || res.Requires[1].String() != "b" {
		t.Errorf("Requires = %v", res.Requires)
	}
	if !strings.Contains(res.Out, "backend out") {
		t.Errorf("Out = %q, want captured stdout", res.Out)
	}
	if !strings.Contains(res.Err, "backend err") {
		t.Errorf("Err = %q, want captured stderr", res.Err)
	}
}

func TestSubprocessTransport_MissingResponseFile(t *testing.T) {
	f := newSubprocessTestFrontend(t, "silent")

	_, err := f.BuildSdist(context.Background(), t.TempDir(), nil)
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("error = %v, want *BackendError", err)
	}
	if backendErr.Code == nil || *backendErr.Code != 1 {
		t.Errorf("Code = %v, want 1", backendErr.Code)
	}
	if backendErr.ExcType != "RuntimeError" {
		t.Errorf("ExcType = %q, want RuntimeError", backendErr.ExcType)
	}
}

func TestSubprocessTransport_CrashedBackend(t *testing.T) {
	f := newSubprocessTestFrontend(t, "crash")

	// The exit code of the process is irrelevant: no response file means
	// the synthesized missing-response failure, with stderr preserved.
	_, err := f.BuildSdist(context.Background(), t.TempDir(), nil)
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("error = %v, want *BackendError", err)
	}
	if backendErr.Code == nil || *backendErr.Code != 1 {
		t.Errorf("Code = %v, want 1", backendErr.Code)
	}
	if !strings.Contains(backendErr.Err, "backend blew up") {
		t.Errorf("Err = %q, want captured crash output", backendErr.Err)
	}
}

func TestSubprocessStatus_NotDoneBeforeExit(t *testing.T) {
	tr := helperTransport(t, "silent")
	status, err := tr.Send(context.Background(), "build_sdist", "unused", []byte(`{"cmd":"build_sdist","kwargs":{},"result":"unused"}`))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	waitDone(status, DefaultPollInterval)
	if !status.Done() {
		t.Error("Done() regressed after reporting true")
	}
}

func TestNewSubprocessFrontend_Wiring(t *testing.T) {
	f, err := NewSubprocessFrontend(&Config{
		Root:          t.TempDir(),
		BackendModule: "flit_core.buildapi",
		BackendObj:    "buildapi",
		Runner:        "/opt/pybuild/_backend.py",
		Python:        "python3.12",
	})
	if err != nil {
		t.Fatalf("NewSubprocessFrontend failed: %v", err)
	}
	tr, ok := f.transport.(*SubprocessTransport)
	if !ok {
		t.Fatalf("transport = %T, want *SubprocessTransport", f.transport)
	}
	if tr.Python != "python3.12" {
		t.Errorf("Python = %q", tr.Python)
	}
	want := []string{"/opt/pybuild/_backend.py", "False", "flit_core.buildapi", "buildapi"}
	if len(tr.Args) != len(want) {
		t.Fatalf("Args = %v, want %v", tr.Args, want)
	}
	for i := range want {
		if tr.Args[i] != want[i] {
			t.Errorf("Args[%d] = %q, want %q", i, tr.Args[i], want[i])
		}
	}
}

func TestNewSubprocessFrontend_RequiresRunner(t *testing.T) {
	_, err := NewSubprocessFrontend(&Config{
		Root:          t.TempDir(),
		BackendModule: "setuptools.build_meta",
	})
	if err == nil {
		t.Fatal("NewSubprocessFrontend succeeded without a runner path")
	}
}
