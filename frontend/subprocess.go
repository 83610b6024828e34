package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/petrel-io/pybuild/iox"
)

// DefaultPython is the interpreter used to host the backend when none is
// configured.
const DefaultPython = "python3"

// SubprocessTransport starts one fresh backend-hosting process per
// command. Isolation over latency: a crashed or wedged backend never
// poisons the next command.
//
// The process receives the request message on its input stream, wrapped in
// host line terminators, and is expected to write its response to the
// result file named inside the message. Its output and error streams are
// drained concurrently so the child can never deadlock on a full pipe
// buffer while the frontend is still polling.
type SubprocessTransport struct {
	// Python is the interpreter executable. Defaults to DefaultPython.
	Python string
	// Args is the backend argv after the interpreter: runner path, reuse
	// flag, backend module, optional backend object key.
	Args []string
	// Root is the working directory for the backend process.
	Root string
	// BackendPaths extend the backend's import search path. They are
	// joined with the host list separator into PYTHONPATH.
	BackendPaths []string
	// ExtraEnv appends entries to the child environment (tests).
	ExtraEnv []string
}

// osLineSep is the host line terminator written around the request message.
var osLineSep = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// Send starts a fresh backend process, delivers the request message on its
// stdin, and returns a status handle bound to that process.
func (t *SubprocessTransport) Send(ctx context.Context, cmd, resultFile string, msg []byte) (CmdStatus, error) {
	python := t.Python
	if python == "" {
		python = DefaultPython
	}

	proc := exec.CommandContext(ctx, python, t.Args...)
	proc.Dir = t.Root

	env := os.Environ()
	if backendPath := strings.TrimSpace(strings.Join(t.BackendPaths, string(os.PathListSeparator))); backendPath != "" {
		env = append(env, "PYTHONPATH="+backendPath)
	}
	proc.Env = append(env, t.ExtraEnv...)

	stdin, err := proc.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := proc.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := proc.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := proc.Start(); err != nil {
		return nil, fmt.Errorf("start backend process for %s: %w", cmd, err)
	}

	// A short-lived backend may exit before consuming its stdin; a write
	// error here just means the response file will never appear, which
	// the protocol already reports.
	_, _ = io.WriteString(stdin, osLineSep+string(msg)+osLineSep)
	iox.DiscardClose(stdin)

	return newSubprocessStatus(proc, stdout, stderr), nil
}

// subprocessStatus drains the backend's streams in the background and
// settles done once the process has exited and both streams are recorded.
type subprocessStatus struct {
	mu   sync.Mutex
	done bool
	out  string
	err  string
}

func newSubprocessStatus(proc *exec.Cmd, stdout, stderr io.Reader) *subprocessStatus {
	s := &subprocessStatus{}

	var wg sync.WaitGroup
	var outBytes, errBytes []byte
	wg.Add(2)
	go func() {
		defer wg.Done()
		outBytes, _ = io.ReadAll(stdout)
	}()
	go func() {
		defer wg.Done()
		errBytes, _ = io.ReadAll(stderr)
	}()

	go func() {
		// Drain before Wait: Wait closes the pipes, which would race the
		// readers out of buffered data.
		wg.Wait()
		waitErr := proc.Wait()

		s.mu.Lock()
		s.out = string(outBytes)
		s.err = string(errBytes)
		if waitErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(waitErr, &exitErr) {
				// Wait itself failed; surface it on the error stream so
				// the diagnostic text reaches the caller.
				s.err += waitErr.Error()
			}
		}
		s.done = true
		s.mu.Unlock()
	}()

	return s
}

// Done reports whether the process has exited and both streams are fully
// drained. Monotonic: once true, stays true.
func (s *subprocessStatus) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// OutErr returns the captured output and error text. Valid only once Done
// reports true.
func (s *subprocessStatus) OutErr() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out, s.err
}

// NewSubprocessFrontend builds a frontend wired to a fresh-process
// transport. Process reuse is disabled: each command gets its own backend
// process, mirroring the reuse flag passed in the backend argv.
func NewSubprocessFrontend(config *Config) (*Frontend, error) {
	if config.Runner == "" {
		return nil, errors.New("frontend: backend runner path is required for the subprocess transport")
	}

	cfg := *config
	cfg.ReuseBackend = false

	// The reuse flag travels as text in the backend argv.
	args := []string{cfg.Runner, "False", cfg.BackendModule}
	if cfg.BackendObj != "" {
		args = append(args, cfg.BackendObj)
	}

	cfg.Transport = &SubprocessTransport{
		Python:       cfg.Python,
		Args:         args,
		Root:         cfg.Root,
		BackendPaths: cfg.BackendPaths,
	}
	return New(&cfg)
}
