// Package frontend implements the controlling half of the build backend
// protocol: it assembles command messages, delivers them through a
// transport, polls the command to completion, and validates the backend's
// response per PROTOCOL.md.
//
// The frontend is deliberately paranoid about the backend: the backend is
// untrusted, versioned independently, and may crash, hang, or omit
// optional operations. Every response is shape-checked at the protocol
// boundary and every failure carries the full captured output and error
// streams.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/petrel-io/pybuild/fsx"
	"github.com/petrel-io/pybuild/journal"
	"github.com/petrel-io/pybuild/log"
	"github.com/petrel-io/pybuild/metrics"
	"github.com/petrel-io/pybuild/types"
)

// Backend identity defaults when the project does not declare a backend.
const (
	// LegacyBuildBackend is the backend key assumed for projects without one.
	LegacyBuildBackend = "setuptools.build_meta:__legacy__"
)

// LegacyRequires returns the build requirements assumed for projects that
// do not declare any.
func LegacyRequires() []types.Requirement {
	return []types.Requirement{
		{Name: "setuptools", Specifier: ">= 40.8.0"},
		{Name: "wheel"},
	}
}

// Config configures a Frontend. Identity fields are fixed for the lifetime
// of the instance; a Frontend never mutates shared state between
// operations, so separate instances targeting independent projects are
// safe to run concurrently.
type Config struct {
	// Root is the project root path.
	Root string
	// BackendPaths are extra import paths provisioned to the backend.
	BackendPaths []string
	// BackendModule is the module where the backend lives.
	BackendModule string
	// BackendObj is the optional backend object key within the module.
	BackendObj string
	// Requires are the declared build requirements for the backend.
	Requires []types.Requirement
	// ReuseBackend indicates whether one backend process may serve
	// multiple commands. Transports that spawn a fresh process per
	// command ignore it beyond forwarding it to the backend.
	ReuseBackend bool
	// Runner is the path to the backend-side command loop entry point.
	Runner string
	// Python is the interpreter hosting the backend. Used by the
	// subprocess transport; defaults to DefaultPython.
	Python string

	// Transport delivers request messages to the backend.
	Transport Transport
	// Logger is optional; nil disables logging.
	Logger *log.Logger
	// Collector is optional; nil disables metrics (nil-safe increments).
	Collector *metrics.Collector
	// Journal is optional; when set, every exchange is recorded.
	Journal *journal.Writer
	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration
	// TempDir overrides the result-file directory (tests). Defaults to
	// the OS temp dir.
	TempDir string
}

// Frontend drives a build backend through the five build operations.
// Configuration is immutable after construction; at most one command is
// in flight per instance.
type Frontend struct {
	root          string
	backendPaths  []string
	backendModule string
	backendObj    string
	requires      []types.Requirement
	reuseBackend  bool
	runner        string

	transport    Transport
	logger       *log.Logger
	collector    *metrics.Collector
	journal      *journal.Writer
	pollInterval time.Duration
	tempDir      string
}

// New creates a frontend from config.
func New(config *Config) (*Frontend, error) {
	if config.Root == "" {
		return nil, errors.New("frontend: project root is required")
	}
	if config.BackendModule == "" {
		return nil, errors.New("frontend: backend module is required")
	}
	if config.Transport == nil {
		return nil, errors.New("frontend: transport is required")
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	tempDir := config.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &Frontend{
		root:          config.Root,
		backendPaths:  append([]string(nil), config.BackendPaths...),
		backendModule: config.BackendModule,
		backendObj:    config.BackendObj,
		requires:      append([]types.Requirement(nil), config.Requires...),
		reuseBackend:  config.ReuseBackend,
		runner:        config.Runner,
		transport:     config.Transport,
		logger:        config.Logger,
		collector:     config.Collector,
		journal:       config.Journal,
		pollInterval:  pollInterval,
		tempDir:       tempDir,
	}, nil
}

// Root returns the project root path.
func (f *Frontend) Root() string { return f.root }

// Requires returns the declared build requirements for the backend.
func (f *Frontend) Requires() []types.Requirement {
	return append([]types.Requirement(nil), f.requires...)
}

// Backend returns the backend key, module[:obj].
func (f *Frontend) Backend() string {
	if f.backendObj != "" {
		return f.backendModule + ":" + f.backendObj
	}
	return f.backendModule
}

// BackendArgs returns the startup arguments for a backend-hosting process:
// the runner entry point, the reuse flag as text, the backend module, and
// the backend object key when present.
func (f *Frontend) BackendArgs() []string {
	reuse := "False"
	if f.reuseBackend {
		reuse = "True"
	}
	args := []string{f.runner, reuse, f.backendModule}
	if f.backendObj != "" {
		args = append(args, f.backendObj)
	}
	return args
}

// GetRequiresForBuildSdist returns the build requirements for a source
// distribution.
//
// A backend-reported failure degrades to an empty requirement list with
// the captured streams preserved: the hook is optional and a backend
// without it must not fail the build.
func (f *Frontend) GetRequiresForBuildSdist(ctx context.Context, settings types.ConfigSettings) (*types.RequiresBuildSdistResult, error) {
	requires, out, errText, err := f.requiresFor(ctx, "get_requires_for_build_sdist", settings)
	if err != nil {
		return nil, err
	}
	return &types.RequiresBuildSdistResult{Requires: requires, Out: out, Err: errText}, nil
}

// GetRequiresForBuildWheel returns the build requirements for a wheel.
// Backend-reported failures degrade the same way as for the sdist variant.
func (f *Frontend) GetRequiresForBuildWheel(ctx context.Context, settings types.ConfigSettings) (*types.RequiresBuildWheelResult, error) {
	requires, out, errText, err := f.requiresFor(ctx, "get_requires_for_build_wheel", settings)
	if err != nil {
		return nil, err
	}
	return &types.RequiresBuildWheelResult{Requires: requires, Out: out, Err: errText}, nil
}

func (f *Frontend) requiresFor(ctx context.Context, cmd string, settings types.ConfigSettings) ([]types.Requirement, string, string, error) {
	result, out, errText, err := f.send(ctx, cmd, map[string]any{
		"config_settings": settings,
	})
	if err != nil {
		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			return nil, "", "", err
		}
		// Optional hook: treat the failure as "no extra requirements".
		result, out, errText = []any{}, backendErr.Out, backendErr.Err
	}

	specs, ok := stringList(result)
	if !ok {
		return nil, "", "", f.unexpectedResponse(cmd, result, "list of string", out, errText)
	}
	requires, parseErr := types.ParseRequirements(specs)
	if parseErr != nil {
		return nil, "", "", fmt.Errorf("%s on %s: %w", cmd, f.Backend(), parseErr)
	}
	return requires, out, errText, nil
}

// PrepareMetadataForBuildWheel generates the wheel metadata into
// metadataDirectory.
//
// The directory must differ from the project root and is reset to empty
// before use. When the backend reports it cannot prepare metadata
// directly, the metadata is recovered from a freshly built wheel.
func (f *Frontend) PrepareMetadataForBuildWheel(ctx context.Context, metadataDirectory string, settings types.ConfigSettings) (*types.MetadataForBuildWheelResult, error) {
	if filepath.Clean(metadataDirectory) == filepath.Clean(f.root) {
		return nil, fmt.Errorf("%w: %s", ErrMetadataIsRoot, f.root)
	}
	if err := fsx.EnsureEmptyDir(metadataDirectory); err != nil {
		return nil, err
	}

	result, out, errText, err := f.send(ctx, "prepare_metadata_for_build_wheel", map[string]any{
		"metadata_directory": metadataDirectory,
		"config_settings":    settings,
	})
	if err != nil {
		var backendErr *BackendError
		if !errors.As(err, &backendErr) {
			return nil, err
		}
		// The backend does not provide the hook; acquire the metadata
		// from a built wheel instead.
		f.collector.IncMetadataFallback()
		f.logger.Info("falling back to metadata from built wheel", map[string]any{
			"exc_type": backendErr.ExcType,
			"exc_msg":  backendErr.ExcMsg,
		})
		basename, wheelOut, wheelErr, fallbackErr := f.metadataFromBuiltWheel(ctx, settings, metadataDirectory)
		if fallbackErr != nil {
			return nil, fallbackErr
		}
		result, out, errText = basename, wheelOut, wheelErr
	}

	basename, ok := result.(string)
	if !ok {
		return nil, f.unexpectedResponse("prepare_metadata_for_build_wheel", result, "string", out, errText)
	}
	return &types.MetadataForBuildWheelResult{
		Metadata: filepath.Join(metadataDirectory, basename),
		Out:      out,
		Err:      errText,
	}, nil
}

// BuildSdist builds a source distribution into sdistDirectory, creating
// the directory if absent.
func (f *Frontend) BuildSdist(ctx context.Context, sdistDirectory string, settings types.ConfigSettings) (*types.SdistResult, error) {
	if err := os.MkdirAll(sdistDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("create sdist directory: %w", err)
	}
	result, out, errText, err := f.send(ctx, "build_sdist", map[string]any{
		"sdist_directory": sdistDirectory,
		"config_settings": settings,
	})
	if err != nil {
		return nil, err
	}
	basename, ok := result.(string)
	if !ok {
		return nil, f.unexpectedResponse("build_sdist", result, "string", out, errText)
	}
	return &types.SdistResult{
		Sdist: filepath.Join(sdistDirectory, basename),
		Out:   out,
		Err:   errText,
	}, nil
}

// BuildWheel builds a wheel into wheelDirectory, creating the directory if
// absent. metadataDirectory is the optional output of a previous
// PrepareMetadataForBuildWheel call; empty means none.
func (f *Frontend) BuildWheel(ctx context.Context, wheelDirectory string, settings types.ConfigSettings, metadataDirectory string) (*types.WheelResult, error) {
	if err := os.MkdirAll(wheelDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("create wheel directory: %w", err)
	}
	var metadata any
	if metadataDirectory != "" {
		metadata = metadataDirectory
	}
	result, out, errText, err := f.send(ctx, "build_wheel", map[string]any{
		"wheel_directory":    wheelDirectory,
		"config_settings":    settings,
		"metadata_directory": metadata,
	})
	if err != nil {
		return nil, err
	}
	basename, ok := result.(string)
	if !ok {
		return nil, f.unexpectedResponse("build_wheel", result, "string", out, errText)
	}
	return &types.WheelResult{
		Wheel: filepath.Join(wheelDirectory, basename),
		Out:   out,
		Err:   errText,
	}, nil
}

// SendCmd sends a raw command to the backend and returns its response
// value plus the captured output and error text. Escape hatch for hooks
// outside the five build operations.
func (f *Frontend) SendCmd(ctx context.Context, cmd string, kwargs map[string]any) (any, string, string, error) {
	return f.send(ctx, cmd, kwargs)
}

// unexpectedResponse converts a shape mismatch into a BackendError so
// callers only ever handle one failure kind for backend misbehavior.
func (f *Frontend) unexpectedResponse(cmd string, got any, expected string, out, errText string) *BackendError {
	f.collector.IncShapeViolation()
	msg := fmt.Sprintf("%s on %s returned %s but expected type %s",
		strconv.Quote(cmd), strconv.Quote(f.Backend()), renderValue(got), strconv.Quote(expected))
	return &BackendError{
		Code:    nil,
		ExcType: "TypeError",
		ExcMsg:  msg,
		Out:     out,
		Err:     errText,
	}
}

// stringList reports whether v is a list containing only strings, and
// returns it as one.
func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case []string:
		return list, true
	}
	return nil, false
}

// renderValue renders a response value for error messages.
func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}
