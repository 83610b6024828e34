package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/petrel-io/pybuild/cli/config"
	"github.com/petrel-io/pybuild/cli/render"
	"github.com/petrel-io/pybuild/frontend"
	"github.com/petrel-io/pybuild/journal"
	"github.com/petrel-io/pybuild/log"
	"github.com/petrel-io/pybuild/metrics"
	"github.com/petrel-io/pybuild/project"
	"github.com/petrel-io/pybuild/types"
)

// defaultConfigName is probed in the project root when --config is not given.
const defaultConfigName = "pybuild.yaml"

// session bundles a configured frontend with its observability hooks for
// the lifetime of one command.
type session struct {
	frontend  *frontend.Frontend
	collector *metrics.Collector
	journal   *journal.Writer
	settings  types.ConfigSettings
	format    string
}

// Close releases session resources. Safe on a partially built session.
func (s *session) Close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

// newSession resolves configuration in precedence order (flags, config
// file, pyproject.toml discovery) and builds a subprocess frontend.
func newSession(c *cli.Context) (*session, error) {
	root := c.String("root")

	fileCfg, err := loadFileConfig(c, root)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}
	if fileCfg.Root != "" && !c.IsSet("root") {
		root = fileCfg.Root
	}

	cfg, err := project.Discover(root)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("project discovery failed: %v", err), exitUsage)
	}

	applyFileConfig(cfg, fileCfg, root)
	if err := applyFlags(cfg, c); err != nil {
		return nil, err
	}

	if cfg.Runner == "" {
		return nil, cli.Exit("a backend runner is required (--runner or config file)", exitUsage)
	}

	sess := &session{format: fileCfg.Format}

	if c.Bool("verbose") {
		cfg.Logger = log.NewLogger(backendKey(cfg), cfg.Root)
	}

	sess.collector = metrics.NewCollector(backendKey(cfg))
	cfg.Collector = sess.collector

	if path := journalPath(c, fileCfg); path != "" {
		w, err := journal.OpenWriter(path)
		if err != nil {
			return nil, cli.Exit(fmt.Sprintf("cannot open journal %s: %v", path, err), exitUsage)
		}
		sess.journal = w
		cfg.Journal = w
	}

	settings, err := parseConfigSettings(c.StringSlice("config-setting"))
	if err != nil {
		sess.Close()
		return nil, cli.Exit(err.Error(), exitUsage)
	}
	sess.settings = settings

	fe, err := frontend.NewSubprocessFrontend(cfg)
	if err != nil {
		sess.Close()
		return nil, cli.Exit(err.Error(), exitUsage)
	}
	sess.frontend = fe

	return sess, nil
}

// loadFileConfig loads --config when given, else probes root/pybuild.yaml.
// A missing probed file is not an error; a missing --config file is.
func loadFileConfig(c *cli.Context, root string) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}

	probe := filepath.Join(root, defaultConfigName)
	if _, err := os.Stat(probe); err != nil {
		return &config.Config{}, nil
	}
	return config.Load(probe)
}

// applyFileConfig fills discovery gaps from the config file. Backend-path
// entries from the file are resolved against the project root.
func applyFileConfig(cfg *frontend.Config, fileCfg *config.Config, root string) {
	if fileCfg.Backend != "" {
		cfg.BackendModule, cfg.BackendObj = splitBackend(fileCfg.Backend)
	}
	for _, p := range fileCfg.BackendPath {
		cfg.BackendPaths = append(cfg.BackendPaths, filepath.Join(root, p))
	}
	if fileCfg.Python != "" {
		cfg.Python = fileCfg.Python
	}
	if fileCfg.Runner != "" {
		cfg.Runner = fileCfg.Runner
	}
	if fileCfg.PollInterval.Duration > 0 {
		cfg.PollInterval = fileCfg.PollInterval.Duration
	}
}

// applyFlags overrides config with explicit flags. Flags always win.
func applyFlags(cfg *frontend.Config, c *cli.Context) error {
	if backend := c.String("backend"); backend != "" {
		cfg.BackendModule, cfg.BackendObj = splitBackend(backend)
	}
	for _, p := range c.StringSlice("backend-path") {
		abs, err := filepath.Abs(p)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid backend path %q: %v", p, err), exitUsage)
		}
		cfg.BackendPaths = append(cfg.BackendPaths, abs)
	}
	if python := c.String("python"); python != "" {
		cfg.Python = python
	}
	if runner := c.String("runner"); runner != "" {
		cfg.Runner = runner
	}
	return nil
}

func splitBackend(backend string) (module, obj string) {
	module, obj, _ = strings.Cut(backend, ":")
	return module, obj
}

func journalPath(c *cli.Context, fileCfg *config.Config) string {
	if path := c.String("journal"); path != "" {
		return path
	}
	return fileCfg.Journal
}

func backendKey(cfg *frontend.Config) string {
	if cfg.BackendObj != "" {
		return cfg.BackendModule + ":" + cfg.BackendObj
	}
	return cfg.BackendModule
}

// newSessionRenderer builds the renderer for a session command, letting the
// config file pick the default format.
func newSessionRenderer(c *cli.Context, sess *session) (*render.Renderer, error) {
	r, err := render.NewRenderer(c, sess.format)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}
	return r, nil
}

// exitForError maps operation failures onto the CLI exit code contract.
func exitForError(err error) error {
	var backendErr *frontend.BackendError
	if errors.As(err, &backendErr) {
		return cli.Exit(backendErr.Error(), exitBackendFailure)
	}
	if errors.Is(err, frontend.ErrWheelMissing) || errors.Is(err, frontend.ErrNoDistInfo) {
		return cli.Exit(err.Error(), exitContractViolation)
	}
	if errors.Is(err, frontend.ErrMetadataIsRoot) {
		return cli.Exit(err.Error(), exitUsage)
	}
	return cli.Exit(err.Error(), exitBackendFailure)
}

// printStats writes a one-command metrics summary to stderr.
func printStats(sess *session) {
	snap := sess.collector.Snapshot()
	fmt.Fprintf(os.Stderr,
		"backend=%s commands=%d succeeded=%d failed=%d shape_violations=%d missing_responses=%d metadata_fallbacks=%d out_bytes=%d err_bytes=%d\n",
		snap.Backend,
		snap.CommandsStarted,
		snap.CommandsSucceeded,
		snap.CommandsFailed,
		snap.ShapeViolations,
		snap.MissingResponses,
		snap.MetadataFallbacks,
		snap.OutBytes,
		snap.ErrBytes,
	)
}
