// Package main provides the pybuild CLI entrypoint.
//
// pybuild drives Python build backends through the PEP 517 hook interface:
// it discovers the backend from pyproject.toml, spawns it under the
// configured interpreter, and exchanges commands over the wire contract
// described in docs/PROTOCOL.md.
//
// Usage:
//
//	pybuild <command> [options]
//
// Exit codes:
//   - 0: success
//   - 1: backend failure
//   - 2: contract violation (backend claimed success but broke its output contract)
//   - 3: usage error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/petrel-io/pybuild/cli/cmd"
	"github.com/petrel-io/pybuild/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "pybuild",
		Usage:          "Python build backend frontend",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.DepsCommand(),
			cmd.MetadataCommand(),
			cmd.SdistCommand(),
			cmd.WheelCommand(),
			cmd.InspectCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from
// cli.Exit() so that backend failures, contract violations, and usage
// errors stay distinguishable to callers.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// Only print if there's a real message (not just "exit status N")
		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
