package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/petrel-io/pybuild/types"
)

// DepsResponse is the response for the deps command.
type DepsResponse struct {
	Backend  string   `json:"backend" yaml:"backend"`
	For      string   `json:"for" yaml:"for"`
	Requires []string `json:"requires" yaml:"requires"`
}

// DepsCommand returns the deps command. It asks the backend which extra
// requirements a build would need on top of the declared ones.
func DepsCommand() *cli.Command {
	return &cli.Command{
		Name:  "deps",
		Usage: "Query extra build requirements from the backend",
		Flags: append(BuildFlags(),
			&cli.StringFlag{
				Name:  "for",
				Usage: "Build target: sdist or wheel",
				Value: "wheel",
			},
		),
		Action: depsAction,
	}
}

func depsAction(c *cli.Context) error {
	target := c.String("for")
	if target != "sdist" && target != "wheel" {
		return cli.Exit(fmt.Sprintf("invalid --for value %q (must be sdist or wheel)", target), exitUsage)
	}

	sess, err := newSession(c)
	if err != nil {
		return err
	}
	defer sess.Close()

	r, err := newSessionRenderer(c, sess)
	if err != nil {
		return err
	}

	var requires []types.Requirement
	ctx := context.Background()
	switch target {
	case "sdist":
		result, err := sess.frontend.GetRequiresForBuildSdist(ctx, sess.settings)
		if err != nil {
			return exitForError(err)
		}
		requires = result.Requires
	case "wheel":
		result, err := sess.frontend.GetRequiresForBuildWheel(ctx, sess.settings)
		if err != nil {
			return exitForError(err)
		}
		requires = result.Requires
	}

	resp := DepsResponse{
		Backend:  sess.frontend.Backend(),
		For:      target,
		Requires: make([]string, 0, len(requires)),
	}
	for _, req := range requires {
		resp.Requires = append(resp.Requires, req.String())
	}

	if c.Bool("stats") {
		printStats(sess)
	}
	return r.Render(resp)
}
