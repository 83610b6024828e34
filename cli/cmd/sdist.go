package cmd

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

// SdistResponse is the response for the sdist command.
type SdistResponse struct {
	Backend string `json:"backend" yaml:"backend"`
	Sdist   string `json:"sdist" yaml:"sdist"`
}

// SdistCommand returns the sdist command.
func SdistCommand() *cli.Command {
	return &cli.Command{
		Name:  "sdist",
		Usage: "Build a source distribution",
		Flags: append(BuildFlags(),
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Destination directory for the sdist",
				Value: "dist",
			},
		),
		Action: sdistAction,
	}
}

func sdistAction(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	defer sess.Close()

	r, err := newSessionRenderer(c, sess)
	if err != nil {
		return err
	}

	dest, err := filepath.Abs(c.String("dest"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	result, err := sess.frontend.BuildSdist(context.Background(), dest, sess.settings)
	if err != nil {
		return exitForError(err)
	}

	if c.Bool("stats") {
		printStats(sess)
	}
	return r.Render(SdistResponse{
		Backend: sess.frontend.Backend(),
		Sdist:   result.Sdist,
	})
}
