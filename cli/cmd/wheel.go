package cmd

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

// WheelResponse is the response for the wheel command.
type WheelResponse struct {
	Backend string `json:"backend" yaml:"backend"`
	Wheel   string `json:"wheel" yaml:"wheel"`
}

// WheelCommand returns the wheel command.
func WheelCommand() *cli.Command {
	return &cli.Command{
		Name:  "wheel",
		Usage: "Build a wheel",
		Flags: append(BuildFlags(),
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Destination directory for the wheel",
				Value: "dist",
			},
			&cli.StringFlag{
				Name:  "metadata-dir",
				Usage: "Previously materialized metadata directory to reuse",
			},
		),
		Action: wheelAction,
	}
}

func wheelAction(c *cli.Context) error {
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

	metadataDir := c.String("metadata-dir")
	if metadataDir != "" {
		metadataDir, err = filepath.Abs(metadataDir)
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}
	}

	result, err := sess.frontend.BuildWheel(context.Background(), dest, sess.settings, metadataDir)
	if err != nil {
		return exitForError(err)
	}

	if c.Bool("stats") {
		printStats(sess)
	}
	return r.Render(WheelResponse{
		Backend: sess.frontend.Backend(),
		Wheel:   result.Wheel,
	})
}
