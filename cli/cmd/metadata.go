package cmd

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

// MetadataResponse is the response for the metadata command.
type MetadataResponse struct {
	Backend  string `json:"backend" yaml:"backend"`
	Metadata string `json:"metadata" yaml:"metadata"`
}

// MetadataCommand returns the metadata command. It materializes the
// project's core metadata directory, falling back to a throwaway wheel
// build when the backend does not implement the metadata hook.
func MetadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "metadata",
		Usage: "Materialize wheel metadata without building a wheel",
		Flags: append(BuildFlags(),
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Destination directory for the metadata",
				Value: filepath.Join("dist", "metadata"),
			},
		),
		Action: metadataAction,
	}
}

func metadataAction(c *cli.Context) error {
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

	result, err := sess.frontend.PrepareMetadataForBuildWheel(context.Background(), dest, sess.settings)
	if err != nil {
		return exitForError(err)
	}

	if c.Bool("stats") {
		printStats(sess)
	}
	return r.Render(MetadataResponse{
		Backend:  sess.frontend.Backend(),
		Metadata: result.Metadata,
	})
}
