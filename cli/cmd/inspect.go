package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/petrel-io/pybuild/cli/render"
	"github.com/petrel-io/pybuild/journal"
)

// InspectRow is one journal record in inspect output.
type InspectRow struct {
	ID         string `json:"id" yaml:"id"`
	Cmd        string `json:"cmd" yaml:"cmd"`
	Backend    string `json:"backend" yaml:"backend"`
	StartedAt  string `json:"started_at" yaml:"started_at"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
	Outcome    string `json:"outcome" yaml:"outcome"`
	Code       *int   `json:"code,omitempty" yaml:"code,omitempty"`
	ExcType    string `json:"exc_type,omitempty" yaml:"exc_type,omitempty"`
}

// InspectCommand returns the inspect command. It is read-only: it decodes
// an exchange journal and never contacts a backend.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode an exchange journal file",
		ArgsUsage: "<journal-file>",
		Flags: append(OutputFlags(),
			&cli.StringFlag{
				Name:  "cmd",
				Usage: "Only show exchanges for this command",
			},
			&cli.BoolFlag{
				Name:  "failed",
				Usage: "Only show failed exchanges",
			},
		),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("inspect requires exactly one journal file argument", exitUsage)
	}
	path := c.Args().First()

	records, err := journal.ReadFile(path)
	if err != nil && !errors.Is(err, journal.ErrPartialFrame) {
		return cli.Exit(fmt.Sprintf("cannot read journal %s: %v", path, err), exitUsage)
	}
	truncated := errors.Is(err, journal.ErrPartialFrame)

	rows := make([]InspectRow, 0, len(records))
	for _, rec := range records {
		if cmdFilter := c.String("cmd"); cmdFilter != "" && rec.Cmd != cmdFilter {
			continue
		}
		if c.Bool("failed") && rec.Outcome == journal.OutcomeOK {
			continue
		}
		rows = append(rows, InspectRow{
			ID:         rec.ID,
			Cmd:        rec.Cmd,
			Backend:    rec.Backend,
			StartedAt:  rec.StartedAt.Format(time.RFC3339),
			DurationMS: rec.DurationMS,
			Outcome:    rec.Outcome,
			Code:       rec.Code,
			ExcType:    rec.ExcType,
		})
	}

	r, err := render.NewRenderer(c, "")
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if err := r.Render(rows); err != nil {
		return err
	}

	if truncated {
		return cli.Exit(fmt.Sprintf("warning: journal %s ends with a truncated frame", path), exitContractViolation)
	}
	return nil
}
