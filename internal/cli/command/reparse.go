package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/starledger/internal/cli/output"
	"github.com/yndnr/starledger/internal/config"
)

// ReparseCommand returns the reparse command.
func ReparseCommand() *cli.Command {
	return &cli.Command{
		Name:  "reparse",
		Usage: "Ingest every save already in the save directory",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Only these sessions (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Delete the stored history of the sessions first",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not show progress",
			},
		},
		Action: reparseRun,
	}
}

func reparseRun(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	if err := config.Verify(e.cfg, true); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	mon, err := e.monitor()
	if err != nil {
		return err
	}

	ctx, stop := e.shutdown.Context(c.Context)
	defer stop()

	var spinner *output.Spinner
	if e.format == output.FormatTable && !c.Bool("quiet") {
		spinner = output.NewSpinner(c.App.ErrWriter, "Reparsing saves...")
		spinner.Start()
	}

	rep, err := mon.Reparse(ctx, c.StringSlice("session"), c.Bool("reset"))
	if err != nil {
		if spinner != nil {
			spinner.Fail("Reparse failed")
		}
		return err
	}
	if spinner != nil {
		spinner.Success(fmt.Sprintf("%d saves committed", rep.Committed))
	}
	return e.render(c.App.Writer, rep)
}
