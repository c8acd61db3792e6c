package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/starledger/internal/cli/output"
	"github.com/yndnr/starledger/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			e, err := mustEnv(c)
			if err != nil {
				return err
			}
			if e.format == output.FormatTable {
				fmt.Fprintf(c.App.Writer, "starledger %s\n", buildinfo.String())
				return nil
			}
			return e.render(c.App.Writer, buildinfo.Get())
		},
	}
}
