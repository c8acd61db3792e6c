package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/starledger/internal/cli/output"
	"github.com/yndnr/starledger/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration (defaults, file, environment and flags merged)",
				Action: configShow,
			},
			{
				Name:  "validate",
				Usage: "Validate the configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "ingest",
						Usage: "Also require a usable save directory",
					},
				},
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	if e.format == output.FormatJSON {
		return e.render(c.App.Writer, e.cfg)
	}

	// Encoded directly so durations print as "30s".
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(e.cfg); err != nil {
		return err
	}
	return enc.Close()
}

func configValidate(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	if err := config.Verify(e.cfg, c.Bool("ingest")); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	return nil
}
