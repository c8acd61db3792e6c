package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/starledger/internal/cli/output"
	"github.com/yndnr/starledger/internal/config"
	"github.com/yndnr/starledger/internal/infra/buildinfo"
	"github.com/yndnr/starledger/internal/infra/confloader"
	"github.com/yndnr/starledger/internal/telemetry/logger"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "starledger",
		Usage:   "Turn a directory of save games into a queryable history",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			MonitorCommand(),
			ReparseCommand(),
			SessionsCommand(),
			EventsCommand(),
			SeriesCommand(),
			StoreCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: setup,
		After: func(c *cli.Context) error {
			if e := envFrom(c); e != nil {
				return e.close()
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"STARLEDGER_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "History store directory",
		},
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Keep the history in memory (nothing is persisted)",
		},
		&cli.StringFlag{
			Name:  "save-dir",
			Usage: "Directory holding one subdirectory per game session",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Parallel read/parse/extract workers",
		},
		&cli.IntFlag{
			Name:  "skip-saves",
			Usage: "Process every (N+1)th save of a session",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
	}
}

// flagKeys maps global flags to configuration keys.
var flagKeys = map[string]string{
	"data-dir":   "storage.data_dir",
	"in-memory":  "storage.in_memory",
	"save-dir":   "ingest.save_dir",
	"workers":    "ingest.workers",
	"skip-saves": "ingest.skip_saves",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// flagOverrides collects the flags set on the command line.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	for name, key := range flagKeys {
		if !c.IsSet(name) {
			continue
		}
		overrides[key] = c.Value(name)
	}
	return overrides
}

// setup loads the configuration and the logger before any command runs.
func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	cfg := config.Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithOverrides(flagOverrides(c)),
	)
	if err := loader.Load(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg, false); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	c.App.Metadata[envKey] = newEnv(cfg, log, format, c.Bool("wide"))
	return nil
}

// envFrom retrieves the command environment set up by setup.
func envFrom(c *cli.Context) *env {
	if e, ok := c.App.Metadata[envKey].(*env); ok {
		return e
	}
	return nil
}
