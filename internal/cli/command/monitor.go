package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/starledger/internal/config"
	"github.com/yndnr/starledger/internal/telemetry/metric"
)

// MonitorCommand returns the monitor command.
func MonitorCommand() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Watch the save directory and ingest new saves as they appear",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "process-existing",
				Usage: "Ingest saves already present at startup",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Expose Prometheus metrics on this address, e.g. 127.0.0.1:9464",
			},
		},
		Action: monitorRun,
	}
}

func monitorRun(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	if c.IsSet("process-existing") {
		e.cfg.Ingest.ProcessExisting = c.Bool("process-existing")
	}
	if c.IsSet("metrics-addr") {
		e.cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if err := config.Verify(e.cfg, true); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	mon, err := e.monitor()
	if err != nil {
		return err
	}

	if addr := e.cfg.Metrics.Addr; addr != "" {
		reg := e.metrics.Registerer()
		if err := reg.Register(metric.NewCollector(e.store)); err != nil {
			return fmt.Errorf("register store metrics: %w", err)
		}
		if e.kv != nil {
			e.kv.RegisterMetrics(reg)
		}
	}

	ctx, stop := e.shutdown.Context(c.Context)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mon.Run(gctx)
	})
	if addr := e.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error {
			return e.metrics.Serve(gctx, addr, e.log.Slog())
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	e.log.Info("monitor stopped")
	return err
}
