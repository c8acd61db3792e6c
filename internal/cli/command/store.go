package command

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/starledger/internal/cli/output"
)

// StoreCommand returns the store subcommand group.
func StoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "History store maintenance",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show store disk usage",
				Action: storeStats,
			},
			{
				Name:   "gc",
				Usage:  "Reclaim value log space",
				Action: storeGC,
			},
			{
				Name:  "backup",
				Usage: "Write a full backup of the store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Backup file to create",
						Required: true,
					},
				},
				Action: storeBackup,
			},
			{
				Name:  "restore",
				Usage: "Replace the store content with a backup",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Backup file to load",
						Required: true,
					},
				},
				Action: storeRestore,
			},
		},
	}
}

// storeStatsView is the printable form of the engine statistics.
type storeStatsView struct {
	DataDir          string    `json:"data_dir"`
	TotalSize        uint64    `json:"total_size"`
	LSMSize          uint64    `json:"lsm_size"`
	ValueLogSize     uint64    `json:"value_log_size"`
	LastGC           time.Time `json:"last_gc"`
	GCBytesReclaimed uint64    `json:"gc_bytes_reclaimed"`
}

func storeStats(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	kv, err := e.diskStore()
	if err != nil {
		return err
	}

	stats, err := kv.Stats(c.Context)
	if err != nil {
		return err
	}
	view := storeStatsView{
		DataDir:          e.cfg.Storage.DataDir,
		TotalSize:        stats.TotalSize,
		LSMSize:          stats.LSMSize,
		ValueLogSize:     stats.ValueLogSize,
		GCBytesReclaimed: stats.GCBytesReclaimed,
	}
	if stats.LastGCTime > 0 {
		view.LastGC = time.UnixMilli(stats.LastGCTime)
	}
	return e.render(c.App.Writer, view)
}

func storeGC(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	kv, err := e.diskStore()
	if err != nil {
		return err
	}

	reclaimed, err := kv.GC(c.Context)
	if err != nil {
		return err
	}
	if e.format != output.FormatTable {
		return e.render(c.App.Writer, map[string]uint64{"reclaimed": reclaimed})
	}
	fmt.Fprintf(c.App.Writer, "GC complete, about %d bytes reclaimed\n", reclaimed)
	return nil
}

func storeBackup(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	kv, err := e.diskStore()
	if err != nil {
		return err
	}

	src, err := kv.SaveSnapshot(c.Context)
	if err != nil {
		return err
	}
	defer src.Close()

	path := c.String("file")
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}

	bar := output.NewProgressBar(c.App.ErrWriter, "Writing backup")
	n, err := io.Copy(dst, io.TeeReader(src, bar))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write backup: %w", err)
	}
	bar.Finish()

	e.log.Info("backup written", "file", path, "bytes", n)
	fmt.Fprintf(c.App.Writer, "Backup written to %s (%d bytes)\n", path, n)
	return nil
}

func storeRestore(c *cli.Context) error {
	e, err := mustEnv(c)
	if err != nil {
		return err
	}
	kv, err := e.diskStore()
	if err != nil {
		return err
	}

	path := c.String("file")
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer src.Close()

	bar := output.NewProgressBar(c.App.ErrWriter, "Restoring backup")
	if info, err := src.Stat(); err == nil {
		bar.SetTotal(info.Size())
	}
	if err := kv.LoadSnapshot(c.Context, io.TeeReader(src, bar)); err != nil {
		return err
	}
	bar.Finish()

	fmt.Fprintf(c.App.Writer, "Store restored from %s\n", path)
	return nil
}
