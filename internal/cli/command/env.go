package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/starledger/internal/cli/output"
	"github.com/yndnr/starledger/internal/config"
	"github.com/yndnr/starledger/internal/core/extract"
	"github.com/yndnr/starledger/internal/core/history"
	"github.com/yndnr/starledger/internal/core/service"
	"github.com/yndnr/starledger/internal/infra/shutdown"
	"github.com/yndnr/starledger/internal/ingest"
	"github.com/yndnr/starledger/internal/storage"
	"github.com/yndnr/starledger/internal/storage/memory"
	"github.com/yndnr/starledger/internal/storage/snapshot"
	"github.com/yndnr/starledger/internal/telemetry/logger"
	"github.com/yndnr/starledger/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

var errNoDiskStore = errors.New("this command needs an on-disk store; drop --in-memory")

// env holds what commands share. The store is opened on first use so
// that commands like version never touch the data directory.
type env struct {
	cfg      *config.Config
	log      logger.Logger
	format   output.Format
	wide     bool
	metrics  *metric.Registry
	shutdown *shutdown.Handler

	kv     *storage.BadgerEngine
	store  service.HistoryStore
	ledger *service.Ledger
}

func newEnv(cfg *config.Config, log logger.Logger, format output.Format, wide bool) *env {
	return &env{
		cfg:      cfg,
		log:      log,
		format:   format,
		wide:     wide,
		metrics:  metric.NewRegistry(),
		shutdown: shutdown.NewHandler(shutdownTimeout),
	}
}

// open opens the history store and builds the ledger over it.
func (e *env) open() error {
	if e.ledger != nil {
		return nil
	}

	if e.cfg.Storage.InMemory {
		e.store = memory.NewHistoryStore()
	} else {
		kvCfg := storage.DefaultKVConfig(e.cfg.Storage.DataDir)
		kvCfg.Badger.GCInterval = e.cfg.Storage.GCInterval
		kvCfg.Badger.SyncWrites = e.cfg.Storage.SyncWrites
		kv, err := storage.NewBadgerEngine(kvCfg, e.log.Slog())
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		e.shutdown.OnShutdown(func(context.Context) error { return kv.Close() })

		codecCfg := snapshot.DefaultConfig()
		codecCfg.Compress = e.cfg.Storage.CompressSnapshots
		codec, err := snapshot.NewCodec(codecCfg)
		if err != nil {
			return err
		}
		e.shutdown.OnShutdown(func(context.Context) error {
			codec.Close()
			return nil
		})

		e.kv = kv
		e.store = storage.NewHistoryStore(kv, codec, e.log.Slog())
	}

	engine := history.New(
		history.WithBudgetTolerance(e.cfg.History.BudgetTolerance),
		history.WithPopEvents(e.cfg.History.PopEvents),
	)
	e.ledger = service.NewLedger(e.store, engine,
		service.WithLedgerLogger(e.log.Slog()),
		service.WithCommitObserver(e.observeCommit),
	)
	return nil
}

func (e *env) observeCommit(res *service.CommitResult) {
	e.metrics.CommitDuration.Observe(res.Elapsed.Seconds())
	e.metrics.SeriesRowsTotal.Add(float64(res.Series))
	for typ, n := range res.ByType {
		e.metrics.EventsTotal.WithLabelValues(string(typ)).Add(float64(n))
	}
}

// monitor builds an ingestion monitor over the ledger.
func (e *env) monitor() (*ingest.Monitor, error) {
	if err := e.open(); err != nil {
		return nil, err
	}

	resolver := extract.NewLocalizationResolver(nil)
	if len(e.cfg.Names.Files) > 0 {
		var err error
		if resolver, err = extract.LoadLocalization(e.cfg.Names.Files...); err != nil {
			return nil, err
		}
	}
	extractor := extract.New(resolver, extract.WithPlayerName(e.cfg.Ingest.PlayerName))

	return ingest.New(e.cfg.Ingest, e.ledger, extractor,
		ingest.WithLogger(e.log),
		ingest.WithMetrics(e.metrics),
		ingest.WithResetter(e.store),
	), nil
}

// diskStore returns the Badger engine, failing for in-memory stores.
func (e *env) diskStore() (*storage.BadgerEngine, error) {
	if e.cfg.Storage.InMemory {
		return nil, errNoDiskStore
	}
	if err := e.open(); err != nil {
		return nil, err
	}
	return e.kv, nil
}

// render writes data to the command output in the selected format.
func (e *env) render(w io.Writer, data any) error {
	return output.NewFormatter(e.format, e.wide).Format(w, data)
}

func (e *env) close() error {
	return e.shutdown.Shutdown()
}

// mustEnv returns the environment or an error when setup did not run.
func mustEnv(c *cli.Context) (*env, error) {
	e := envFrom(c)
	if e == nil {
		return nil, errors.New("command environment is not initialized")
	}
	return e, nil
}
