package ingest

import (
	"cmp"
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yndnr/starledger/internal/config"
	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/internal/core/extract"
	"github.com/yndnr/starledger/internal/core/service"
	"github.com/yndnr/starledger/internal/telemetry/logger"
	"github.com/yndnr/starledger/internal/telemetry/metric"
	"github.com/yndnr/starledger/pkg/cmap"
	"github.com/yndnr/starledger/pkg/savefmt"
)

// Committer is the ledger as seen by the monitor.
type Committer interface {
	Commit(ctx context.Context, snap *domain.Snapshot) (*service.CommitResult, error)
	LastDate(ctx context.Context, session string) (domain.GameDate, bool, error)
	Forget(session string)
}

// Resetter removes a session's stored history.
type Resetter interface {
	ResetSession(ctx context.Context, session string) error
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// WithMetrics records pipeline metrics in r.
func WithMetrics(r *metric.Registry) Option {
	return func(m *Monitor) {
		m.metrics = r
	}
}

// WithResetter enables Reparse with reset.
func WithResetter(r Resetter) Option {
	return func(m *Monitor) {
		m.resetter = r
	}
}

// Report summarizes one ingestion pass.
type Report struct {
	Files      int `json:"files"`
	Committed  int `json:"committed"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Events     int `json:"events"`
	Series     int `json:"series"`
	Warnings   int `json:"warnings"`
	// Sessions holds the last date committed per session in this pass.
	Sessions map[string]domain.GameDate `json:"sessions,omitempty" table:"-"`
	Elapsed  time.Duration              `json:"elapsed"`
}

// tally guards a Report shared by the committers.
type tally struct {
	mu  sync.Mutex
	rep *Report
}

func (t *tally) add(fn func(r *Report)) {
	t.mu.Lock()
	fn(t.rep)
	t.mu.Unlock()
}

// job is one save file on its way to the ledger.
type job struct {
	file SaveFile
	meta extract.Metadata
	slot chan outcome
}

// outcome is what a worker hands to the session's committer.
type outcome struct {
	snap     *domain.Snapshot
	err      error
	canceled bool
}

// Monitor ingests save files into the ledger.
type Monitor struct {
	cfg       config.IngestSection
	ledger    Committer
	extractor *extract.Extractor
	reader    *ArchiveReader
	resetter  Resetter
	logger    logger.Logger
	metrics   *metric.Registry
	workers   int
	states    *cmap.Map[SessionState]

	mu        sync.Mutex
	processed map[string]stamp
	// encountered counts the saves of each session that reached skip
	// sampling, across scans.
	encountered map[string]int
}

// New creates a Monitor.
func New(cfg config.IngestSection, ledger Committer, extractor *extract.Extractor, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:       cfg,
		ledger:    ledger,
		extractor: extractor,
		logger:    logger.Default(),
		workers:   cfg.Workers,
		states:    cmap.New[SessionState](),
		processed: make(map[string]stamp),

		encountered: make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers < 1 {
		m.workers = runtime.NumCPU()
	}
	m.reader = NewArchiveReader(cfg.ReadAttempts, cfg.RetryDelay, m.logger.Slog())
	return m
}

// State returns the current state of a session.
func (m *Monitor) State(session string) SessionState {
	s, _ := m.states.Get(session)
	return s
}

func (m *Monitor) setState(session string, s SessionState) {
	m.states.Set(session, s)
	if m.metrics != nil {
		m.metrics.SetSessionState(session, s.String(), stateNames)
	}
}

func (m *Monitor) countFile(outcome string) {
	if m.metrics != nil {
		m.metrics.IncFile(outcome)
	}
}

func (m *Monitor) observeStage(stage string, start time.Time) {
	if m.metrics != nil {
		m.metrics.ObserveStage(stage, time.Since(start))
	}
}

func (m *Monitor) markProcessed(f SaveFile) {
	m.mu.Lock()
	m.processed[f.Path] = f.stamp()
	m.mu.Unlock()
}

// pending drops files whose current version was already handled.
func (m *Monitor) pending(files []SaveFile) []SaveFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := files[:0:0]
	for _, f := range files {
		if st, ok := m.processed[f.Path]; ok && st == f.stamp() {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (m *Monitor) discover() ([]SaveFile, error) {
	return Discover(DiscoveryConfig{
		SaveDir:       m.cfg.SaveDir,
		Filter:        m.cfg.Filter,
		SessionPrefix: m.cfg.SessionPrefix,
	})
}

func (m *Monitor) parseOptions() []savefmt.TokenizerOption {
	if m.cfg.LenientQuotes {
		return []savefmt.TokenizerOption{savefmt.WithLenientQuotes()}
	}
	return nil
}

// Scan ingests the save files not handled yet.
func (m *Monitor) Scan(ctx context.Context) (*Report, error) {
	files, err := m.discover()
	if err != nil {
		return nil, err
	}
	return m.process(ctx, m.pending(files), false)
}

// Reparse ingests every save file of the given sessions, or of all
// sessions when none are named. With reset, the sessions' stored history
// is removed first.
func (m *Monitor) Reparse(ctx context.Context, sessions []string, reset bool) (*Report, error) {
	files, err := m.discover()
	if err != nil {
		return nil, err
	}
	targets := slices.Clone(sessions)
	if len(sessions) > 0 {
		files = slices.DeleteFunc(files, func(f SaveFile) bool {
			return !slices.Contains(sessions, f.Session)
		})
	} else {
		for _, f := range files {
			if !slices.Contains(targets, f.Session) {
				targets = append(targets, f.Session)
			}
		}
	}

	m.mu.Lock()
	for _, s := range targets {
		delete(m.encountered, s)
	}
	m.mu.Unlock()

	if reset {
		if m.resetter == nil {
			return nil, domain.ErrInvalidArgument.WithDetails("reset requires a history store")
		}
		for _, s := range targets {
			if err := m.resetter.ResetSession(ctx, s); err != nil {
				return nil, err
			}
			m.ledger.Forget(s)
			m.logger.Info("session reset", "session", s)
		}
	}
	return m.process(ctx, files, true)
}

// Run marks the saves present at startup processed, unless configured to
// ingest them, then ingests new saves until ctx is done. Rescans are
// triggered by file system events and by a poll timer.
func (m *Monitor) Run(ctx context.Context) error {
	files, err := m.discover()
	if err != nil {
		return err
	}
	if !m.cfg.ProcessExisting {
		for _, f := range files {
			m.markProcessed(f)
		}
		m.logger.Info("existing saves marked processed", "files", len(files))
	}

	w, err := NewWatcher(m.cfg.SaveDir, m.logger.Slog())
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return m.loop(gctx, w.Changed()) })
	return g.Wait()
}

func (m *Monitor) loop(ctx context.Context, changed <-chan struct{}) error {
	poll := m.cfg.PollInterval
	if poll <= 0 {
		poll = 30 * time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	limiter := rate.NewLimiter(rate.Every(m.cfg.Debounce), 1)

	m.logger.Info("monitoring saves",
		"save_dir", m.cfg.SaveDir,
		"workers", m.workers,
		"poll", poll)
	for {
		if err := m.rescan(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-changed:
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
		}
	}
}

func (m *Monitor) rescan(ctx context.Context) error {
	if m.metrics != nil {
		m.metrics.Rescans.Inc()
	}
	rep, err := m.Scan(ctx)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		if errors.Is(err, domain.ErrCommitConflict) || errors.Is(err, domain.ErrStorage) {
			return err
		}
		m.logger.Error("rescan failed", "error", err)
		return nil
	}
	if rep.Files > 0 {
		m.logger.Info("rescan complete",
			"files", rep.Files,
			"committed", rep.Committed,
			"duplicates", rep.Duplicates,
			"skipped", rep.Skipped,
			"failed", rep.Failed,
			"events", rep.Events,
			"elapsed", rep.Elapsed)
	}
	return nil
}

// process runs files through the pipeline. In bulk mode saves rejected
// as out of order are re-read and retried once.
func (m *Monitor) process(ctx context.Context, files []SaveFile, bulk bool) (*Report, error) {
	start := time.Now()
	rep := &Report{Files: len(files), Sessions: make(map[string]domain.GameDate)}
	t := &tally{rep: rep}
	if len(files) == 0 {
		return rep, nil
	}

	var sessions []string
	for _, f := range files {
		if !slices.Contains(sessions, f.Session) {
			sessions = append(sessions, f.Session)
			m.setState(f.Session, StateScanning)
		}
	}
	defer func() {
		for _, s := range sessions {
			m.setState(s, StateIdle)
		}
		rep.Elapsed = time.Since(start)
	}()

	violations, err := m.pass(ctx, files, t)
	if err != nil {
		return rep, err
	}
	if len(violations) > 0 && bulk {
		m.logger.Info("retrying out-of-order saves", "files", len(violations))
		violations, err = m.pass(ctx, violations, t)
		if err != nil {
			return rep, err
		}
	}
	for _, f := range violations {
		m.markProcessed(f)
		m.countFile(metric.OutcomeSkipped)
		rep.Skipped++
	}
	return rep, ctx.Err()
}

// pass reads, orders and dispatches files once, returning those the
// ledger rejected as out of order.
func (m *Monitor) pass(ctx context.Context, files []SaveFile, t *tally) ([]SaveFile, error) {
	jobs, err := m.readMetadata(ctx, files, t)
	if err != nil {
		return nil, err
	}
	plan, err := m.plan(ctx, jobs, t)
	if err != nil {
		return nil, err
	}
	return m.dispatch(ctx, plan, t)
}

// readMetadata reads the metadata member of every file in parallel.
// Files without a readable date are counted failed.
func (m *Monitor) readMetadata(ctx context.Context, files []SaveFile, t *tally) ([]*job, error) {
	jobs := make([]*job, len(files))
	errs := make([]error, len(files))
	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, f := range files {
		g.Go(func() error {
			meta, err := m.metadata(ctx, f)
			if err != nil {
				errs[i] = err
				return nil
			}
			jobs[i] = &job{file: f, meta: meta}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := jobs[:0]
	for i, j := range jobs {
		if j != nil {
			out = append(out, j)
			continue
		}
		f := files[i]
		fctx := logger.WithFile(logger.WithSession(ctx, f.Session), f.Path)
		logger.L(fctx).Warn("skipping save without readable metadata", "error", errs[i])
		m.markProcessed(f)
		m.countFile(metric.OutcomeFailed)
		t.add(func(r *Report) { r.Failed++ })
	}
	return out, nil
}

func (m *Monitor) metadata(ctx context.Context, f SaveFile) (extract.Metadata, error) {
	defer m.observeStage("metadata", time.Now())
	members, err := m.reader.Read(ctx, f.Path, MemberMeta)
	if err != nil {
		return extract.Metadata{}, err
	}
	root, err := savefmt.Parse(members[MemberMeta], m.parseOptions()...)
	if err != nil {
		return extract.Metadata{}, err
	}
	return extract.ReadMetadata(root)
}

// plan groups jobs by session in date order. Saves not newer than the
// session's last commit count as duplicates; skip sampling then keeps
// every (SkipSaves+1)th of the rest, counted over all saves of the session
// seen since startup or the last reparse.
func (m *Monitor) plan(ctx context.Context, jobs []*job, t *tally) (map[string][]*job, error) {
	plan := make(map[string][]*job)
	for _, j := range jobs {
		plan[j.file.Session] = append(plan[j.file.Session], j)
	}

	for session, list := range plan {
		slices.SortFunc(list, byDate)

		last, ok, err := m.ledger.LastDate(ctx, session)
		if err != nil {
			return nil, err
		}
		kept := list[:0]
		for _, j := range list {
			if ok && j.meta.Date <= last {
				m.markProcessed(j.file)
				m.countFile(metric.OutcomeDuplicate)
				t.add(func(r *Report) { r.Duplicates++ })
				continue
			}
			kept = append(kept, j)
		}

		step := m.cfg.SkipSaves + 1
		sampled := kept[:0]
		m.mu.Lock()
		seen := m.encountered[session]
		m.encountered[session] = seen + len(kept)
		m.mu.Unlock()
		for i, j := range kept {
			if (seen+i)%step != 0 {
				m.markProcessed(j.file)
				m.countFile(metric.OutcomeSkipped)
				t.add(func(r *Report) { r.Skipped++ })
				continue
			}
			sampled = append(sampled, j)
		}

		if len(sampled) == 0 {
			delete(plan, session)
			continue
		}
		plan[session] = sampled
	}
	return plan, nil
}

func byDate(a, b *job) int {
	return cmp.Or(
		cmp.Compare(a.meta.Date, b.meta.Date),
		cmp.Compare(a.file.Session, b.file.Session),
		cmp.Compare(a.file.Path, b.file.Path),
	)
}

// dispatch prepares jobs on the worker pool in global date order and
// commits them through one committer per session. Each session's jobs
// own one buffered slot each, read by the committer in order, so commits
// follow date order whatever order the workers finish in.
func (m *Monitor) dispatch(ctx context.Context, plan map[string][]*job, t *tally) ([]SaveFile, error) {
	var all []*job
	for session, list := range plan {
		for _, j := range list {
			j.slot = make(chan outcome, 1)
		}
		all = append(all, list...)
		m.setState(session, StateDispatching)
	}
	slices.SortFunc(all, byDate)

	var (
		mu         sync.Mutex
		violations []SaveFile
	)
	committers, cctx := errgroup.WithContext(ctx)
	for session, list := range plan {
		committers.Go(func() error {
			rejected, err := m.commitSession(ctx, cctx, session, list, t)
			mu.Lock()
			violations = append(violations, rejected...)
			mu.Unlock()
			return err
		})
	}

	var workers errgroup.Group
	workers.SetLimit(m.workers)
	for _, j := range all {
		if cctx.Err() != nil {
			j.slot <- outcome{canceled: true}
			continue
		}
		workers.Go(func() error {
			j.slot <- m.prepare(ctx, j)
			return nil
		})
	}
	_ = workers.Wait()

	if err := committers.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(violations, func(a, b SaveFile) int { return cmp.Compare(a.Path, b.Path) })
	return violations, nil
}

// prepare reads, parses and extracts one save.
func (m *Monitor) prepare(ctx context.Context, j *job) outcome {
	start := time.Now()
	members, err := m.reader.Read(ctx, j.file.Path, MemberGamestate)
	if err != nil {
		return outcome{err: err}
	}
	m.observeStage("read", start)

	start = time.Now()
	root, err := savefmt.Parse(members[MemberGamestate], m.parseOptions()...)
	if err != nil {
		return outcome{err: err}
	}
	m.observeStage("parse", start)

	start = time.Now()
	snap, err := m.extractor.Extract(j.file.Session, j.meta, root)
	if err != nil {
		return outcome{err: err}
	}
	m.observeStage("extract", start)
	return outcome{snap: snap}
}

// commitSession is the single committer of a session. It returns the
// files rejected as out of order.
func (m *Monitor) commitSession(ctx, cctx context.Context, session string, list []*job, t *tally) ([]SaveFile, error) {
	var rejected []SaveFile
	sctx := logger.WithSession(ctx, session)
	for _, j := range list {
		var out outcome
		select {
		case out = <-j.slot:
		case <-cctx.Done():
			return rejected, nil
		}
		if out.canceled || cctx.Err() != nil {
			return rejected, nil
		}

		fctx := logger.WithFile(sctx, j.file.Path)
		if out.err != nil {
			logger.L(fctx).Warn("skipping unreadable save", "error", out.err)
			m.markProcessed(j.file)
			m.countFile(metric.OutcomeFailed)
			t.add(func(r *Report) { r.Failed++ })
			continue
		}
		for _, w := range out.snap.Warnings {
			logger.L(fctx).Debug("extraction warning", "error", w.Err())
			if m.metrics != nil {
				m.metrics.ExtractionWarnings.WithLabelValues(string(w.Kind)).Inc()
			}
		}

		m.setState(session, StateCommitting)
		res, err := m.ledger.Commit(context.WithoutCancel(fctx), out.snap)
		if errors.Is(err, domain.ErrOrderingViolation) {
			logger.L(fctx).Warn("save out of order", "date", j.meta.Date.String(), "error", err)
			rejected = append(rejected, j.file)
			continue
		}
		if err != nil {
			return rejected, err
		}

		m.markProcessed(j.file)
		if !res.Applied {
			m.countFile(metric.OutcomeDuplicate)
			t.add(func(r *Report) { r.Duplicates++ })
			continue
		}
		logger.L(fctx).Debug("save committed",
			"date", res.Date.String(),
			"events", res.Events,
			"ironman", j.file.IsIronman())
		m.countFile(metric.OutcomeCommitted)
		t.add(func(r *Report) {
			r.Committed++
			r.Events += res.Events
			r.Series += res.Series
			r.Warnings += res.Warnings
			r.Sessions[session] = res.Date
		})
	}
	return rejected, nil
}
