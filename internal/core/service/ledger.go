package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/cmap"
)

// HistoryStore is the persistence collaborator of the ledger and of the
// read-side commands.
type HistoryStore interface {
	// LastSnapshot returns the last committed snapshot, or nil, nil.
	LastSnapshot(ctx context.Context, session string) (*domain.Snapshot, error)

	// Commit writes a commit atomically. applied is false when the date
	// was already committed.
	Commit(ctx context.Context, c *domain.Commit) (applied bool, err error)

	// AppendEvents and AppendSeries are idempotent by key.
	AppendEvents(ctx context.Context, session string, events []domain.HistoryEvent) error
	AppendSeries(ctx context.Context, session string, rows []domain.SeriesRow) error

	Events(ctx context.Context, session string, filter domain.EventFilter) ([]domain.HistoryEvent, error)
	Series(ctx context.Context, session string, cat domain.Category) ([]domain.SeriesRow, error)
	Sessions(ctx context.Context) ([]domain.SessionInfo, error)

	// ResetSession removes a session's history before a full reparse.
	ResetSession(ctx context.Context, session string) error
}

// Differ derives events and series rows from two successive snapshots.
type Differ interface {
	Diff(prev, cur *domain.Snapshot) ([]domain.HistoryEvent, []domain.SeriesRow)
}

// CommitResult reports one successful commit.
type CommitResult struct {
	SessionID string
	Date      domain.GameDate
	Events    int
	ByType    map[domain.EventType]int
	Series    int
	Warnings  int
	Applied   bool
	Elapsed   time.Duration
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLedgerLogger sets the logger.
func WithLedgerLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithCommitObserver registers a callback run after every applied commit.
func WithCommitObserver(fn func(*CommitResult)) LedgerOption {
	return func(l *Ledger) {
		l.observe = fn
	}
}

// sessionState is the commit slot and cached head of one session.
type sessionState struct {
	busy     atomic.Bool
	lastDate atomic.Int64 // domain.GameDate; valid when loaded is set
	loaded   atomic.Bool
}

// Ledger is the commit critical section of every session. Each session
// has one slot; holding it is the only way to change that session's
// history.
type Ledger struct {
	store    HistoryStore
	engine   Differ
	sessions *cmap.Map[*sessionState]
	logger   *slog.Logger
	observe  func(*CommitResult)
}

// NewLedger creates a Ledger.
func NewLedger(store HistoryStore, engine Differ, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:    store,
		engine:   engine,
		sessions: cmap.New[*sessionState](),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) state(session string) *sessionState {
	st, _ := l.sessions.GetOrCreate(session, func() *sessionState { return &sessionState{} })
	return st
}

// Commit diffs snap against the session's last committed snapshot and
// stores the result.
//
// Errors:
//   - ErrCommitConflict: another commit of the same session is in progress
//   - ErrOrderingViolation: snap is not newer than the last commit
//   - ErrStorage: the store failed; nothing was written
func (l *Ledger) Commit(ctx context.Context, snap *domain.Snapshot) (*CommitResult, error) {
	if snap == nil || snap.SessionID == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("snapshot without session")
	}
	st := l.state(snap.SessionID)
	if !st.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrCommitConflict.WithDetailsf("session %s", snap.SessionID)
	}
	defer st.busy.Store(false)

	start := time.Now()
	prev, err := l.store.LastSnapshot(ctx, snap.SessionID)
	if err != nil {
		return nil, err
	}
	if prev != nil && snap.Date <= prev.Date {
		return nil, domain.ErrOrderingViolation.WithDetailsf(
			"session %s: %s is not after last commit %s", snap.SessionID, snap.Date, prev.Date)
	}

	events, series := l.engine.Diff(prev, snap)
	applied, err := l.store.Commit(ctx, &domain.Commit{
		SessionID: snap.SessionID,
		Date:      snap.Date,
		Snapshot:  snap,
		Events:    events,
		Series:    series,
	})
	if err != nil {
		return nil, err
	}

	st.lastDate.Store(int64(snap.Date))
	st.loaded.Store(true)

	res := &CommitResult{
		SessionID: snap.SessionID,
		Date:      snap.Date,
		Events:    len(events),
		ByType:    countTypes(events),
		Series:    len(series),
		Warnings:  len(snap.Warnings),
		Applied:   applied,
		Elapsed:   time.Since(start),
	}
	l.logger.Info("commit",
		"session", res.SessionID,
		"date", res.Date.String(),
		"events", res.Events,
		"series", res.Series,
		"warnings", res.Warnings,
		"applied", res.Applied,
		"elapsed", res.Elapsed)
	if applied && l.observe != nil {
		l.observe(res)
	}
	return res, nil
}

// LastDate returns the date of the session's last commit.
func (l *Ledger) LastDate(ctx context.Context, session string) (domain.GameDate, bool, error) {
	st := l.state(session)
	if st.loaded.Load() {
		return domain.GameDate(st.lastDate.Load()), true, nil
	}
	prev, err := l.store.LastSnapshot(ctx, session)
	if err != nil || prev == nil {
		return 0, false, err
	}
	st.lastDate.Store(int64(prev.Date))
	st.loaded.Store(true)
	return prev.Date, true, nil
}

// Forget drops the cached head of a session, after a reset.
func (l *Ledger) Forget(session string) {
	if st, ok := l.sessions.Get(session); ok {
		st.loaded.Store(false)
	}
}

func countTypes(events []domain.HistoryEvent) map[domain.EventType]int {
	if len(events) == 0 {
		return nil
	}
	out := make(map[domain.EventType]int)
	for _, e := range events {
		out[e.Type]++
	}
	return out
}
