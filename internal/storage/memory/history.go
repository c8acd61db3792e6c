package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/cmap"
)

// sessionHistory is everything stored for one session.
type sessionHistory struct {
	mu       sync.RWMutex
	gameName string
	last     *domain.Snapshot
	dates    map[domain.GameDate]struct{}
	events   map[string]domain.HistoryEvent
	series   map[string]domain.SeriesRow
}

func newSessionHistory() *sessionHistory {
	return &sessionHistory{
		dates:  make(map[domain.GameDate]struct{}),
		events: make(map[string]domain.HistoryEvent),
		series: make(map[string]domain.SeriesRow),
	}
}

// HistoryStore keeps session histories in memory. It is used by tests
// and by dry runs that should not touch the data directory.
type HistoryStore struct {
	sessions *cmap.Map[*sessionHistory]
}

// NewHistoryStore creates an empty in-memory store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{sessions: cmap.New[*sessionHistory]()}
}

func (s *HistoryStore) session(id string) *sessionHistory {
	h, _ := s.sessions.GetOrCreate(id, newSessionHistory)
	return h
}

// LastSnapshot returns the last committed snapshot of session, or nil.
func (s *HistoryStore) LastSnapshot(_ context.Context, session string) (*domain.Snapshot, error) {
	h, ok := s.sessions.Get(session)
	if !ok {
		return nil, nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, nil
}

// LastDate returns the date of the last commit of session.
func (s *HistoryStore) LastDate(_ context.Context, session string) (domain.GameDate, bool, error) {
	h, ok := s.sessions.Get(session)
	if !ok {
		return 0, false, nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return 0, false, nil
	}
	return h.last.Date, true, nil
}

// Commit stores c. See the Badger store for the semantics.
func (s *HistoryStore) Commit(_ context.Context, c *domain.Commit) (bool, error) {
	if c == nil || c.Snapshot == nil {
		return false, domain.ErrInvalidArgument.WithDetails("commit without snapshot")
	}
	if c.SessionID == "" {
		return false, domain.ErrInvalidArgument.WithDetails("empty session")
	}

	h := s.session(c.SessionID)
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last != nil && c.Date <= h.last.Date {
		if _, done := h.dates[c.Date]; done {
			return false, nil
		}
		return false, domain.ErrOrderingViolation.WithDetailsf(
			"session %s: commit %s is not after %s", c.SessionID, c.Date, h.last.Date)
	}

	h.last = c.Snapshot
	h.dates[c.Date] = struct{}{}
	if c.Snapshot.GameName != "" {
		h.gameName = c.Snapshot.GameName
	}
	h.putEvents(c.SessionID, c.Events)
	h.putSeries(c.SessionID, c.Series)
	return true, nil
}

// AppendEvents stores events idempotently by date and fingerprint.
func (s *HistoryStore) AppendEvents(_ context.Context, session string, events []domain.HistoryEvent) error {
	h := s.session(session)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.putEvents(session, events)
	return nil
}

// AppendSeries stores series rows idempotently by category, subject and date.
func (s *HistoryStore) AppendSeries(_ context.Context, session string, rows []domain.SeriesRow) error {
	h := s.session(session)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.putSeries(session, rows)
	return nil
}

func (h *sessionHistory) putEvents(session string, events []domain.HistoryEvent) {
	for _, ev := range events {
		key := fmt.Sprintf("%d/%016x", ev.Date, ev.Fingerprint())
		if _, ok := h.events[key]; ok {
			continue
		}
		ev.SessionID = session
		h.events[key] = ev
	}
}

func (h *sessionHistory) putSeries(session string, rows []domain.SeriesRow) {
	for _, row := range rows {
		row.SessionID = session
		h.series[row.Key()] = row
	}
}

// Events returns the events of session matching filter, ordered by date
// and then by ID.
func (s *HistoryStore) Events(_ context.Context, session string, filter domain.EventFilter) ([]domain.HistoryEvent, error) {
	h, ok := s.sessions.Get(session)
	if !ok {
		return nil, nil
	}
	h.mu.RLock()
	var out []domain.HistoryEvent
	for _, ev := range h.events {
		if filter.Match(&ev) {
			out = append(out, ev)
		}
	}
	h.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.HistoryEvent) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Series returns the rows of one category (all when empty), ordered by
// category, subject and date.
func (s *HistoryStore) Series(_ context.Context, session string, cat domain.Category) ([]domain.SeriesRow, error) {
	h, ok := s.sessions.Get(session)
	if !ok {
		return nil, nil
	}
	h.mu.RLock()
	var out []domain.SeriesRow
	for _, row := range h.series {
		if cat == "" || row.Category == cat {
			out = append(out, row)
		}
	}
	h.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.SeriesRow) int {
		return cmp.Or(
			cmp.Compare(a.Category, b.Category),
			cmp.Compare(a.SubjectID, b.SubjectID),
			cmp.Compare(a.Date, b.Date),
		)
	})
	return out, nil
}

// Sessions lists every session with at least one commit, by name.
func (s *HistoryStore) Sessions(_ context.Context) ([]domain.SessionInfo, error) {
	var out []domain.SessionInfo
	for id, h := range s.sessions.All() {
		h.mu.RLock()
		if h.last != nil {
			out = append(out, domain.SessionInfo{
				ID:       id,
				GameName: h.gameName,
				LastDate: h.last.Date,
				Commits:  len(h.dates),
			})
		}
		h.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b domain.SessionInfo) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// ResetSession removes everything stored for session.
func (s *HistoryStore) ResetSession(_ context.Context, session string) error {
	s.sessions.Delete(session)
	return nil
}
