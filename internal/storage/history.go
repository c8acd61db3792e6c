package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/internal/storage/snapshot"
)

// head is the per-session record stored under h/<session>.
type head struct {
	Date     domain.GameDate `json:"date"`
	GameName string          `json:"game_name,omitempty"`
	Commits  int             `json:"commits"`
}

// HistoryStore persists session histories in a KVEngine.
//
// Events and series rows of a commit are written in bounded transactions
// and carry the commit date. They stay hidden until a final transaction
// moves the session head to that date, so readers see either the whole
// commit or none of it. Records of an attempt that never completed are
// dropped before the next commit of the session.
type HistoryStore struct {
	kv     KVEngine
	codec  *snapshot.Codec
	logger *slog.Logger
}

// Badger refuses transactions above a fraction of its memtable size.
const (
	chunkRecords = 1000
	chunkBytes   = 2 << 20
)

// storedEvent is the value stored under an event key. Commit is nil for
// events appended outside of a commit.
type storedEvent struct {
	domain.HistoryEvent
	Commit *domain.GameDate `json:"commit,omitempty"`
}

type storedRow struct {
	domain.SeriesRow
	Commit *domain.GameDate `json:"commit,omitempty"`
}

// record is one pending write. With keep set an existing value wins.
type record struct {
	key   []byte
	value []byte
	keep  bool
}

// NewHistoryStore creates a HistoryStore on kv.
func NewHistoryStore(kv KVEngine, codec *snapshot.Codec, logger *slog.Logger) *HistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStore{kv: kv, codec: codec, logger: logger}
}

// LastSnapshot returns the last committed snapshot of session, or nil if
// nothing was committed yet.
func (s *HistoryStore) LastSnapshot(ctx context.Context, session string) (*domain.Snapshot, error) {
	if err := validSession(session); err != nil {
		return nil, err
	}
	raw, err := s.kv.Get(ctx, snapshotKey(session))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrStorage.WithCause(err)
	}
	snap, err := s.codec.Decode(raw)
	if err != nil {
		return nil, domain.ErrStorage.WithDetailsf("session %s: corrupt snapshot", session).WithCause(err)
	}
	return snap, nil
}

// LastDate returns the date of the last commit of session.
func (s *HistoryStore) LastDate(ctx context.Context, session string) (domain.GameDate, bool, error) {
	if err := validSession(session); err != nil {
		return 0, false, err
	}
	h, ok, err := s.readHead(ctx, session)
	return h.Date, ok, err
}

func (s *HistoryStore) readHead(ctx context.Context, session string) (head, bool, error) {
	raw, err := s.kv.Get(ctx, headKey(session))
	if errors.Is(err, ErrKeyNotFound) {
		return head{}, false, nil
	}
	if err != nil {
		return head{}, false, domain.ErrStorage.WithCause(err)
	}
	var h head
	if err := json.Unmarshal(raw, &h); err != nil {
		return head{}, false, domain.ErrStorage.WithDetailsf("session %s: corrupt head", session).WithCause(err)
	}
	return h, true, nil
}

// visibility reports which commit-tagged records of session are visible:
// those whose commit date the head has reached.
func (s *HistoryStore) visibility(ctx context.Context, session string) (func(*domain.GameDate) bool, error) {
	h, ok, err := s.readHead(ctx, session)
	if err != nil {
		return nil, err
	}
	return func(commit *domain.GameDate) bool {
		return commit == nil || (ok && *commit <= h.Date)
	}, nil
}

// Commit writes c atomically. Committing a date that is already committed
// is a no-op and returns applied=false. A date older than the head that
// was never committed is an ordering violation.
func (s *HistoryStore) Commit(ctx context.Context, c *domain.Commit) (bool, error) {
	if c == nil || c.Snapshot == nil {
		return false, domain.ErrInvalidArgument.WithDetails("commit without snapshot")
	}
	if err := validSession(c.SessionID); err != nil {
		return false, err
	}
	encoded, err := s.codec.Encode(c.Snapshot)
	if err != nil {
		return false, domain.ErrStorage.WithCause(err)
	}
	date := c.Date
	recs, err := eventRecords(c.SessionID, c.Events, &date)
	if err != nil {
		return false, domain.ErrStorage.WithCause(err)
	}
	rows, err := seriesRecords(c.SessionID, c.Series, &date)
	if err != nil {
		return false, domain.ErrStorage.WithCause(err)
	}
	recs = append(recs, rows...)

	applied, err := s.commit(ctx, c, encoded, recs)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrOrderingViolation.Code) ||
			domain.IsDomainError(err, domain.ErrCommitConflict.Code) {
			return false, err
		}
		return false, domain.ErrStorage.WithDetailsf("commit %s@%s", c.SessionID, c.Date).WithCause(err)
	}

	if applied {
		s.logger.Debug("commit stored",
			"session", c.SessionID,
			"date", c.Date.String(),
			"events", len(c.Events),
			"series", len(c.Series))
	}
	return applied, nil
}

func (s *HistoryStore) commit(ctx context.Context, c *domain.Commit, encoded []byte, recs []record) (bool, error) {
	session := c.SessionID
	if err := s.dropPending(ctx, session); err != nil {
		return false, err
	}

	proceed := false
	err := s.kv.Update(ctx, func(tx Tx) error {
		h, found, err := txHead(tx, session)
		if err != nil {
			return err
		}
		if found && c.Date <= h.Date {
			done, err := tx.Has(dateMarkerKey(session, c.Date))
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			return domain.ErrOrderingViolation.WithDetailsf(
				"session %s: commit %s is not after %s", session, c.Date, h.Date)
		}
		pending, err := json.Marshal(c.Date)
		if err != nil {
			return err
		}
		proceed = true
		return tx.Set(pendingKey(session), pending)
	})
	if err != nil || !proceed {
		return false, err
	}

	if err := s.putChunked(ctx, recs); err != nil {
		return false, err
	}

	err = s.kv.Update(ctx, func(tx Tx) error {
		pending, ok, err := txPending(tx, session)
		if err != nil {
			return err
		}
		if !ok || pending != c.Date {
			return domain.ErrCommitConflict.WithDetailsf("session %s: pending commit changed during %s", session, c.Date)
		}
		h, _, err := txHead(tx, session)
		if err != nil {
			return err
		}
		if err := tx.Set(snapshotKey(session), encoded); err != nil {
			return err
		}
		if err := tx.Set(dateMarkerKey(session, c.Date), nil); err != nil {
			return err
		}
		h.Date = c.Date
		h.Commits++
		if c.Snapshot.GameName != "" {
			h.GameName = c.Snapshot.GameName
		}
		headJSON, err := json.Marshal(h)
		if err != nil {
			return err
		}
		if err := tx.Set(headKey(session), headJSON); err != nil {
			return err
		}
		return tx.Delete(pendingKey(session))
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func txHead(tx Tx, session string) (head, bool, error) {
	var h head
	raw, err := tx.Get(headKey(session))
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return h, false, nil
	case err != nil:
		return h, false, err
	}
	if err := json.Unmarshal(raw, &h); err != nil {
		return h, false, fmt.Errorf("corrupt head: %w", err)
	}
	return h, true, nil
}

func txPending(tx Tx, session string) (domain.GameDate, bool, error) {
	var d domain.GameDate
	raw, err := tx.Get(pendingKey(session))
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return d, false, nil
	case err != nil:
		return d, false, err
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, false, fmt.Errorf("corrupt pending marker: %w", err)
	}
	return d, true, nil
}

// dropPending removes the records of an interrupted commit of session.
func (s *HistoryStore) dropPending(ctx context.Context, session string) error {
	raw, err := s.kv.Get(ctx, pendingKey(session))
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var pending domain.GameDate
	if err := json.Unmarshal(raw, &pending); err != nil {
		return fmt.Errorf("corrupt pending marker: %w", err)
	}

	var stale [][]byte
	for _, prefix := range [][]byte{eventPrefix(session), seriesPrefix(session, "")} {
		var scanErr error
		err := s.kv.Scan(ctx, prefix, func(key, value []byte) bool {
			var tag struct {
				Commit *domain.GameDate `json:"commit"`
			}
			if err := json.Unmarshal(value, &tag); err != nil {
				scanErr = fmt.Errorf("record %s: %w", key, err)
				return false
			}
			if tag.Commit != nil && *tag.Commit == pending {
				stale = append(stale, slices.Clone(key))
			}
			return true
		})
		if err == nil {
			err = scanErr
		}
		if err != nil {
			return err
		}
	}

	for chunk := range slices.Chunk(stale, chunkRecords) {
		err := s.kv.Update(ctx, func(tx Tx) error {
			for _, key := range chunk {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if err := s.kv.Delete(ctx, pendingKey(session)); err != nil {
		return err
	}
	s.logger.Warn("dropped records of an interrupted commit",
		"session", session,
		"date", pending.String(),
		"records", len(stale))
	return nil
}

// putChunked writes recs in transactions of bounded count and size.
func (s *HistoryStore) putChunked(ctx context.Context, recs []record) error {
	for start := 0; start < len(recs); {
		end, size := start, 0
		for end < len(recs) && end-start < chunkRecords && size < chunkBytes {
			size += len(recs[end].key) + len(recs[end].value)
			end++
		}
		chunk := recs[start:end]
		err := s.kv.Update(ctx, func(tx Tx) error {
			for _, r := range chunk {
				if r.keep {
					exists, err := tx.Has(r.key)
					if err != nil {
						return err
					}
					if exists {
						continue
					}
				}
				if err := tx.Set(r.key, r.value); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		start = end
	}
	return nil
}

// AppendEvents stores events outside of a commit. Events are keyed by
// date and fingerprint, so appending the same event twice stores it once.
func (s *HistoryStore) AppendEvents(ctx context.Context, session string, events []domain.HistoryEvent) error {
	if err := validSession(session); err != nil {
		return err
	}
	recs, err := eventRecords(session, events, nil)
	if err == nil {
		err = s.putChunked(ctx, recs)
	}
	if err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	return nil
}

// AppendSeries stores series rows outside of a commit. Rows are keyed by
// category, subject and date; a later row replaces an earlier one.
func (s *HistoryStore) AppendSeries(ctx context.Context, session string, rows []domain.SeriesRow) error {
	if err := validSession(session); err != nil {
		return err
	}
	recs, err := seriesRecords(session, rows, nil)
	if err == nil {
		err = s.putChunked(ctx, recs)
	}
	if err != nil {
		return domain.ErrStorage.WithCause(err)
	}
	return nil
}

// eventRecords encodes events. The first stored copy of an event wins and
// keeps its original ID.
func eventRecords(session string, events []domain.HistoryEvent, commit *domain.GameDate) ([]record, error) {
	recs := make([]record, 0, len(events))
	for i := range events {
		ev := &events[i]
		ev.SessionID = session
		raw, err := json.Marshal(storedEvent{HistoryEvent: *ev, Commit: commit})
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", ev.Type, err)
		}
		recs = append(recs, record{key: eventKey(session, ev), value: raw, keep: true})
	}
	return recs, nil
}

func seriesRecords(session string, rows []domain.SeriesRow, commit *domain.GameDate) ([]record, error) {
	recs := make([]record, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		row.SessionID = session
		raw, err := json.Marshal(storedRow{SeriesRow: *row, Commit: commit})
		if err != nil {
			return nil, fmt.Errorf("marshal series row %s: %w", row.Key(), err)
		}
		recs = append(recs, record{key: seriesKey(session, row), value: raw})
	}
	return recs, nil
}

// Events returns the events of session matching filter, ordered by date
// and then by ID.
func (s *HistoryStore) Events(ctx context.Context, session string, filter domain.EventFilter) ([]domain.HistoryEvent, error) {
	if err := validSession(session); err != nil {
		return nil, err
	}
	visible, err := s.visibility(ctx, session)
	if err != nil {
		return nil, err
	}
	var (
		out     []domain.HistoryEvent
		scanErr error
	)
	err = s.kv.Scan(ctx, eventPrefix(session), func(key, value []byte) bool {
		var ev storedEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			scanErr = fmt.Errorf("event %s: %w", key, err)
			return false
		}
		if visible(ev.Commit) && filter.Match(&ev.HistoryEvent) {
			out = append(out, ev.HistoryEvent)
		}
		return true
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		return nil, domain.ErrStorage.WithCause(err)
	}

	sortEvents(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Series returns the series rows of session in one category (all when
// empty), ordered by category, subject and date.
func (s *HistoryStore) Series(ctx context.Context, session string, cat domain.Category) ([]domain.SeriesRow, error) {
	if err := validSession(session); err != nil {
		return nil, err
	}
	visible, err := s.visibility(ctx, session)
	if err != nil {
		return nil, err
	}
	var (
		out     []domain.SeriesRow
		scanErr error
	)
	err = s.kv.Scan(ctx, seriesPrefix(session, cat), func(key, value []byte) bool {
		var row storedRow
		if err := json.Unmarshal(value, &row); err != nil {
			scanErr = fmt.Errorf("series %s: %w", key, err)
			return false
		}
		if visible(row.Commit) {
			out = append(out, row.SeriesRow)
		}
		return true
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		return nil, domain.ErrStorage.WithCause(err)
	}
	return out, nil
}

// Sessions lists every session with at least one commit.
func (s *HistoryStore) Sessions(ctx context.Context) ([]domain.SessionInfo, error) {
	var (
		out     []domain.SessionInfo
		scanErr error
	)
	err := s.kv.Scan(ctx, []byte(prefixHead), func(key, value []byte) bool {
		var h head
		if err := json.Unmarshal(value, &h); err != nil {
			scanErr = fmt.Errorf("head %s: %w", key, err)
			return false
		}
		out = append(out, domain.SessionInfo{
			ID:       strings.TrimPrefix(string(key), prefixHead),
			GameName: h.GameName,
			LastDate: h.Date,
			Commits:  h.Commits,
		})
		return true
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		return nil, domain.ErrStorage.WithCause(err)
	}
	return out, nil
}

// ResetSession removes everything stored for session.
func (s *HistoryStore) ResetSession(ctx context.Context, session string) error {
	if err := validSession(session); err != nil {
		return err
	}
	err := s.kv.DropPrefix(ctx,
		[]byte(prefixDate+session+"/"),
		eventPrefix(session),
		seriesPrefix(session, ""),
	)
	if err == nil {
		err = s.kv.Update(ctx, func(tx Tx) error {
			if err := tx.Delete(headKey(session)); err != nil {
				return err
			}
			if err := tx.Delete(pendingKey(session)); err != nil {
				return err
			}
			return tx.Delete(snapshotKey(session))
		})
	}
	if err != nil {
		return domain.ErrStorage.WithDetailsf("reset %s", session).WithCause(err)
	}
	s.logger.Info("session reset", "session", session)
	return nil
}

// sortEvents orders events by date, then ID. IDs are ULIDs, so events of
// one commit keep their emission order.
func sortEvents(events []domain.HistoryEvent) {
	slices.SortStableFunc(events, func(a, b domain.HistoryEvent) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
