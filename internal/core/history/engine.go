package history

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/starledger/internal/core/domain"
)

// DefaultBudgetTolerance is the relative budget residual above which an
// economy row is flagged approximate.
const DefaultBudgetTolerance = 0.05

// Engine is the history diff engine. It is stateless and safe for
// concurrent use.
type Engine struct {
	tolerance float64
	popEvents bool
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithBudgetTolerance sets the relative residual tolerance of economy rows.
func WithBudgetTolerance(tol float64) Option {
	return func(e *Engine) {
		if tol >= 0 {
			e.tolerance = tol
		}
	}
}

// WithPopEvents enables or disables pop_created and pop_removed events.
// Pop counts still flow into the demographics series.
func WithPopEvents(enabled bool) Option {
	return func(e *Engine) {
		e.popEvents = enabled
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		tolerance: DefaultBudgetTolerance,
		popEvents: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Diff returns the events explaining the change from prev to cur and the
// series rows of cur. A nil prev is the first snapshot of a session:
// every entity is created and nothing is removed.
func (e *Engine) Diff(prev, cur *domain.Snapshot) ([]domain.HistoryEvent, []domain.SeriesRow) {
	if cur == nil {
		return nil, nil
	}
	if prev == nil {
		prev = domain.NewSnapshot(cur.SessionID, cur.Date)
	}

	b := newBuilder(cur.SessionID, cur.Date, e.now())
	diffCountries(b, prev, cur)
	diffSystems(b, prev, cur)
	diffPlanets(b, prev, cur)
	diffFleets(b, prev, cur)
	diffLeaders(b, prev, cur)
	diffWars(b, prev, cur)
	if e.popEvents {
		diffPops(b, prev, cur)
	}
	return b.events, e.series(cur)
}

// builder collects the events of one diff and drops duplicates.
type builder struct {
	session string
	date    domain.GameDate
	ts      uint64
	entropy io.Reader
	seen    map[string]struct{}
	events  []domain.HistoryEvent
}

func newBuilder(session string, date domain.GameDate, now time.Time) *builder {
	return &builder{
		session: session,
		date:    date,
		ts:      ulid.Timestamp(now),
		entropy: ulid.Monotonic(rand.Reader, 0),
		seen:    make(map[string]struct{}),
	}
}

func (b *builder) add(typ domain.EventType, cat domain.Category, subjects []int64, payload map[string]any) {
	b.addAt(b.date, typ, cat, subjects, payload)
}

// addAt records an event dated at date rather than at the snapshot date.
// Structurally identical events collapse to the first one.
func (b *builder) addAt(date domain.GameDate, typ domain.EventType, cat domain.Category, subjects []int64, payload map[string]any) {
	ev := domain.HistoryEvent{
		SessionID:  b.session,
		Type:       typ,
		Category:   cat,
		Date:       date,
		SubjectIDs: subjects,
		Payload:    payload,
	}
	key := ev.DedupKey()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}

	id, err := ulid.New(b.ts, b.entropy)
	if err != nil {
		// Monotonic entropy overflows only after 2^80 IDs in one millisecond.
		id = ulid.MustNew(b.ts, rand.Reader)
	}
	ev.ID = id.String()
	b.events = append(b.events, ev)
}

// subjects lists the set IDs among ids.
func subjects(ids ...int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !domain.IsNullID(id) {
			out = append(out, id)
		}
	}
	return out
}

func removed(name string) map[string]any {
	return map[string]any{"name": name, domain.PayloadRecyclable: true}
}

func change(old, cur any) map[string]any {
	return map[string]any{"old": old, "new": cur}
}
