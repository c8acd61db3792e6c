package extract

import (
	"strconv"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

// Extractor builds snapshots from parsed save documents. It holds no
// per-document state and may be shared by concurrent workers as long as
// its NameResolver is safe for concurrent use.
type Extractor struct {
	resolver   NameResolver
	playerName string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPlayerName selects the player country of multiplayer saves by the
// player's account name.
func WithPlayerName(name string) Option {
	return func(x *Extractor) {
		x.playerName = name
	}
}

// New creates an Extractor. A nil resolver resolves literal names only.
func New(resolver NameResolver, opts ...Option) *Extractor {
	if resolver == nil {
		resolver = NewLocalizationResolver(nil)
	}
	x := &Extractor{resolver: resolver}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract builds the snapshot of one game state document. The date comes
// from the archive metadata. Problems with individual entities become
// warnings on the snapshot; only a root that is not a mapping is an error.
func (x *Extractor) Extract(sessionID string, meta Metadata, root savefmt.Value) (*domain.Snapshot, error) {
	if root.Kind() != savefmt.KindMapping {
		return nil, domain.ErrInvalidArgument.WithDetailsf("game state root is a %s", root.Kind())
	}

	snap := domain.NewSnapshot(sessionID, meta.Date)
	snap.GameName = meta.Name
	snap.Version = meta.Version
	if snap.Version == "" {
		snap.Version = stringOf(root.Get("version"), "")
	}

	r := &run{
		x:            x,
		root:         root,
		snap:         snap,
		species:      make(map[int64]string),
		fleetOwners:  make(map[int64]int64),
		leaderOwners: make(map[int64]int64),
	}
	r.readSpecies()
	r.readCountries()
	r.readLeaders()
	r.readSystems()
	r.readPlanets()
	r.readFleets()
	r.readWars()
	r.readPops()
	r.readPlayer()
	r.link()
	return snap, nil
}

// run holds the state of one extraction.
type run struct {
	x    *Extractor
	root savefmt.Value
	snap *domain.Snapshot

	species      map[int64]string
	fleetOwners  map[int64]int64 // from country fleets_manager
	leaderOwners map[int64]int64 // from country owned_leaders
}

func (r *run) warn(kind domain.WarningKind, entity string, id int64, field, detail string) {
	r.snap.Warnings = append(r.snap.Warnings, domain.ExtractionWarning{
		Kind:   kind,
		Entity: entity,
		ID:     id,
		Field:  field,
		Detail: detail,
	})
}

// each calls fn for every well-formed entity of a keyed collection.
// Deleted slots are skipped silently; malformed ones with a warning.
func (r *run) each(coll savefmt.Value, entity string, fn func(id int64, v savefmt.Value)) {
	for key, v := range coll.All() {
		id, ok := parseID(key)
		if !ok {
			r.warn(domain.WarningMalformedEntity, entity, domain.NoID, "", "non-numeric id "+strconv.Quote(key))
			continue
		}
		if isDeletedSlot(v) {
			continue
		}
		if v.Kind() != savefmt.KindMapping {
			r.warn(domain.WarningMalformedEntity, entity, id, "", "entry is a "+v.Kind().String())
			continue
		}
		fn(id, v)
	}
}

// name renders an engine name, falling back to the raw key when the
// resolver fails and to def when the entity has no name.
func (r *run) name(v savefmt.Value, entity string, id int64, def string) string {
	ref, ok := parseNameRef(v)
	if !ok {
		return def
	}
	text, err := r.x.resolver.Resolve(ref)
	if err != nil {
		r.warn(domain.WarningUnresolvedName, entity, id, "name", err.Error())
		return ref.Key
	}
	return text
}

// readPlayer identifies the player country from the player list.
func (r *run) readPlayer() {
	players := r.root.Get("player").Elements()
	if len(players) == 0 {
		return
	}
	country := domain.NoID
	switch {
	case len(players) == 1:
		country = idOf(players[0].Get("country"))
	case r.x.playerName != "":
		for _, p := range players {
			if stringOf(p.Get("name"), "") == r.x.playerName {
				country = idOf(p.Get("country"))
			}
		}
		if country == domain.NoID {
			r.warn(domain.WarningUnresolvedReference, "player", domain.NoID, "name",
				"no player named "+strconv.Quote(r.x.playerName))
		}
	default:
		r.warn(domain.WarningUnresolvedReference, "player", domain.NoID, "name",
			"multiplayer save and no player name configured")
	}
	r.snap.PlayerCountry = domain.Ref{ID: country}
	if c, ok := r.snap.Countries[country]; ok {
		c.IsPlayer = true
	}
}

// link resolves every cross reference against the finished snapshot.
func (r *run) link() {
	s := r.snap
	r.resolve(&s.PlayerCountry, hasKey(s.Countries), "player", domain.NoID, "country")

	for _, id := range domain.SortedIDs(s.Countries) {
		c := s.Countries[id]
		r.resolve(&c.Ruler, hasKey(s.Leaders), "country", id, "ruler")
		r.resolve(&c.Capital, hasKey(s.Planets), "country", id, "capital")
	}
	for _, id := range domain.SortedIDs(s.Systems) {
		r.resolve(&s.Systems[id].Owner, hasKey(s.Countries), "system", id, "owner")
	}
	for _, id := range domain.SortedIDs(s.Planets) {
		p := s.Planets[id]
		r.resolve(&p.System, hasKey(s.Systems), "planet", id, "system")
		r.resolve(&p.Owner, hasKey(s.Countries), "planet", id, "owner")
		r.resolve(&p.Controller, hasKey(s.Countries), "planet", id, "controller")
	}
	for _, id := range domain.SortedIDs(s.Fleets) {
		f := s.Fleets[id]
		r.resolve(&f.Owner, hasKey(s.Countries), "fleet", id, "owner")
		r.resolve(&f.Commander, hasKey(s.Leaders), "fleet", id, "commander")
		r.resolve(&f.System, hasKey(s.Systems), "fleet", id, "system")
	}
	for _, id := range domain.SortedIDs(s.Leaders) {
		l := s.Leaders[id]
		r.resolve(&l.Country, hasKey(s.Countries), "leader", id, "country")
		r.resolve(&l.Assignment, hasKey(s.Fleets), "leader", id, "assignment")
	}
	for _, id := range domain.SortedIDs(s.Wars) {
		w := s.Wars[id]
		for _, side := range [][]domain.WarParticipant{w.Attackers, w.Defenders} {
			for i := range side {
				r.resolve(&side[i].Country, hasKey(s.Countries), "war", id, "participant")
				r.resolve(&side[i].Caller, hasKey(s.Countries), "war", id, "caller")
			}
		}
		for i := range w.Battles {
			r.resolve(&w.Battles[i].System, hasKey(s.Systems), "war", id, "battle.system")
			r.resolve(&w.Battles[i].Planet, hasKey(s.Planets), "war", id, "battle.planet")
		}
	}
	for _, id := range domain.SortedIDs(s.Pops) {
		r.resolve(&s.Pops[id].Planet, hasKey(s.Planets), "pop", id, "planet")
	}
}

func (r *run) resolve(ref *domain.Ref, exists func(int64) bool, entity string, id int64, field string) {
	if !ref.IsSet() {
		*ref = domain.NoRef()
		return
	}
	if exists(ref.ID) {
		ref.Resolved = true
		return
	}
	ref.Resolved = false
	r.warn(domain.WarningUnresolvedReference, entity, id, field, "unknown id "+strconv.FormatInt(ref.ID, 10))
}

func hasKey[T any](m map[int64]T) func(int64) bool {
	return func(id int64) bool {
		_, ok := m[id]
		return ok
	}
}
