package extract

import (
	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

func (r *run) readSystems() {
	starbases := r.root.Path("starbase_mgr", "starbases")

	r.each(r.root.Get("galactic_object"), "system", func(id int64, v savefmt.Value) {
		sys := &domain.System{
			ID:        id,
			Name:      r.name(v.Get("name"), "system", id, ""),
			StarClass: stringOf(v.Get("star_class"), ""),
			X:         floatOf(v.Path("coordinate", "x")),
			Y:         floatOf(v.Path("coordinate", "y")),
			Owner:     domain.NoRef(),
			Planets:   idList(v.Get("planet")),
		}
		for _, lane := range v.Get("hyperlane").Elements() {
			if to := idOf(lane.Get("to")); to != domain.NoID && to != id {
				sys.Hyperlanes = append(sys.Hyperlanes, to)
			}
		}

		sbIDs := idList(v.Get("starbases"))
		if len(sbIDs) == 0 {
			sbIDs = idList(v.Get("starbase"))
		}
		for _, sb := range sbIDs {
			if owner := r.starbaseOwner(starbases.Get(itoa(sb))); owner != domain.NoID {
				sys.Owner = domain.Ref{ID: owner}
				break
			}
		}
		r.snap.Systems[id] = sys
	})
}

// starbaseOwner reads a starbase's owner directly or through its station
// ship's fleet.
func (r *run) starbaseOwner(sb savefmt.Value) int64 {
	if sb.Kind() != savefmt.KindMapping {
		return domain.NoID
	}
	if owner := idOf(sb.Get("owner")); owner != domain.NoID {
		return owner
	}
	station := idOf(sb.Get("station"))
	if station == domain.NoID {
		return domain.NoID
	}
	fleet := idOf(r.root.Path("ships", itoa(station), "fleet"))
	if fleet == domain.NoID {
		return domain.NoID
	}
	return r.fleetOwner(fleet)
}

func (r *run) fleetOwner(fleet int64) int64 {
	if owner := idOf(r.root.Path("fleet", itoa(fleet), "owner")); owner != domain.NoID {
		return owner
	}
	if owner, ok := r.fleetOwners[fleet]; ok {
		return owner
	}
	return domain.NoID
}

func (r *run) readPlanets() {
	planetSystem := make(map[int64]int64)
	for _, sysID := range domain.SortedIDs(r.snap.Systems) {
		for _, pid := range r.snap.Systems[sysID].Planets {
			planetSystem[pid] = sysID
		}
	}

	r.each(r.root.Path("planets", "planet"), "planet", func(id int64, v savefmt.Value) {
		p := &domain.Planet{
			ID:         id,
			Name:       r.name(v.Get("name"), "planet", id, ""),
			Class:      stringOf(v.Get("planet_class"), ""),
			System:     domain.Ref{ID: idOf(v.Path("coordinate", "origin"))},
			Owner:      domain.Ref{ID: idOf(v.Get("owner"))},
			Controller: domain.Ref{ID: idOf(v.Get("controller"))},
			Districts:  countEntries(v, "district", "districts"),
			Buildings:  countEntries(v, "buildings", "buildings_cache"),
		}
		if sysID, ok := planetSystem[id]; ok {
			p.System = domain.Ref{ID: sysID}
		}
		if !p.Controller.IsSet() {
			p.Controller = p.Owner
		}
		if d, ok := dateOf(v.Get("colonize_date")); ok {
			p.ColonizeDate = d
			p.Colonized = p.Owner.IsSet()
		}
		r.snap.Planets[id] = p
	})
}

// countEntries counts the items under the first present key.
func countEntries(v savefmt.Value, keys ...string) int {
	for _, k := range keys {
		if items, ok := v.Lookup(k); ok {
			return len(items.Elements())
		}
	}
	return 0
}
