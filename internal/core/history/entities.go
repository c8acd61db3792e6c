package history

import (
	"slices"
	"strings"

	"github.com/yndnr/starledger/internal/core/domain"
)

// matcher pairs the entities of two snapshots by ID.
type matcher[T any] struct {
	created func(id int64, cur *T)
	changed func(id int64, prev, cur *T)
	removed func(id int64, prev *T)
}

func (m matcher[T]) run(prev, cur map[int64]*T) {
	for _, id := range domain.SortedIDs(cur) {
		p, ok := prev[id]
		switch {
		case !ok:
			if m.created != nil {
				m.created(id, cur[id])
			}
		case m.changed != nil:
			m.changed(id, p, cur[id])
		}
	}
	for _, id := range domain.SortedIDs(prev) {
		if _, ok := cur[id]; !ok && m.removed != nil {
			m.removed(id, prev[id])
		}
	}
}

func diffCountries(b *builder, prev, cur *domain.Snapshot) {
	const cat = domain.CategoryCountry
	matcher[domain.Country]{
		created: func(id int64, c *domain.Country) {
			b.add(domain.EventCountryCreated, cat, subjects(id), map[string]any{
				"name": c.Name,
				"type": c.Type,
			})
		},
		changed: func(id int64, p, c *domain.Country) {
			if p.Name != c.Name {
				b.add(domain.EventCountryRenamed, cat, subjects(id), change(p.Name, c.Name))
			}
			if p.Government != c.Government || p.Authority != c.Authority || !slices.Equal(p.Civics, c.Civics) {
				b.add(domain.EventGovernmentReform, cat, subjects(id), map[string]any{
					"old_government": p.Government,
					"new_government": c.Government,
					"old_authority":  p.Authority,
					"new_authority":  c.Authority,
					"civics_added":   added(p.Civics, c.Civics),
					"civics_removed": added(c.Civics, p.Civics),
				})
			}
			if p.Ruler.ID != c.Ruler.ID && c.Ruler.IsSet() {
				b.add(domain.EventRulerChanged, cat, subjects(id, c.Ruler.ID), change(p.Ruler.ID, c.Ruler.ID))
			}
			if p.Capital.ID != c.Capital.ID && c.Capital.IsSet() {
				b.add(domain.EventCapitalRelocated, cat, subjects(id, c.Capital.ID), change(p.Capital.ID, c.Capital.ID))
			}
			for _, t := range added(p.Traditions, c.Traditions) {
				b.add(domain.EventTraditionAdopted, cat, subjects(id), map[string]any{"tradition": t})
			}
			for _, perk := range added(p.AscensionPerks, c.AscensionPerks) {
				b.add(domain.EventAscensionPerk, cat, subjects(id), map[string]any{"perk": perk})
			}
		},
		removed: func(id int64, p *domain.Country) {
			b.add(domain.EventCountryRemoved, cat, subjects(id), removed(p.Name))
		},
	}.run(prev.Countries, cur.Countries)
}

func diffSystems(b *builder, prev, cur *domain.Snapshot) {
	const cat = domain.CategorySystem
	matcher[domain.System]{
		created: func(id int64, s *domain.System) {
			b.add(domain.EventSystemCreated, cat, subjects(id), map[string]any{
				"name":  s.Name,
				"owner": s.Owner.ID,
			})
		},
		changed: func(id int64, p, s *domain.System) {
			if p.Owner.ID != s.Owner.ID {
				b.add(domain.EventSystemOwnerChange, cat, subjects(id, s.Owner.ID, p.Owner.ID), change(p.Owner.ID, s.Owner.ID))
			}
		},
		removed: func(id int64, p *domain.System) {
			b.add(domain.EventSystemRemoved, cat, subjects(id), removed(p.Name))
		},
	}.run(prev.Systems, cur.Systems)
}

func diffPlanets(b *builder, prev, cur *domain.Snapshot) {
	const cat = domain.CategoryPlanet
	matcher[domain.Planet]{
		created: func(id int64, pl *domain.Planet) {
			b.add(domain.EventPlanetCreated, cat, subjects(id, pl.System.ID), map[string]any{
				"name":      pl.Name,
				"class":     pl.Class,
				"owner":     pl.Owner.ID,
				"colonized": pl.Colonized,
			})
		},
		changed: func(id int64, p, pl *domain.Planet) {
			if !p.Colonized && pl.Colonized {
				b.add(domain.EventPlanetColonized, cat, subjects(id, pl.Owner.ID), map[string]any{
					"name":  pl.Name,
					"owner": pl.Owner.ID,
				})
			} else if p.Owner.ID != pl.Owner.ID {
				b.add(domain.EventPlanetOwnerChange, cat, subjects(id, pl.Owner.ID, p.Owner.ID), change(p.Owner.ID, pl.Owner.ID))
			}
			if p.Class != pl.Class {
				b.add(domain.EventPlanetTerraformed, cat, subjects(id), change(p.Class, pl.Class))
			}
		},
		removed: func(id int64, p *domain.Planet) {
			b.add(domain.EventPlanetRemoved, cat, subjects(id), removed(p.Name))
		},
	}.run(prev.Planets, cur.Planets)
}

func diffFleets(b *builder, prev, cur *domain.Snapshot) {
	const cat = domain.CategoryFleet
	matcher[domain.Fleet]{
		created: func(id int64, f *domain.Fleet) {
			b.add(domain.EventFleetCreated, cat, subjects(id, f.Owner.ID), map[string]any{
				"name":     f.Name,
				"owner":    f.Owner.ID,
				"civilian": f.Civilian,
			})
		},
		changed: func(id int64, p, f *domain.Fleet) {
			if p.Owner.ID != f.Owner.ID {
				b.add(domain.EventFleetOwnerChange, cat, subjects(id, f.Owner.ID, p.Owner.ID), change(p.Owner.ID, f.Owner.ID))
			}
			if p.Commander.ID != f.Commander.ID && f.Commander.IsSet() {
				b.add(domain.EventFleetCommander, cat, subjects(id, f.Commander.ID), change(p.Commander.ID, f.Commander.ID))
			}
		},
		removed: func(id int64, p *domain.Fleet) {
			b.add(domain.EventFleetRemoved, cat, subjects(id), removed(p.Name))
		},
	}.run(prev.Fleets, cur.Fleets)
}

func diffLeaders(b *builder, prev, cur *domain.Snapshot) {
	const cat = domain.CategoryLeader
	matcher[domain.Leader]{
		created: func(id int64, l *domain.Leader) {
			b.add(domain.EventLeaderCreated, cat, subjects(id, l.Country.ID), map[string]any{
				"name":    l.Name,
				"class":   l.Class,
				"country": l.Country.ID,
			})
		},
		changed: func(id int64, p, l *domain.Leader) {
			if l.Level > p.Level {
				b.add(domain.EventLeaderLevelUp, cat, subjects(id), change(p.Level, l.Level))
			}
			if p.Assignment.ID != l.Assignment.ID {
				b.add(domain.EventLeaderReassigned, cat, subjects(id, l.Assignment.ID), change(p.Assignment.ID, l.Assignment.ID))
			}
			gained, lost := traitChanges(p, l)
			for _, t := range gained {
				b.add(domain.EventLeaderTraitGained, cat, subjects(id), map[string]any{"trait": t})
			}
			for _, t := range lost {
				b.add(domain.EventLeaderTraitLost, cat, subjects(id), map[string]any{"trait": t})
			}
		},
		removed: func(id int64, p *domain.Leader) {
			b.add(domain.EventLeaderRemoved, cat, subjects(id), removed(p.Name))
		},
	}.run(prev.Leaders, cur.Leaders)
}

// traitChanges compares the traits of one leader in two snapshots. A
// trait upgraded to a higher tier (trait_x to trait_x_2) counts as gained
// but the old tier is not reported lost. A new subclass counts as gained.
func traitChanges(p, l *domain.Leader) (gained, lost []string) {
	gained = added(p.Traits, l.Traits)
	if l.Subclass != "" && l.Subclass != p.Subclass {
		gained = append(gained, l.Subclass)
	}

	bases := make(map[string]bool, len(l.Traits))
	for _, t := range l.Traits {
		bases[traitBase(t)] = true
	}
	for _, t := range added(l.Traits, p.Traits) {
		if !bases[traitBase(t)] {
			lost = append(lost, t)
		}
	}
	return gained, lost
}

// traitBase strips the tier suffix of a trait name.
func traitBase(t string) string {
	return strings.TrimRight(strings.TrimRight(t, "0123456789"), "_")
}

func diffPops(b *builder, prev, cur *domain.Snapshot) {
	const cat = domain.CategoryPop
	matcher[domain.Pop]{
		created: func(id int64, p *domain.Pop) {
			b.add(domain.EventPopCreated, cat, subjects(id, p.Planet.ID), map[string]any{
				"species": p.Species,
				"stratum": p.Stratum,
				"size":    p.Size,
			})
		},
		removed: func(id int64, p *domain.Pop) {
			b.add(domain.EventPopRemoved, cat, subjects(id, p.Planet.ID), map[string]any{
				"species":                p.Species,
				domain.PayloadRecyclable: true,
			})
		},
	}.run(prev.Pops, cur.Pops)
}

// added returns the items of cur missing from prev, in cur order.
func added(prev, cur []string) []string {
	var out []string
	for _, s := range cur {
		if !slices.Contains(prev, s) {
			out = append(out, s)
		}
	}
	return out
}
