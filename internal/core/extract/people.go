package extract

import (
	"slices"
	"strings"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

const subclassPrefix = "subclass_"

func (r *run) readSpecies() {
	db := r.root.Get("species_db")
	if !db.IsValid() {
		// Older saves keep species in a list indexed by position.
		for i, v := range r.root.Get("species").Elements() {
			if v.Kind() == savefmt.KindMapping {
				r.species[int64(i)] = r.name(v.Get("name"), "species", int64(i), "")
			}
		}
		return
	}
	r.each(db, "species", func(id int64, v savefmt.Value) {
		r.species[id] = r.name(v.Get("name"), "species", id, "")
	})
}

func (r *run) readLeaders() {
	r.each(r.root.Get("leaders"), "leader", func(id int64, v savefmt.Value) {
		l := &domain.Leader{
			ID:         id,
			Name:       r.leaderName(v.Get("name")),
			Class:      stringOf(v.Get("pre_ruler_class"), stringOf(v.Get("class"), "")),
			Country:    domain.Ref{ID: idOf(v.Get("country"))},
			Level:      intOf(v.Get("level"), 1),
			Gender:     stringOf(v.Get("gender"), ""),
			Assignment: domain.NoRef(),
		}
		if !l.Country.IsSet() {
			if owner, ok := r.leaderOwners[id]; ok {
				l.Country = domain.Ref{ID: owner}
			}
		}
		if sid := idOf(v.Get("species")); sid != domain.NoID {
			l.Species = r.species[sid]
		}
		for _, trait := range stringList(v.Get("traits")) {
			if strings.HasPrefix(trait, subclassPrefix) {
				l.Subclass = trait
				continue
			}
			l.Traits = append(l.Traits, trait)
		}
		slices.Sort(l.Traits)
		r.snap.Leaders[id] = l
	})
}

// leaderName joins the first and second name of a leader. Name parts
// that cannot be resolved keep their key without a warning, since custom
// leader names are stored the same way.
func (r *run) leaderName(v savefmt.Value) string {
	first := v.Get("first_name")
	if !first.IsValid() {
		first = v.Get("full_names")
	}
	parts := []string{r.nameText(first), r.nameText(v.Get("second_name"))}
	parts = slices.DeleteFunc(parts, func(s string) bool { return s == "" })
	if len(parts) == 0 {
		return "Unknown leader"
	}
	return strings.Join(parts, " ")
}

func (r *run) nameText(v savefmt.Value) string {
	ref, ok := parseNameRef(v)
	if !ok {
		return ""
	}
	if text, err := r.x.resolver.Resolve(ref); err == nil {
		return text
	}
	return ref.Key
}

func (r *run) readPops() {
	r.each(r.root.Get("pop"), "pop", func(id int64, v savefmt.Value) {
		r.snap.Pops[id] = &domain.Pop{
			ID:      id,
			Planet:  domain.Ref{ID: idOf(v.Get("planet"))},
			Species: r.speciesName(v.Get("species")),
			Job:     stringOf(v.Get("job"), ""),
			Stratum: stringOf(v.Get("category"), ""),
			Size:    1,
		}
	})
	r.each(r.root.Get("pop_groups"), "pop", func(id int64, v savefmt.Value) {
		key := v.Get("key")
		r.snap.Pops[id] = &domain.Pop{
			ID:      id,
			Planet:  domain.Ref{ID: idOf(v.Get("planet"))},
			Species: r.speciesName(key.Get("species")),
			Stratum: stringOf(key.Get("category"), ""),
			Size:    intOf(v.Get("size"), 0),
		}
	})
}

func (r *run) speciesName(v savefmt.Value) string {
	id := idOf(v)
	if id == domain.NoID {
		return ""
	}
	if name, ok := r.species[id]; ok && name != "" {
		return name
	}
	return itoa(id)
}
