package extract

import (
	"slices"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

func (r *run) readCountries() {
	r.each(r.root.Get("country"), "country", func(id int64, v savefmt.Value) {
		gov := v.Get("government")
		c := &domain.Country{
			ID:             id,
			Name:           r.name(v.Get("name"), "country", id, "Unknown name"),
			Type:           stringOf(v.Get("type"), ""),
			Government:     stringOf(gov.Get("type"), ""),
			Authority:      stringOf(gov.Get("authority"), ""),
			Civics:         sortedStrings(gov.Get("civics")),
			Ethics:         sortedStrings(v.Path("ethos", "ethic")),
			Traditions:     stringList(v.Get("traditions")),
			AscensionPerks: stringList(v.Get("ascension_perks")),
			FlagColors:     stringList(v.Path("flag", "colors")),
			Ruler:          domain.Ref{ID: idOf(v.Get("ruler"))},
			Capital:        domain.Ref{ID: idOf(v.Get("capital"))},
			TechCount:      len(v.Path("tech_status", "technology").Elements()),
			MilitaryPower:  floatOf(v.Get("military_power")),
			EconomyPower:   floatOf(v.Get("economy_power")),
			TechPower:      floatOf(v.Get("tech_power")),
			Economy:        readBudget(v.Path("budget", "current_month")),
		}
		r.snap.Countries[id] = c

		for _, item := range v.Path("fleets_manager", "owned_fleets").Elements() {
			if fid := idOf(item.Get("fleet")); fid != domain.NoID {
				r.fleetOwners[fid] = id
			}
		}
		for _, lid := range idList(v.Get("owned_leaders")) {
			r.leaderOwners[lid] = id
		}
	})
}

func sortedStrings(v savefmt.Value) []string {
	out := stringList(v)
	slices.Sort(out)
	return out
}

// readBudget sums the budget items of one month per resource. The engine
// keeps one block per income or expense source; balance holds their net.
// Summing item blocks only approximates the engine's own totals, which
// also include modifiers not written to the save.
func readBudget(month savefmt.Value) domain.Economy {
	return domain.Economy{
		Net:      sumBudgetItems(month.Get("balance")),
		Income:   sumBudgetItems(month.Get("income")),
		Expenses: sumBudgetItems(month.Get("expenses")),
	}
}

func sumBudgetItems(section savefmt.Value) map[string]float64 {
	if section.Kind() != savefmt.KindMapping {
		return nil
	}
	totals := make(map[string]float64)
	for item, values := range section.All() {
		if item == "none" {
			continue
		}
		for _, block := range values.Elements() {
			for resource, amount := range block.All() {
				if f, ok := amount.AsFloat(); ok {
					totals[resource] += f
				}
			}
		}
	}
	if len(totals) == 0 {
		return nil
	}
	return totals
}
