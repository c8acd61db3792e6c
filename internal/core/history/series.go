package history

import (
	"maps"
	"math"
	"slices"

	"github.com/yndnr/starledger/internal/core/domain"
)

// Series metric names that are not resource names.
const (
	MetricBudgetResidual = "budget_residual"
	MetricPops           = "pops"
	MetricPlanets        = "planets"
	MetricSystems        = "systems"
	MetricFleets         = "fleets"
	MetricShips          = "ships"
	MetricFleetPower     = "fleet_power"
	MetricMilitaryPower  = "military_power"
	MetricEconomyPower   = "economy_power"
	MetricTechPower      = "tech_power"
	MetricTechs          = "techs"
	MetricBattles        = "battles"
	MetricAttackerExh    = "attacker_exhaustion"
	MetricDefenderExh    = "defender_exhaustion"
	MetricCountries      = "countries"
	MetricWars           = "wars"
	MetricLeaders        = "leaders"
	MetricColonized      = "colonized_planets"
	MetricOwnedSystems   = "owned_systems"
)

// series builds every series row of one snapshot. Rows are ordered by
// category, then subject.
func (e *Engine) series(s *domain.Snapshot) []domain.SeriesRow {
	var rows []domain.SeriesRow
	row := func(cat domain.Category, subject int64, metrics map[string]float64) *domain.SeriesRow {
		rows = append(rows, domain.SeriesRow{
			SessionID: s.SessionID,
			Date:      s.Date,
			Category:  cat,
			SubjectID: subject,
			Metrics:   metrics,
		})
		return &rows[len(rows)-1]
	}

	countries := domain.SortedIDs(s.Countries)
	for _, id := range countries {
		metrics, approximate := e.economy(s.Countries[id].Economy)
		row(domain.CategoryEconomy, id, metrics).Approximate = approximate
	}

	pops, planets, systems := holdings(s)
	for _, id := range countries {
		row(domain.CategoryDemographics, id, map[string]float64{
			MetricPops:    pops[id],
			MetricPlanets: planets[id],
			MetricSystems: systems[id],
		})
	}

	fleets, ships, power := militaryTotals(s)
	for _, id := range countries {
		c := s.Countries[id]
		row(domain.CategoryMilitary, id, map[string]float64{
			MetricFleets:        fleets[id],
			MetricShips:         ships[id],
			MetricFleetPower:    power[id],
			MetricMilitaryPower: c.MilitaryPower,
			MetricEconomyPower:  c.EconomyPower,
			MetricTechPower:     c.TechPower,
			MetricTechs:         float64(c.TechCount),
		})
	}

	for _, id := range domain.SortedIDs(s.Wars) {
		w := s.Wars[id]
		row(domain.CategoryWar, id, map[string]float64{
			MetricAttackerExh: w.AttackerExhaustion,
			MetricDefenderExh: w.DefenderExhaustion,
			MetricBattles:     float64(len(w.Battles)),
		})
	}

	row(domain.CategoryGalaxy, domain.GalaxySubject, galaxyTotals(s))
	return rows
}

// economy returns the net budget per resource and the residual between
// net and income minus expenses. The row is approximate when the residual
// exceeds the tolerance relative to the budget volume.
func (e *Engine) economy(ec domain.Economy) (map[string]float64, bool) {
	metrics := make(map[string]float64, len(ec.Net)+1)
	for res, v := range ec.Net {
		metrics[res] = v
	}

	var residual, volume float64
	if len(ec.Income) > 0 || len(ec.Expenses) > 0 {
		resources := make(map[string]struct{})
		for _, m := range []map[string]float64{ec.Net, ec.Income, ec.Expenses} {
			for res := range m {
				resources[res] = struct{}{}
			}
		}
		for _, res := range slices.Sorted(maps.Keys(resources)) {
			residual += math.Abs(ec.Income[res] - ec.Expenses[res] - ec.Net[res])
			volume += math.Abs(ec.Income[res]) + math.Abs(ec.Expenses[res])
		}
	}
	metrics[MetricBudgetResidual] = residual
	return metrics, volume > 0 && residual/volume > e.tolerance
}

// holdings counts pops, planets and systems per owning country.
func holdings(s *domain.Snapshot) (pops, planets, systems map[int64]float64) {
	pops = make(map[int64]float64)
	planets = make(map[int64]float64)
	systems = make(map[int64]float64)
	for _, p := range s.Planets {
		if p.Owner.IsSet() {
			planets[p.Owner.ID]++
		}
	}
	for _, sys := range s.Systems {
		if sys.Owner.IsSet() {
			systems[sys.Owner.ID]++
		}
	}
	for _, pop := range s.Pops {
		if pl, ok := s.Planets[pop.Planet.ID]; ok && pl.Owner.IsSet() {
			pops[pl.Owner.ID] += float64(pop.Size)
		}
	}
	return pops, planets, systems
}

// militaryTotals sums military fleets per owner in ID order, so float
// totals are identical for identical snapshots. Civilian fleets and
// stations are left out.
func militaryTotals(s *domain.Snapshot) (fleets, ships, power map[int64]float64) {
	fleets = make(map[int64]float64)
	ships = make(map[int64]float64)
	power = make(map[int64]float64)
	for _, id := range domain.SortedIDs(s.Fleets) {
		f := s.Fleets[id]
		if f.Civilian || !f.Owner.IsSet() {
			continue
		}
		fleets[f.Owner.ID]++
		ships[f.Owner.ID] += float64(f.Ships)
		power[f.Owner.ID] += f.MilitaryPower
	}
	return fleets, ships, power
}

func galaxyTotals(s *domain.Snapshot) map[string]float64 {
	m := map[string]float64{
		MetricCountries: float64(len(s.Countries)),
		MetricSystems:   float64(len(s.Systems)),
		MetricPlanets:   float64(len(s.Planets)),
		MetricFleets:    float64(len(s.Fleets)),
		MetricWars:      float64(len(s.Wars)),
		MetricLeaders:   float64(len(s.Leaders)),
	}
	var pops, colonized, owned float64
	for _, p := range s.Pops {
		pops += float64(p.Size)
	}
	for _, p := range s.Planets {
		if p.Colonized {
			colonized++
		}
	}
	for _, sys := range s.Systems {
		if sys.Owner.IsSet() {
			owned++
		}
	}
	m[MetricPops] = pops
	m[MetricColonized] = colonized
	m[MetricOwnedSystems] = owned
	return m
}
