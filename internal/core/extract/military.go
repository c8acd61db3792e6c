package extract

import (
	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

func (r *run) readFleets() {
	ships := r.root.Get("ships")

	r.each(r.root.Get("fleet"), "fleet", func(id int64, v savefmt.Value) {
		shipIDs := idList(v.Get("ships"))
		f := &domain.Fleet{
			ID:            id,
			Name:          r.name(v.Get("name"), "fleet", id, "Unnamed Fleet"),
			Owner:         domain.Ref{ID: r.fleetOwner(id)},
			Commander:     domain.Ref{ID: idOf(v.Get("leader"))},
			System:        domain.Ref{ID: idOf(v.Path("movement_manager", "coordinate", "origin"))},
			Ships:         len(shipIDs),
			MilitaryPower: floatOf(v.Get("military_power")),
			Civilian:      boolOf(v.Get("civilian")) || boolOf(v.Get("station")),
		}
		if !f.Commander.IsSet() {
			for _, sid := range shipIDs {
				if leader := idOf(ships.Path(itoa(sid), "leader")); leader != domain.NoID {
					f.Commander = domain.Ref{ID: leader}
					break
				}
			}
		}
		r.snap.Fleets[id] = f

		if l, ok := r.snap.Leaders[f.Commander.ID]; ok && f.Commander.IsSet() {
			l.Assignment = domain.Ref{ID: id}
		}
	})
}

func (r *run) readWars() {
	r.each(r.root.Get("war"), "war", func(id int64, v savefmt.Value) {
		w := &domain.War{
			ID:                 id,
			Name:               r.name(v.Get("name"), "war", id, ""),
			Attackers:          r.participants(v.Get("attackers")),
			Defenders:          r.participants(v.Get("defenders")),
			AttackerWarGoal:    stringOf(v.Path("attacker_war_goal", "type"), ""),
			DefenderWarGoal:    warGoal(v.Get("defender_war_goal")),
			AttackerExhaustion: floatOf(v.Get("attacker_war_exhaustion")),
			DefenderExhaustion: floatOf(v.Get("defender_war_exhaustion")),
		}
		if d, ok := dateOf(v.Get("start_date")); ok {
			w.StartDate = d
		} else {
			w.StartDate = r.snap.Date
		}
		if len(w.Attackers) == 0 && len(w.Defenders) == 0 {
			r.warn(domain.WarningMalformedEntity, "war", id, "attackers", "war without participants")
			return
		}

		for _, b := range v.Get("battles").Elements() {
			if battle, ok := r.battle(b); ok {
				w.Battles = append(w.Battles, battle)
			}
		}
		r.snap.Wars[id] = w
	})
}

func (r *run) participants(v savefmt.Value) []domain.WarParticipant {
	var out []domain.WarParticipant
	for _, p := range v.Elements() {
		country := idOf(p.Get("country"))
		if country == domain.NoID {
			continue
		}
		out = append(out, domain.WarParticipant{
			Country:  domain.Ref{ID: country},
			CallType: stringOf(p.Get("call_type"), "unknown"),
			Caller:   domain.Ref{ID: idOf(p.Get("caller"))},
		})
	}
	return out
}

// warGoal accepts both {type=...} and bare-word war goals; "none" means
// no goal.
func warGoal(v savefmt.Value) string {
	if v.Kind() == savefmt.KindMapping {
		return stringOf(v.Get("type"), "")
	}
	if s := stringOf(v, ""); s != "none" {
		return s
	}
	return ""
}

// battle reads one battle entry. Entries without participants or outcome
// are skipped, as are space battles that moved no war exhaustion.
func (r *run) battle(v savefmt.Value) (domain.Battle, bool) {
	attackers := idList(v.Get("attackers"))
	defenders := idList(v.Get("defenders"))
	victory, ok := v.Get("attacker_victory").AsBool()
	if len(attackers) == 0 || len(defenders) == 0 || !ok {
		return domain.Battle{}, false
	}

	b := domain.Battle{
		System:             domain.Ref{ID: idOf(v.Get("system"))},
		Planet:             domain.Ref{ID: idOf(v.Get("planet"))},
		Type:               stringOf(v.Get("type"), "other"),
		AttackerVictory:    victory,
		AttackerExhaustion: floatOf(v.Get("attacker_war_exhaustion")),
		DefenderExhaustion: floatOf(v.Get("defender_war_exhaustion")),
		Attackers:          attackers,
		Defenders:          defenders,
	}
	if d, ok := dateOf(v.Get("date")); ok {
		b.Date = d
	} else {
		b.Date, b.Undated = r.snap.Date, true
	}
	if !b.IsGround() && b.AttackerExhaustion+b.DefenderExhaustion <= 0.001 {
		return domain.Battle{}, false
	}
	if !b.System.IsSet() && !b.Planet.IsSet() {
		return domain.Battle{}, false
	}
	return b, true
}
