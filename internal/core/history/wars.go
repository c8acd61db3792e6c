package history

import (
	"github.com/yndnr/starledger/internal/core/domain"
)

// warPhase is the state of a war as seen by one snapshot.
type warPhase uint8

const (
	warNone warPhase = iota
	warOngoing
	warConcluded
)

// nextPhase moves a war through None -> Ongoing -> Concluded. A war is
// ongoing while the snapshot lists it; a concluded war reappearing under
// the same ID is a new war.
func nextPhase(prev warPhase, listed bool) warPhase {
	switch {
	case listed:
		return warOngoing
	case prev == warOngoing:
		return warConcluded
	default:
		return warNone
	}
}

func phaseOf(s *domain.Snapshot, id int64) warPhase {
	if _, ok := s.Wars[id]; ok {
		return warOngoing
	}
	return warNone
}

func diffWars(b *builder, prev, cur *domain.Snapshot) {
	ids := make(map[int64]struct{}, len(prev.Wars)+len(cur.Wars))
	for id := range prev.Wars {
		ids[id] = struct{}{}
	}
	for id := range cur.Wars {
		ids[id] = struct{}{}
	}

	for _, id := range domain.SortedIDs(ids) {
		from := phaseOf(prev, id)
		to := nextPhase(from, cur.Wars[id] != nil)
		switch {
		case from == warNone && to == warOngoing:
			warStarted(b, cur.Wars[id])
		case from == warOngoing && to == warOngoing:
			warProgress(b, prev.Wars[id], cur.Wars[id])
		case to == warConcluded:
			warConcludedEvent(b, prev.Wars[id])
		}
	}
}

func warStarted(b *builder, w *domain.War) {
	b.add(domain.EventWarStarted, domain.CategoryWar, subjects(w.ID), map[string]any{
		"name":              w.Name,
		"start_date":        w.StartDate.String(),
		"attackers":         countryIDs(w.Attackers),
		"defenders":         countryIDs(w.Defenders),
		"attacker_war_goal": w.AttackerWarGoal,
		"defender_war_goal": w.DefenderWarGoal,
	})
	for _, p := range w.Attackers {
		warJoined(b, w, p, true)
	}
	for _, p := range w.Defenders {
		warJoined(b, w, p, false)
	}
	newBattles(b, w, nil)
}

func warProgress(b *builder, prev, cur *domain.War) {
	before := prev.Participants()
	for _, p := range cur.Attackers {
		if _, ok := before[p.Country.ID]; !ok {
			warJoined(b, cur, p, true)
		}
	}
	for _, p := range cur.Defenders {
		if _, ok := before[p.Country.ID]; !ok {
			warJoined(b, cur, p, false)
		}
	}
	newBattles(b, cur, prev)
}

func warJoined(b *builder, w *domain.War, p domain.WarParticipant, attacker bool) {
	side := "defender"
	if attacker {
		side = "attacker"
	}
	b.add(domain.EventWarJoined, domain.CategoryWar, subjects(w.ID, p.Country.ID), map[string]any{
		"side":      side,
		"call_type": p.CallType,
		"caller":    p.Caller.ID,
	})
}

// newBattles emits the battles of cur that prev did not list yet. The
// engine keeps past battles in every later save, so only new keys count.
func newBattles(b *builder, cur, prev *domain.War) {
	seen := make(map[string]bool)
	if prev != nil {
		for _, bt := range prev.Battles {
			seen[bt.Key()] = true
		}
	}
	for _, bt := range cur.Battles {
		if seen[bt.Key()] {
			continue
		}
		seen[bt.Key()] = true

		typ := domain.EventBattle
		if bt.IsGround() {
			typ = domain.EventInvasion
		}
		b.addAt(bt.Date, typ, domain.CategoryWar, subjects(cur.ID, bt.System.ID, bt.Planet.ID), map[string]any{
			"type":                bt.Type,
			"system":              bt.System.ID,
			"planet":              bt.Planet.ID,
			"attacker_victory":    bt.AttackerVictory,
			"attacker_exhaustion": bt.AttackerExhaustion,
			"defender_exhaustion": bt.DefenderExhaustion,
			"attackers":           bt.Attackers,
			"defenders":           bt.Defenders,
			"undated":             bt.Undated,
		})
	}
}

func warConcludedEvent(b *builder, w *domain.War) {
	b.add(domain.EventWarConcluded, domain.CategoryWar, subjects(w.ID), map[string]any{
		"name":                   w.Name,
		"attacker_exhaustion":    w.AttackerExhaustion,
		"defender_exhaustion":    w.DefenderExhaustion,
		domain.PayloadRecyclable: true,
	})
}

func countryIDs(ps []domain.WarParticipant) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Country.ID)
	}
	return out
}
