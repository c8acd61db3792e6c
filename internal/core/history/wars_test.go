package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/starledger/internal/core/domain"
)

func testWar() *domain.War {
	return &domain.War{
		ID:        7,
		Name:      "War of Words",
		StartDate: domain.NewGameDate(2229, 12, 1),
		Attackers: []domain.WarParticipant{{Country: ref(0), CallType: "primary", Caller: domain.NoRef()}},
		Defenders: []domain.WarParticipant{{Country: ref(1), CallType: "primary", Caller: domain.NoRef()}},
		Battles: []domain.Battle{{
			Date: domain.NewGameDate(2229, 12, 20), System: ref(20), Planet: domain.NoRef(), Type: "ships",
			AttackerVictory: true, AttackerExhaustion: 0.5, Attackers: []int64{50}, Defenders: []int64{60},
		}},
	}
}

func TestNextPhase(t *testing.T) {
	tests := []struct {
		from   warPhase
		listed bool
		want   warPhase
	}{
		{warNone, false, warNone},
		{warNone, true, warOngoing},
		{warOngoing, true, warOngoing},
		{warOngoing, false, warConcluded},
		{warConcluded, true, warOngoing},
		{warConcluded, false, warNone},
	}
	for _, tt := range tests {
		if got := nextPhase(tt.from, tt.listed); got != tt.want {
			t.Errorf("nextPhase(%d, %v) = %d, want %d", tt.from, tt.listed, got, tt.want)
		}
	}
}

func TestDiff_WarLifecycle(t *testing.T) {
	e := New()
	s0 := baseSnapshot()

	// Started: one war_started, a war_joined per participant and the
	// battles already fought.
	s1 := next(s0, 30)
	s1.Wars[7] = testWar()
	events, series := e.Diff(s0, s1)
	want := []domain.EventType{domain.EventWarStarted, domain.EventWarJoined, domain.EventWarJoined, domain.EventBattle}
	if diff := cmp.Diff(want, types(events)); diff != "" {
		t.Fatalf("start events mismatch (-want +got):\n%s", diff)
	}
	if events[3].Date != domain.NewGameDate(2229, 12, 20) {
		t.Errorf("battle dated %s, want the battle's own date", events[3].Date)
	}
	if got := events[2].Payload["side"]; got != "defender" {
		t.Errorf("second join side = %v", got)
	}
	var warRow *domain.SeriesRow
	for i := range series {
		if series[i].Category == domain.CategoryWar {
			warRow = &series[i]
		}
	}
	if warRow == nil || warRow.SubjectID != 7 || warRow.Metrics[MetricBattles] != 1 {
		t.Errorf("war row = %+v", warRow)
	}

	// Ongoing: a new participant joins, the old battle is repeated and
	// an invasion is added.
	s2 := next(s1, 30)
	w := testWar()
	w.Defenders = append(w.Defenders, domain.WarParticipant{Country: ref(2), CallType: "defensive_pact", Caller: ref(1)})
	w.Battles = append(w.Battles, domain.Battle{
		Date: domain.NewGameDate(2230, 1, 15), System: domain.NoRef(), Planet: ref(100), Type: domain.BattleTypeArmies,
		Attackers: []int64{70}, Defenders: []int64{71},
	})
	s2.Wars[7] = w
	events, _ = e.Diff(s1, s2)
	want = []domain.EventType{domain.EventWarJoined, domain.EventInvasion}
	if diff := cmp.Diff(want, types(events)); diff != "" {
		t.Fatalf("progress events mismatch (-want +got):\n%s", diff)
	}
	if !cmp.Equal(events[0].SubjectIDs, []int64{7, 2}) || events[0].Payload["call_type"] != "defensive_pact" {
		t.Errorf("join event = %+v", events[0])
	}
	if !cmp.Equal(events[1].SubjectIDs, []int64{7, 100}) {
		t.Errorf("invasion subjects = %v", events[1].SubjectIDs)
	}

	// Unchanged war: nothing.
	s3 := next(s2, 30)
	if events, _ = e.Diff(s2, s3); len(events) != 0 {
		t.Errorf("unchanged war events = %v", types(events))
	}

	// Concluded.
	s4 := next(s3, 30)
	delete(s4.Wars, 7)
	events, _ = e.Diff(s3, s4)
	if len(events) != 1 || events[0].Type != domain.EventWarConcluded {
		t.Fatalf("conclude events = %v", types(events))
	}
	if events[0].Payload[domain.PayloadRecyclable] != true || events[0].Date != s4.Date {
		t.Errorf("concluded event = %+v", events[0])
	}
}

func TestDiff_UndatedBattleEmittedOnce(t *testing.T) {
	e := New()
	s0 := baseSnapshot()
	s0.Wars[7] = testWar()

	undated := func(s *domain.Snapshot) *domain.War {
		w := testWar()
		w.Battles = append(w.Battles, domain.Battle{
			Date: s.Date, Undated: true, System: domain.NoRef(), Planet: ref(100), Type: domain.BattleTypeArmies,
			Attackers: []int64{70}, Defenders: []int64{71},
		})
		return w
	}

	s1 := next(s0, 30)
	s1.Wars[7] = undated(s1)
	events, _ := e.Diff(s0, s1)
	if len(events) != 1 || events[0].Type != domain.EventInvasion || events[0].Date != s1.Date {
		t.Fatalf("first sighting events = %+v", events)
	}
	if events[0].Payload["undated"] != true {
		t.Errorf("invasion payload = %v, want undated", events[0].Payload)
	}

	// Read again from a later save, the battle carries that save's date.
	s2 := next(s1, 30)
	s2.Wars[7] = undated(s2)
	if events, _ = e.Diff(s1, s2); len(events) != 0 {
		t.Errorf("repeated undated battle events = %v", types(events))
	}
}
