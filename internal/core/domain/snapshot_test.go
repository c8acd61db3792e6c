package domain

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRef(t *testing.T) {
	tests := []struct {
		ref  Ref
		set  bool
		text string
	}{
		{NoRef(), false, "none"},
		{Ref{ID: EngineNullID}, false, "none"},
		{Ref{ID: 0, Resolved: true}, true, "0"},
		{Ref{ID: 12}, true, "12?"},
	}
	for _, tt := range tests {
		if got := tt.ref.IsSet(); got != tt.set {
			t.Errorf("%#v.IsSet() = %v, want %v", tt.ref, got, tt.set)
		}
		if got := tt.ref.String(); got != tt.text {
			t.Errorf("%#v.String() = %q, want %q", tt.ref, got, tt.text)
		}
	}
}

func TestWar_Participants(t *testing.T) {
	w := &War{
		Attackers: []WarParticipant{{Country: Ref{ID: 1}}, {Country: Ref{ID: 2}}},
		Defenders: []WarParticipant{{Country: Ref{ID: 5}}},
	}
	want := map[int64]bool{1: true, 2: true, 5: false}
	if diff := cmp.Diff(want, w.Participants()); diff != "" {
		t.Errorf("Participants() mismatch (-want +got):\n%s", diff)
	}
}

func TestBattle_Key(t *testing.T) {
	a := Battle{Date: 100, System: Ref{ID: 3}, Type: "ships", AttackerExhaustion: 0.5}
	b := a
	b.Attackers = []int64{1}
	c := a
	c.AttackerVictory = true

	if a.Key() != b.Key() {
		t.Error("participant lists should not change the battle key")
	}
	if a.Key() == c.Key() {
		t.Error("outcome should change the battle key")
	}
	if !(Battle{Type: BattleTypeArmies}).IsGround() {
		t.Error("armies battle should be ground combat")
	}
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	s := NewSnapshot("session", NewGameDate(2230, 3, 1))
	s.PlayerCountry = Ref{ID: 0, Resolved: true}
	s.Countries[0] = &Country{ID: 0, Name: "United Nations of Earth", Ruler: Ref{ID: 9, Resolved: true},
		Capital: NoRef(), Economy: Economy{Net: map[string]float64{"energy": 12.5}}}
	s.Planets[2] = &Planet{ID: 2, Name: "Earth", Owner: Ref{ID: 0, Resolved: true}, System: NoRef(), Controller: NoRef()}
	s.Warnings = []ExtractionWarning{{Kind: WarningUnresolvedReference, Entity: "planet", ID: 2, Field: "system"}}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if diff := cmp.Diff(s, &back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSortedIDs(t *testing.T) {
	m := map[int64]*Fleet{9: nil, -1: nil, 3: nil}
	if got := SortedIDs(m); !slices.Equal(got, []int64{-1, 3, 9}) {
		t.Errorf("SortedIDs() = %v", got)
	}
}
