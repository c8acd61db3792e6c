package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

const sampleGamestate = `version="Circinus v3.0.3"
name="United Nations of Earth"
player={
	{ name="alice" country=0 }
}
species_db={
	0={ name={ key="SPEC_human" } }
	1={ name="Blorg" }
}
country={
	0={
		name={ key="EMPIRE_united" }
		type="default"
		government={ type="gov_democracy" authority="auth_democratic" civics={ "civic_b" "civic_a" } }
		ethos={ ethic="ethic_xenophile" ethic="ethic_egalitarian" }
		traditions={ "tr_expansion_adopt" }
		flag={ colors={ "blue" "black" } }
		ruler=10
		capital=100
		military_power=1500.5
		owned_leaders={ 10 11 }
		fleets_manager={ owned_fleets={ { fleet=50 } { fleet=51 } } }
		budget={
			current_month={
				income={ country_base={ energy=20 minerals=10 } trade={ energy=5 } }
				expenses={ ships={ energy=7.5 } }
				balance={ country_base={ energy=20 minerals=10 } ships={ energy=-7.5 } }
			}
		}
	}
	1={
		name={ key="EMPIRE_league" variables={ { key="adj" value={ key="Blorg" literal=yes } } } }
		type="default"
		capital=4294967295
	}
	2={
		name={ key="MISSING_KEY" }
		capital=999
	}
	3=none
	bogus={ name="x" }
}
leaders={
	10={
		name={ first_name={ key="NAME_Jane" } second_name="Doe" }
		class="official"
		species=0
		level=3
		traits={ "trait_ruler_charismatic" "subclass_official_delegate" "trait_adaptable_2" }
	}
	11={
		name={ full_names={ key="Admiral_Kim" literal=yes } }
		class="commander"
		level=1
	}
	12=none
}
galactic_object={
	20={
		name={ key="Sol" literal=yes }
		star_class="sc_g"
		coordinate={ x=10.5 y=-3 }
		planet={ 100 101 }
		hyperlane={ { to=21 } { to=20 } }
		starbases={ 200 }
	}
	21={
		name="Alpha"
		planet=102
		starbases={ 201 }
	}
}
starbase_mgr={
	starbases={
		200={ owner=0 }
		201={ station=300 }
	}
}
ships={
	300={ fleet=51 }
	301={ leader=11 }
}
planets={
	planet={
		100={ name="Earth" planet_class="pc_continental" owner=0 colonize_date="2200.01.01" district={ 1 2 3 } }
		101={ name="Mars" planet_class="pc_barren" }
		102={ name="Alpha I" owner=1 controller=0 colonize_date="2210.05.01" }
	}
}
fleet={
	50={ name="Home Guard" owner=0 ships={ 301 } military_power=300 movement_manager={ coordinate={ origin=20 } } }
	51={ name="Station" station=yes ships={ 300 } }
	52={ name="Lost" owner=7 leader=4294967295 }
}
war={
	0={
		name={ key="War of Words" literal=yes }
		start_date="2229.01.01"
		attackers={ { country=0 call_type="primary" caller=4294967295 } }
		defenders={ { country=1 call_type="primary" } }
		attacker_war_goal={ type="wg_conquest" }
		defender_war_goal=none
		attacker_war_exhaustion=0.25
		battles={
			{ system=20 attackers={ 50 } defenders={ 60 } attacker_victory=yes attacker_war_exhaustion=0.5 defender_war_exhaustion=1.0 date="2229.06.01" type="ships" }
			{ system=20 attackers={ 50 } defenders={ 60 } attacker_victory=no type="ships" }
			{ planet=102 attackers={ 70 } defenders={ 71 } attacker_victory=yes type="armies" }
			{ system=21 attackers={ 50 } defenders={ 60 } type="ships" attacker_war_exhaustion=1 }
		}
	}
}
pop={
	400={ species=0 planet=100 job="clerk" category="worker" }
	401={ species=9 planet=555 category="ruler" }
}
pop_groups={
	500={ key={ species=1 category="specialist" } planet=102 size=7 }
}
`

func extractSample(t *testing.T, opts ...Option) *domain.Snapshot {
	t.Helper()
	root, err := savefmt.Parse([]byte(sampleGamestate))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	resolver := NewLocalizationResolver(map[string]string{
		"EMPIRE_united": "United Nations of Earth",
		"EMPIRE_league": "The $adj$ League",
		"SPEC_human":    "Human",
		"NAME_Jane":     "Jane",
	})
	meta := Metadata{Date: domain.NewGameDate(2230, 1, 1), Name: "UNE"}
	snap, err := New(resolver, opts...).Extract("s1", meta, root)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	return snap
}

func hasWarning(snap *domain.Snapshot, kind domain.WarningKind, entity string, id int64, field string) bool {
	for _, w := range snap.Warnings {
		if w.Kind == kind && w.Entity == entity && w.ID == id && w.Field == field {
			return true
		}
	}
	return false
}

func TestExtract_Metadata(t *testing.T) {
	snap := extractSample(t)
	if snap.SessionID != "s1" || snap.Date != domain.NewGameDate(2230, 1, 1) {
		t.Errorf("session/date = %s/%s", snap.SessionID, snap.Date)
	}
	if snap.GameName != "UNE" || snap.Version != "Circinus v3.0.3" {
		t.Errorf("name/version = %q/%q", snap.GameName, snap.Version)
	}
}

func TestExtract_Countries(t *testing.T) {
	snap := extractSample(t)

	if got := domain.SortedIDs(snap.Countries); !cmp.Equal(got, []int64{0, 1, 2}) {
		t.Fatalf("country ids = %v, want [0 1 2]", got)
	}
	c := snap.Countries[0]
	want := &domain.Country{
		ID:             0,
		Name:           "United Nations of Earth",
		Type:           "default",
		IsPlayer:       true,
		Government:     "gov_democracy",
		Authority:      "auth_democratic",
		Civics:         []string{"civic_a", "civic_b"},
		Ethics:         []string{"ethic_egalitarian", "ethic_xenophile"},
		Traditions:     []string{"tr_expansion_adopt"},
		FlagColors:     []string{"blue", "black"},
		Ruler:          domain.Ref{ID: 10, Resolved: true},
		Capital:        domain.Ref{ID: 100, Resolved: true},
		MilitaryPower:  1500.5,
		Economy: domain.Economy{
			Net:      map[string]float64{"energy": 12.5, "minerals": 10},
			Income:   map[string]float64{"energy": 25, "minerals": 10},
			Expenses: map[string]float64{"energy": 7.5},
		},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("country 0 mismatch (-want +got):\n%s", diff)
	}

	if got := snap.Countries[1].Name; got != "The Blorg League" {
		t.Errorf("country 1 name = %q", got)
	}
	if got := snap.Countries[1].Capital; got.IsSet() {
		t.Errorf("country 1 capital = %v, want none", got)
	}
	if got := snap.Countries[2].Name; got != "MISSING_KEY" {
		t.Errorf("country 2 name = %q, want raw key", got)
	}
	if !hasWarning(snap, domain.WarningUnresolvedName, "country", 2, "name") {
		t.Error("missing unresolved_name warning for country 2")
	}
	if c2 := snap.Countries[2].Capital; c2.ID != 999 || c2.Resolved {
		t.Errorf("country 2 capital = %+v, want unresolved 999", c2)
	}
	if !hasWarning(snap, domain.WarningUnresolvedReference, "country", 2, "capital") {
		t.Error("missing unresolved_reference warning for country 2 capital")
	}
	if !hasWarning(snap, domain.WarningMalformedEntity, "country", domain.NoID, "") {
		t.Error("missing malformed_entity warning for non-numeric key")
	}
}

func TestExtract_Leaders(t *testing.T) {
	snap := extractSample(t)

	if _, ok := snap.Leaders[12]; ok {
		t.Error("deleted leader slot was extracted")
	}
	want := &domain.Leader{
		ID:         10,
		Name:       "Jane Doe",
		Class:      "official",
		Subclass:   "subclass_official_delegate",
		Country:    domain.Ref{ID: 0, Resolved: true},
		Level:      3,
		Traits:     []string{"trait_adaptable_2", "trait_ruler_charismatic"},
		Species:    "Human",
		Assignment: domain.NoRef(),
	}
	if diff := cmp.Diff(want, snap.Leaders[10]); diff != "" {
		t.Errorf("leader 10 mismatch (-want +got):\n%s", diff)
	}

	kim := snap.Leaders[11]
	if kim.Name != "Admiral_Kim" {
		t.Errorf("leader 11 name = %q", kim.Name)
	}
	if kim.Assignment != (domain.Ref{ID: 50, Resolved: true}) {
		t.Errorf("leader 11 assignment = %+v, want fleet 50", kim.Assignment)
	}
}

func TestExtract_Galaxy(t *testing.T) {
	snap := extractSample(t)

	sol := snap.Systems[20]
	if sol.Name != "Sol" || sol.Owner != (domain.Ref{ID: 0, Resolved: true}) {
		t.Errorf("Sol = %+v", sol)
	}
	if !cmp.Equal(sol.Hyperlanes, []int64{21}) {
		t.Errorf("Sol hyperlanes = %v, want [21]", sol.Hyperlanes)
	}
	if sol.X != 10.5 || sol.Y != -3 {
		t.Errorf("Sol coordinate = %v,%v", sol.X, sol.Y)
	}
	// Owner found through the station ship's fleet.
	if alpha := snap.Systems[21]; alpha.Owner != (domain.Ref{ID: 0, Resolved: true}) {
		t.Errorf("Alpha owner = %+v, want 0", alpha.Owner)
	}

	earth := snap.Planets[100]
	if earth.System.ID != 20 || !earth.Colonized || earth.Districts != 3 {
		t.Errorf("Earth = %+v", earth)
	}
	if earth.Controller != earth.Owner {
		t.Errorf("Earth controller = %+v, want owner", earth.Controller)
	}
	if mars := snap.Planets[101]; mars.Colonized || mars.Owner.IsSet() {
		t.Errorf("Mars = %+v", mars)
	}
	if a1 := snap.Planets[102]; a1.System.ID != 21 || a1.Owner.ID != 1 || a1.Controller.ID != 0 {
		t.Errorf("Alpha I = %+v", a1)
	}
}

func TestExtract_Fleets(t *testing.T) {
	snap := extractSample(t)

	guard := snap.Fleets[50]
	want := &domain.Fleet{
		ID:            50,
		Name:          "Home Guard",
		Owner:         domain.Ref{ID: 0, Resolved: true},
		Commander:     domain.Ref{ID: 11, Resolved: true},
		System:        domain.Ref{ID: 20, Resolved: true},
		Ships:         1,
		MilitaryPower: 300,
	}
	if diff := cmp.Diff(want, guard); diff != "" {
		t.Errorf("fleet 50 mismatch (-want +got):\n%s", diff)
	}
	if st := snap.Fleets[51]; !st.Civilian || st.Owner.ID != 0 {
		t.Errorf("fleet 51 = %+v, want civilian owned by 0", st)
	}
	if lost := snap.Fleets[52]; lost.Commander.IsSet() || lost.Owner.Resolved {
		t.Errorf("fleet 52 = %+v", lost)
	}
	if !hasWarning(snap, domain.WarningUnresolvedReference, "fleet", 52, "owner") {
		t.Error("missing warning for fleet 52 owner")
	}
}

func TestExtract_Wars(t *testing.T) {
	snap := extractSample(t)

	w := snap.Wars[0]
	if w == nil {
		t.Fatal("war 0 missing")
	}
	if w.Name != "War of Words" || w.StartDate != domain.NewGameDate(2229, 1, 1) {
		t.Errorf("war = %q started %s", w.Name, w.StartDate)
	}
	if w.AttackerWarGoal != "wg_conquest" || w.DefenderWarGoal != "" {
		t.Errorf("war goals = %q/%q", w.AttackerWarGoal, w.DefenderWarGoal)
	}
	if w.AttackerExhaustion != 0.25 {
		t.Errorf("attacker exhaustion = %v", w.AttackerExhaustion)
	}
	wantAttackers := []domain.WarParticipant{{
		Country:  domain.Ref{ID: 0, Resolved: true},
		CallType: "primary",
		Caller:   domain.NoRef(),
	}}
	if diff := cmp.Diff(wantAttackers, w.Attackers); diff != "" {
		t.Errorf("attackers mismatch (-want +got):\n%s", diff)
	}

	// The zero-exhaustion space battle and the one without an outcome are
	// skipped; the ground battle is kept without exhaustion.
	if len(w.Battles) != 2 {
		t.Fatalf("battles = %+v, want 2", w.Battles)
	}
	if b := w.Battles[0]; b.Date != domain.NewGameDate(2229, 6, 1) || b.Undated || !b.AttackerVictory || b.Type != "ships" {
		t.Errorf("battle 0 = %+v", b)
	}
	if b := w.Battles[1]; !b.IsGround() || b.Date != snap.Date || !b.Undated || b.Planet.ID != 102 {
		t.Errorf("battle 1 = %+v", b)
	}
	if got := w.Participants(); !cmp.Equal(got, map[int64]bool{0: true, 1: false}) {
		t.Errorf("Participants() = %v", got)
	}
}

func TestExtract_Pops(t *testing.T) {
	snap := extractSample(t)

	want := map[int64]*domain.Pop{
		400: {ID: 400, Planet: domain.Ref{ID: 100, Resolved: true}, Species: "Human", Job: "clerk", Stratum: "worker", Size: 1},
		401: {ID: 401, Planet: domain.Ref{ID: 555}, Species: "9", Stratum: "ruler", Size: 1},
		500: {ID: 500, Planet: domain.Ref{ID: 102, Resolved: true}, Species: "Blorg", Stratum: "specialist", Size: 7},
	}
	if diff := cmp.Diff(want, snap.Pops); diff != "" {
		t.Errorf("pops mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_Player(t *testing.T) {
	tests := []struct {
		name    string
		players string
		opts    []Option
		want    domain.Ref
		warned  bool
	}{
		{"single player", `{ name="alice" country=1 }`, nil, domain.Ref{ID: 1, Resolved: true}, false},
		{"named player", `{ name="alice" country=0 } { name="bob" country=1 }`,
			[]Option{WithPlayerName("bob")}, domain.Ref{ID: 1, Resolved: true}, false},
		{"unknown name", `{ name="alice" country=0 } { name="bob" country=1 }`,
			[]Option{WithPlayerName("carol")}, domain.NoRef(), true},
		{"multiplayer without name", `{ name="alice" country=0 } { name="bob" country=1 }`,
			nil, domain.NoRef(), true},
		{"no players", ``, nil, domain.NoRef(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "player={ " + tt.players + " }\ncountry={ 0={ name=\"A\" } 1={ name=\"B\" } }"
			root, err := savefmt.Parse([]byte(src))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			snap, err := New(nil, tt.opts...).Extract("s", Metadata{}, root)
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if snap.PlayerCountry != tt.want {
				t.Errorf("PlayerCountry = %+v, want %+v", snap.PlayerCountry, tt.want)
			}
			if got := hasWarning(snap, domain.WarningUnresolvedReference, "player", domain.NoID, "name"); got != tt.warned {
				t.Errorf("player warning = %v, want %v", got, tt.warned)
			}
			if tt.want.IsSet() && !snap.Countries[tt.want.ID].IsPlayer {
				t.Error("player country not flagged")
			}
		})
	}
}

func TestExtract_EmptyAndInvalidRoot(t *testing.T) {
	snap, err := New(nil).Extract("s", Metadata{}, savefmt.MappingOf())
	if err != nil {
		t.Fatalf("Extract(empty) error: %v", err)
	}
	if len(snap.Countries) != 0 || len(snap.Warnings) != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}

	_, err = New(nil).Extract("s", Metadata{}, savefmt.IntValue(1))
	if domain.GetErrorCode(err) != domain.ErrInvalidArgument.Code {
		t.Errorf("Extract(int) error = %v, want %s", err, domain.ErrInvalidArgument.Code)
	}
}
