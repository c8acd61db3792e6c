package domain

import (
	"fmt"
	"maps"
	"slices"
)

// EngineNullID is the engine's "no reference" sentinel (uint32 max).
const EngineNullID int64 = 4294967295

// NoID marks an absent reference.
const NoID int64 = -1

// IsNullID reports whether id denotes "no reference".
func IsNullID(id int64) bool {
	return id < 0 || id == EngineNullID
}

// Ref is a cross reference to another entity of the same snapshot.
//
// A Ref that names an ID the snapshot does not contain keeps the raw ID
// with Resolved=false.
type Ref struct {
	ID       int64 `json:"id"`
	Resolved bool  `json:"resolved,omitempty"`
}

// NoRef returns the absent reference.
func NoRef() Ref { return Ref{ID: NoID} }

// IsSet reports whether the reference points anywhere.
func (r Ref) IsSet() bool { return !IsNullID(r.ID) }

func (r Ref) String() string {
	switch {
	case !r.IsSet():
		return "none"
	case r.Resolved:
		return fmt.Sprintf("%d", r.ID)
	default:
		return fmt.Sprintf("%d?", r.ID)
	}
}

// NameRef is a templated engine name. Literal names carry their text in Key.
type NameRef struct {
	Key       string         `json:"key"`
	Literal   bool           `json:"literal,omitempty"`
	Variables []NameVariable `json:"variables,omitempty"`
}

// NameVariable is one substitution of a templated name.
type NameVariable struct {
	Key   string  `json:"key"`
	Value NameRef `json:"value"`
}

// Economy is the approximate budget of a country for the current month.
// Values are per resource.
type Economy struct {
	Net      map[string]float64 `json:"net,omitempty"`
	Income   map[string]float64 `json:"income,omitempty"`
	Expenses map[string]float64 `json:"expenses,omitempty"`
}

// Country is an empire or other political entity.
type Country struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	IsPlayer       bool     `json:"is_player,omitempty"`
	Government     string   `json:"government,omitempty"`
	Authority      string   `json:"authority,omitempty"`
	Civics         []string `json:"civics,omitempty"`
	Ethics         []string `json:"ethics,omitempty"`
	Traditions     []string `json:"traditions,omitempty"`
	AscensionPerks []string `json:"ascension_perks,omitempty"`
	FlagColors     []string `json:"flag_colors,omitempty"`
	Ruler          Ref      `json:"ruler"`
	Capital        Ref      `json:"capital"`
	TechCount      int      `json:"tech_count,omitempty"`
	MilitaryPower  float64  `json:"military_power,omitempty"`
	EconomyPower   float64  `json:"economy_power,omitempty"`
	TechPower      float64  `json:"tech_power,omitempty"`
	Economy        Economy  `json:"economy"`
}

// System is a star system.
type System struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	StarClass  string  `json:"star_class,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Owner      Ref     `json:"owner"`
	Planets    []int64 `json:"planets,omitempty"`
	Hyperlanes []int64 `json:"hyperlanes,omitempty"`
}

// Planet is a planet or other colonizable body.
type Planet struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Class        string   `json:"class,omitempty"`
	System       Ref      `json:"system"`
	Owner        Ref      `json:"owner"`
	Controller   Ref      `json:"controller"`
	ColonizeDate GameDate `json:"colonize_date,omitempty"`
	Colonized    bool     `json:"colonized,omitempty"`
	Districts    int      `json:"districts,omitempty"`
	Buildings    int      `json:"buildings,omitempty"`
}

// Fleet is a group of ships.
type Fleet struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Owner         Ref     `json:"owner"`
	Commander     Ref     `json:"commander"`
	System        Ref     `json:"system"`
	Ships         int     `json:"ships"`
	MilitaryPower float64 `json:"military_power,omitempty"`
	Civilian      bool    `json:"civilian,omitempty"`
}

// Leader is a ruler, governor, admiral, general or scientist.
type Leader struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Class    string   `json:"class,omitempty"`
	Subclass string   `json:"subclass,omitempty"`
	Country  Ref      `json:"country"`
	Level    int      `json:"level"`
	Traits   []string `json:"traits,omitempty"`
	Species  string   `json:"species,omitempty"`
	Gender   string   `json:"gender,omitempty"`
	// Assignment is the fleet the leader commands, if any.
	Assignment Ref `json:"assignment"`
}

// WarParticipant is one country on a side of a war.
type WarParticipant struct {
	Country  Ref    `json:"country"`
	CallType string `json:"call_type,omitempty"`
	Caller   Ref    `json:"caller"`
}

// Battle is one combat recorded in a war.
type Battle struct {
	Date               GameDate `json:"date"`
	System             Ref      `json:"system"`
	Planet             Ref      `json:"planet"`
	Type               string   `json:"type,omitempty"`
	AttackerVictory    bool     `json:"attacker_victory"`
	AttackerExhaustion float64  `json:"attacker_exhaustion,omitempty"`
	DefenderExhaustion float64  `json:"defender_exhaustion,omitempty"`
	Attackers          []int64  `json:"attackers,omitempty"`
	Defenders          []int64  `json:"defenders,omitempty"`
	// Undated is set when the save gave no date and Date is the date of
	// the save the battle was read from.
	Undated bool `json:"undated,omitempty"`
}

// BattleTypeArmies is the engine's combat type for ground invasions.
const BattleTypeArmies = "armies"

// IsGround reports whether the battle was fought by armies.
func (b Battle) IsGround() bool { return b.Type == BattleTypeArmies }

// Key identifies a battle across saves; the same battle reappears in every
// later save of an ongoing war. The date of an undated battle changes from
// save to save and is left out.
func (b Battle) Key() string {
	date := "undated"
	if !b.Undated {
		date = b.Date.String()
	}
	return fmt.Sprintf("%s|%d|%d|%s|%t|%g|%g",
		date, b.System.ID, b.Planet.ID, b.Type, b.AttackerVictory, b.AttackerExhaustion, b.DefenderExhaustion)
}

// War is an ongoing war. Concluded wars are absent from the save.
type War struct {
	ID                 int64            `json:"id"`
	Name               string           `json:"name"`
	StartDate          GameDate         `json:"start_date"`
	Attackers          []WarParticipant `json:"attackers,omitempty"`
	Defenders          []WarParticipant `json:"defenders,omitempty"`
	AttackerWarGoal    string           `json:"attacker_war_goal,omitempty"`
	DefenderWarGoal    string           `json:"defender_war_goal,omitempty"`
	AttackerExhaustion float64          `json:"attacker_exhaustion"`
	DefenderExhaustion float64          `json:"defender_exhaustion"`
	Battles            []Battle         `json:"battles,omitempty"`
}

// Participants returns every participant with its side.
func (w *War) Participants() map[int64]bool {
	out := make(map[int64]bool, len(w.Attackers)+len(w.Defenders))
	for _, p := range w.Attackers {
		out[p.Country.ID] = true
	}
	for _, p := range w.Defenders {
		out[p.Country.ID] = false
	}
	return out
}

// Pop is a population unit or, in newer saves, a pop group of Size pops.
type Pop struct {
	ID      int64  `json:"id"`
	Planet  Ref    `json:"planet"`
	Species string `json:"species,omitempty"`
	Job     string `json:"job,omitempty"`
	Stratum string `json:"stratum,omitempty"`
	Size    int    `json:"size"`
}

// WarningKind classifies an extraction warning.
type WarningKind string

// Extraction warning kinds.
const (
	WarningUnresolvedReference WarningKind = "unresolved_reference"
	WarningMalformedEntity     WarningKind = "malformed_entity"
	WarningUnresolvedName      WarningKind = "unresolved_name"
)

// ExtractionWarning records a non-fatal extraction problem.
type ExtractionWarning struct {
	Kind   WarningKind `json:"kind"`
	Entity string      `json:"entity"`
	ID     int64       `json:"id"`
	Field  string      `json:"field,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

// Err returns the warning as an SL-EXTR DomainError, for logging.
func (w ExtractionWarning) Err() *DomainError {
	return ErrExtraction.WithDetailsf("%s %s %d %s %s", w.Kind, w.Entity, w.ID, w.Field, w.Detail)
}

// Snapshot is the typed state of one save file. It is not modified after
// extraction.
type Snapshot struct {
	SessionID     string              `json:"session_id"`
	Date          GameDate            `json:"date"`
	GameName      string              `json:"game_name,omitempty"`
	Version       string              `json:"version,omitempty"`
	PlayerCountry Ref                 `json:"player_country"`
	Countries     map[int64]*Country  `json:"countries"`
	Systems       map[int64]*System   `json:"systems"`
	Planets       map[int64]*Planet   `json:"planets"`
	Fleets        map[int64]*Fleet    `json:"fleets"`
	Wars          map[int64]*War      `json:"wars"`
	Leaders       map[int64]*Leader   `json:"leaders"`
	Pops          map[int64]*Pop      `json:"pops"`
	Warnings      []ExtractionWarning `json:"warnings,omitempty"`
}

// NewSnapshot returns a snapshot with empty collections.
func NewSnapshot(sessionID string, date GameDate) *Snapshot {
	return &Snapshot{
		SessionID:     sessionID,
		Date:          date,
		PlayerCountry: NoRef(),
		Countries:     make(map[int64]*Country),
		Systems:       make(map[int64]*System),
		Planets:       make(map[int64]*Planet),
		Fleets:        make(map[int64]*Fleet),
		Wars:          make(map[int64]*War),
		Leaders:       make(map[int64]*Leader),
		Pops:          make(map[int64]*Pop),
	}
}

// SortedIDs returns the keys of m in ascending order.
func SortedIDs[T any](m map[int64]T) []int64 {
	return slices.Sorted(maps.Keys(m))
}
