package domain

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Category groups events and series rows by the entity kind they describe.
type Category string

// Categories.
const (
	CategoryCountry      Category = "country"
	CategorySystem       Category = "system"
	CategoryPlanet       Category = "planet"
	CategoryFleet        Category = "fleet"
	CategoryLeader       Category = "leader"
	CategoryWar          Category = "war"
	CategoryPop          Category = "pop"
	CategoryEconomy      Category = "economy"
	CategoryDemographics Category = "demographics"
	CategoryMilitary     Category = "military"
	CategoryGalaxy       Category = "galaxy"
)

// EventType names a kind of history event.
type EventType string

// Event types.
const (
	EventCountryCreated    EventType = "country_created"
	EventCountryRemoved    EventType = "country_removed"
	EventCountryRenamed    EventType = "country_renamed"
	EventGovernmentReform  EventType = "government_reform"
	EventRulerChanged      EventType = "ruler_changed"
	EventCapitalRelocated  EventType = "capital_relocated"
	EventTraditionAdopted  EventType = "tradition_adopted"
	EventAscensionPerk     EventType = "ascension_perk_adopted"
	EventSystemCreated     EventType = "system_created"
	EventSystemRemoved     EventType = "system_removed"
	EventSystemOwnerChange EventType = "system_owner_changed"
	EventPlanetCreated     EventType = "planet_created"
	EventPlanetRemoved     EventType = "planet_removed"
	EventPlanetColonized   EventType = "planet_colonized"
	EventPlanetOwnerChange EventType = "planet_owner_changed"
	EventPlanetTerraformed EventType = "planet_terraformed"
	EventFleetCreated      EventType = "fleet_created"
	EventFleetRemoved      EventType = "fleet_removed"
	EventFleetOwnerChange  EventType = "fleet_owner_changed"
	EventFleetCommander    EventType = "fleet_commander_changed"
	EventLeaderCreated     EventType = "leader_created"
	EventLeaderRemoved     EventType = "leader_removed"
	EventLeaderLevelUp     EventType = "leader_level_up"
	EventLeaderReassigned  EventType = "leader_reassigned"
	EventLeaderTraitGained EventType = "leader_trait_gained"
	EventLeaderTraitLost   EventType = "leader_trait_lost"
	EventWarStarted        EventType = "war_started"
	EventWarJoined         EventType = "war_joined"
	EventBattle            EventType = "battle"
	EventInvasion          EventType = "invasion"
	EventWarConcluded      EventType = "war_concluded"
	EventPopCreated        EventType = "pop_created"
	EventPopRemoved        EventType = "pop_removed"
)

// PayloadRecyclable is set on retirement events. The engine may reuse an
// ID after the entity disappears, so absence is not proof of destruction.
const PayloadRecyclable = "id_may_be_recycled"

// HistoryEvent is one discrete change in a session's history.
type HistoryEvent struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Type       EventType      `json:"type"`
	Category   Category       `json:"category"`
	Date       GameDate       `json:"date"`
	SubjectIDs []int64        `json:"subject_ids"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// DedupKey identifies structurally identical events: same type, subjects,
// date and payload. Payload maps are encoded with sorted keys.
func (e *HistoryEvent) DedupKey() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteByte('|')
	for i, id := range e.SubjectIDs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(int(e.Date)))
	if len(e.Payload) > 0 {
		b.WriteByte('|')
		if raw, err := json.Marshal(e.Payload); err == nil {
			b.Write(raw)
		}
	}
	return b.String()
}

// Fingerprint is a murmur3 hash of DedupKey, used as the storage key
// suffix for idempotent appends.
func (e *HistoryEvent) Fingerprint() uint64 {
	return murmur3.Sum64([]byte(e.DedupKey()))
}

// HasSubject reports whether id is among the event's subjects.
func (e *HistoryEvent) HasSubject(id int64) bool {
	return slices.Contains(e.SubjectIDs, id)
}

// EventFilter selects events when reading history back.
type EventFilter struct {
	Types   []EventType
	From    GameDate
	To      GameDate // inclusive; zero means no upper bound
	Subject *int64
	Limit   int
}

// Match reports whether e passes the filter (ignoring Limit).
func (f EventFilter) Match(e *HistoryEvent) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if e.Date < f.From {
		return false
	}
	if f.To != 0 && e.Date > f.To {
		return false
	}
	if f.Subject != nil && !e.HasSubject(*f.Subject) {
		return false
	}
	return true
}
