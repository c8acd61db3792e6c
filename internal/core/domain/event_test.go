package domain

import "testing"

func TestHistoryEvent_DedupKey(t *testing.T) {
	base := HistoryEvent{
		ID:         "01HX",
		Type:       EventLeaderTraitGained,
		Date:       NewGameDate(2230, 1, 1),
		SubjectIDs: []int64{7, 3},
		Payload:    map[string]any{"trait": "leader_trait_resilient", "level": 2},
	}
	same := base
	same.ID = "01HY"
	same.Payload = map[string]any{"level": 2, "trait": "leader_trait_resilient"}

	otherTrait := base
	otherTrait.Payload = map[string]any{"trait": "leader_trait_cautious", "level": 2}

	otherDate := base
	otherDate.Date++

	if base.DedupKey() != same.DedupKey() || base.Fingerprint() != same.Fingerprint() {
		t.Error("identical events with different IDs should share a key")
	}
	if base.Fingerprint() == otherTrait.Fingerprint() {
		t.Error("different payloads should not share a fingerprint")
	}
	if base.Fingerprint() == otherDate.Fingerprint() {
		t.Error("different dates should not share a fingerprint")
	}
}

func TestEventFilter_Match(t *testing.T) {
	ev := &HistoryEvent{Type: EventWarStarted, Date: NewGameDate(2240, 6, 1), SubjectIDs: []int64{4, 1, 2}}
	subject := int64(2)
	missing := int64(9)

	tests := []struct {
		name   string
		filter EventFilter
		want   bool
	}{
		{"empty filter", EventFilter{}, true},
		{"type match", EventFilter{Types: []EventType{EventBattle, EventWarStarted}}, true},
		{"type mismatch", EventFilter{Types: []EventType{EventBattle}}, false},
		{"in range", EventFilter{From: NewGameDate(2240, 1, 1), To: NewGameDate(2240, 6, 1)}, true},
		{"before range", EventFilter{From: NewGameDate(2240, 6, 2)}, false},
		{"after range", EventFilter{To: NewGameDate(2240, 5, 30)}, false},
		{"subject match", EventFilter{Subject: &subject}, true},
		{"subject mismatch", EventFilter{Subject: &missing}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(ev); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
