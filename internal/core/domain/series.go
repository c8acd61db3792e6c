package domain

import "fmt"

// GalaxySubject is the subject ID of galaxy-wide series rows.
const GalaxySubject int64 = 0

// SeriesRow is one time series point: named metrics of one subject at one
// date.
type SeriesRow struct {
	SessionID   string             `json:"session_id"`
	Date        GameDate           `json:"date"`
	Category    Category           `json:"category"`
	SubjectID   int64              `json:"subject_id"`
	Metrics     map[string]float64 `json:"metrics"`
	Approximate bool               `json:"approximate,omitempty"`
}

// Key identifies the row within a session.
func (r *SeriesRow) Key() string {
	return fmt.Sprintf("%s/%d/%d", r.Category, r.SubjectID, r.Date)
}

// Commit is the unit of atomic persistence: one snapshot with the events
// and series rows derived from it.
type Commit struct {
	SessionID string         `json:"session_id"`
	Date      GameDate       `json:"date"`
	Snapshot  *Snapshot      `json:"snapshot"`
	Events    []HistoryEvent `json:"events"`
	Series    []SeriesRow    `json:"series"`
}

// SessionInfo summarizes a stored session.
type SessionInfo struct {
	ID       string   `json:"id"`
	GameName string   `json:"game_name,omitempty"`
	LastDate GameDate `json:"last_date"`
	Commits  int      `json:"commits"`
}
