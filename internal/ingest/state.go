package ingest

// SessionState is the ingestion phase of one session.
type SessionState uint8

// Session states. A session cycles Idle → Scanning → Dispatching →
// Committing → Idle on every pass that finds new files.
const (
	StateIdle SessionState = iota
	StateScanning
	StateDispatching
	StateCommitting
)

var stateNames = []string{"idle", "scanning", "dispatching", "committing"}

func (s SessionState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
