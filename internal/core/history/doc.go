// Package history derives the persisted history of a session from two
// successive snapshots.
//
// Engine.Diff compares a previous and a current snapshot and returns the
// discrete events that explain the difference together with the time
// series rows of the current snapshot. It is a pure function of its
// inputs apart from event IDs, which are fresh ULIDs.
//
// Entities are matched by ID. The engine reuses IDs of removed entities,
// so every *_removed and war_concluded event carries the
// domain.PayloadRecyclable flag.
package history
