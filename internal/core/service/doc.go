// Package service holds the commit ledger of the history pipeline.
//
// Ledger serializes commits per session: it loads the last committed
// snapshot, rejects snapshots that are not newer, runs the diff engine
// and writes the result through a HistoryStore in one atomic commit.
package service
