// Package storage persists session histories.
//
// BadgerEngine is a transactional key-value engine on Badger v3.
// HistoryStore lays session heads, last snapshots, events and series
// rows out over it (see keys.go) and writes every commit in a single
// transaction.
package storage
