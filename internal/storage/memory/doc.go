// Package memory provides an in-memory HistoryStore with the same
// semantics as the Badger-backed store.
package memory
