// Package ingest turns save archives into ledger commits.
//
// Discover finds save files below the save directory, grouped into
// sessions by parent directory. The Monitor orders each session's files
// by the date in their metadata member, parses them on a bounded worker
// pool, and feeds the results through a per-session reorder buffer to a
// single committer, so that commits follow date order whatever order the
// workers finish in. Run keeps watching the save directory; Reparse
// processes everything once.
package ingest
