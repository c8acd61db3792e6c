// Package extract turns a parsed save document into a typed
// domain.Snapshot.
//
// The Extractor reads a fixed set of top-level keys (country,
// galactic_object, planets, fleet, ships, starbase_mgr, leaders, war, pop,
// pop_groups, species_db, player) and ignores everything else. Numeric
// cross references are resolved against the same snapshot; references to
// IDs the snapshot does not contain keep the raw ID and are recorded as
// extraction warnings. Malformed entries are skipped with a warning.
//
// Display names go through a NameResolver. A name that cannot be resolved
// falls back to its raw key.
package extract
