// Package command provides the starledger command line.
//
// This package defines all commands using urfave/cli/v2:
//
//   - root.go: App, global flags, configuration loading
//   - env.go: lazily opened store, ledger and monitor
//   - monitor.go: continuous ingestion
//   - reparse.go: bulk ingestion of existing saves
//   - history.go: sessions, events and series queries
//   - store.go: store statistics, GC, backup and restore
//   - config.go: effective configuration
//   - version.go: build information
//
// Commands parse their flags, call into the ledger or the store, and
// format the result with internal/cli/output.
package command
