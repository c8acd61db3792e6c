// Package domain defines the data model of save history: in-game dates,
// typed snapshots with their entity records, history events, time series
// rows, commits and the error taxonomy.
//
// Domain types are plain values without IO dependencies.
package domain
