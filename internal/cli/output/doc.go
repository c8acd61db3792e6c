// Package output renders command results for the starledger CLI.
//
// Results are rendered as an aligned table, JSON or YAML. Tables are
// derived from struct fields, using json tag names as headers; fields
// tagged table:"wide" appear only in wide mode. Spinner and ProgressBar
// report long operations on the error stream.
package output
