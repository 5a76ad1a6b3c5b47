// Package history persists pipeline operation results in SQLite.
//
// Each operation run appends one row keyed by its uuid. The store is opened
// in WAL mode with a busy timeout, and writes retry briefly on SQLITE_BUSY so
// the CLI and a running `reelforge serve` can share one database.
package history
