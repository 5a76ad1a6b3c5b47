// Package logging assembles the slog loggers used across reelforge.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with the pipeline operation, its run
// identifier, and the HTTP request correlation id. NewNop provides a logger
// for tests and wiring code that cannot fail.
package logging
