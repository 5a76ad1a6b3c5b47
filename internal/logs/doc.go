// Package logs reads the reelforge log file for `reelforge logs` and the
// daemon's /api/logs endpoint.
//
// Tail returns the last N lines or everything after a byte offset, with an
// optional substring filter and a bounded follow wait. Memory stays bounded by
// the requested line count; callers own cancellation through the context.
package logs
