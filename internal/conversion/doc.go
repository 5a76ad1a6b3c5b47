// Package conversion selects between stream copy and re-encode.
//
// A Plan is an explicit transition table over named states. The container
// plan tries a remux and falls back to exactly one re-encode; the clip plan
// tries a stream-copy cut, probes it, and re-encodes when the cut overshoots
// the limit by more than the tolerance. Every attempt and the visited state
// path are recorded in the Outcome so callers can report what happened even
// when the plan succeeds on a fallback.
package conversion
