// Package pipeline sequences the working-directory operations: concatenate
// raw segments, convert the container, cut platform clips, and transcribe.
//
// Every operation returns a populated Result even when it fails, so callers
// can render the same payload for success, no-action, and failure. Mutating
// operations hold a directory-scoped lock for their whole duration; listing
// does not. Preconditions (missing inputs, unknown platforms, too few
// segments) are checked before any subprocess starts.
//
// Each run logs start and finish under a fresh operation id, feeds the
// Prometheus collectors in internal/metrics, and is appended to the history
// store when one is configured.
package pipeline
