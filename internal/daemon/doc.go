// Package daemon coordinates the long-running `reelforge serve` process.
//
// It wires configuration, the pipeline controller, and the operation history
// into a single lifecycle with flock-based locking to prevent multiple
// instances per state directory. On start it logs failed preflight and
// dependency checks, sweeps stale scratch artifacts from the working
// directory, and serves the HTTP API until its context is cancelled.
//
// Keep orchestration logic here: pipeline semantics live in the pipeline
// package and request handling in api.
package daemon
