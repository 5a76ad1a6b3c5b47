// Package preflight provides readiness checks for the tools and directories
// reelforge depends on.
//
// The daemon runs RunAll at startup and logs failures. `reelforge status`
// renders the same results alongside the dependency table.
package preflight
