// Package main hosts the reelforge CLI entrypoint and command graph.
//
// The Cobra-based command tree runs pipeline operations directly against the
// configured working directory, inspects the operation history, reports
// dependency and directory health, and starts the HTTP daemon. It centralizes
// configuration resolution and logger setup so subcommands can focus on
// rendering results.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
