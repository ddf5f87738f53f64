// Package main hosts the retitle CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// catalog matching, batch reconciliation, reprocessing runs, and
// configuration scaffolding. It centralizes configuration resolution,
// logging setup, and the single-writer run lock so subcommands can focus
// on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags
// here.
package main
