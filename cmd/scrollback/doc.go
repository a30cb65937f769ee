// Package main hosts the scrollback CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the transcript stages (extract, dedupe,
// refine, or all three with run), post-processes finished transcripts
// (split, review), and manages the checkpoint store and configuration. It
// centralizes configuration resolution, logger construction and metrics
// setup so subcommands can focus on flags and output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
