// Package main hosts the Anuvadika CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into pipeline runs and
// read-only views over run history, the artifact library and the supported
// language list. It centralizes configuration resolution, logger setup and
// run-store access so subcommands can focus on presentation.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through a command or flag here.
package main
