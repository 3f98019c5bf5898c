// Package logging assembles structured slog loggers and formatting helpers used
// across Anuvadika.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so stage code automatically tags log lines with
// run IDs and stage names. A per-run JSON log can be teed alongside the main
// logger, and the progress sampler keeps chatty download/inference progress out
// of the logs. NewNop serves tests and wiring code that cannot fail.
package logging
