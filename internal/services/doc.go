// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - The error taxonomy (source, decode, inference, format, mux, packaging,
//     language, reload) plus the Wrap helper that tags every external failure
//     with exactly one marker.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
