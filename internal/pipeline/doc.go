// Package pipeline orchestrates one subtitle run from source to archive.
//
// A run executes six blocking stages in order: acquire, extract, infer,
// format, mux and package. Each stage gets its own timeout from the
// workflow config, and the first failure aborts the rest. Failures are
// returned as *StageError so callers can see which stage broke while
// errors.Is still matches the taxonomy marker inside.
//
// When burn-in fails the transcripts are still written to the library and
// returned in Result.Partial; the run itself is reported failed.
//
// Every run owns a scratch directory under the staging dir keyed by its
// run id, so concurrent runs never share files. The only shared state is
// the model cache, which hands out leases for the duration of inference.
//
// Start runs the pipeline on a goroutine and streams Events. The event
// queue never blocks the pipeline: progress updates are dropped when the
// consumer falls behind, lifecycle events never are.
package pipeline
