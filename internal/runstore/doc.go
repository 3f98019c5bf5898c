// Package runstore persists pipeline run history in SQLite.
//
// Each run is one row in the runs table, created when the pipeline starts
// and updated on every stage transition so `anuvadika runs` can show what
// happened even after a crash. The database runs in WAL mode and write
// statements retry briefly on SQLITE_BUSY, since the CLI and a running
// pipeline may touch it at the same time.
//
// The schema is versioned; a mismatched database must be deleted.
package runstore
