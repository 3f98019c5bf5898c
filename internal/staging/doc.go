// Package staging reclaims per-run scratch directories left under the
// staging root by crashed or interrupted runs.
//
// Scratch directories are named by run id. Directories belonging to runs that
// are still active are never touched.
package staging
