// Package preflight provides readiness checks for the external tools and
// filesystem paths the pipeline depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before starting a pipeline so a missing
//     directory or a held inference lock fails fast instead of mid-run.
//   - The check command reports every result, including tool versions.
package preflight
