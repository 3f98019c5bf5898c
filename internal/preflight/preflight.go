package preflight

import (
	"context"

	"github.com/YatinSharma37/Anuvadika/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Inference.HostExclusive {
		results = append(results, CheckInferenceLock(cfg.InferenceLockPath()))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		if status.Optional {
			continue
		}
		r := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if r.Passed {
			r.Detail = status.Path
		}
		results = append(results, r)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
