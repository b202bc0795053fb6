package preflight

import (
	"fmt"
	"strings"

	"jukebox/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to cfg. The clips and input device
// checks only run when those features are configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Albums directory", cfg.Paths.AlbumsDir))
	if cfg.Paths.ClipsDir != "" {
		results = append(results, CheckDirectoryReadable("Clips directory", cfg.Paths.ClipsDir))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	for _, dep := range CheckSystemDeps(cfg) {
		r := Result{Name: dep.Name, Passed: dep.Available, Detail: dep.Detail}
		if dep.Available {
			r.Detail = dep.Command
		}
		results = append(results, r)
	}

	if cfg.Frontend.Evdev {
		results = append(results, ProbeInputDevice(cfg.Frontend.DeviceName).Result())
	}
	return results
}

// Failed filters results down to failed checks.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Error joins failed checks into one error, or returns nil when all passed.
func Error(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}
