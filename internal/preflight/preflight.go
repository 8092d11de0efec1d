package preflight

import (
	"context"

	"github.com/milam/VodParser/internal/config"
	"github.com/milam/VodParser/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckTemplates(cfg.Paths.TemplatesDir))
	for _, status := range deps.CheckBinaries(ctx, deps.MediaRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary())) {
		results = append(results, FromDependency(status))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
