package preflight

import (
	"context"

	"clipset/internal/config"
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

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckWritableAncestor("Download directory", cfg.Paths.DownloadDir),
	}

	// The archive URL is optional until a build or index runs.
	if cfg.Archive.URL != "" {
		results = append(results, CheckArchive(ctx, cfg.Archive.URL, cfg.RequestTimeout()))
	}

	return results
}
