package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipset/internal/config"
	"clipset/internal/deps"
	"clipset/internal/manifest"
	"clipset/internal/preflight"
)

// recentBuilds caps the Builds section of the status report.
const recentBuilds = 5

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check external tools, directories, archive access and recent builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			report := newStatusReport(isTerminal(out))

			report.section("Dependencies")
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			for _, s := range statuses {
				detail := s.Detail
				if s.Available {
					detail = fmt.Sprintf("%s (version %s)", s.Path, s.Version)
				}
				report.add(s.Name, checkKind(s.Available), detail)
			}

			report.section("Environment")
			failed := 0
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				if !r.Passed {
					failed++
				}
				report.add(r.Name, checkKind(r.Passed), r.Detail)
			}
			if cfg.Archive.URL == "" {
				report.add("Archive", statusInfo, "archive.url not configured")
			}

			report.section("Builds")
			if err := addRecentBuilds(cmd.Context(), cfg, report); err != nil {
				return err
			}

			if err := report.write(out); err != nil {
				return err
			}
			if missing := deps.Missing(statuses); len(missing) > 0 || failed > 0 {
				fmt.Fprintf(out, "\n%d missing dependencies, %d failed checks\n", len(missing), failed)
			}
			return nil
		},
	}
}

// addRecentBuilds lists the latest runs from the manifest without creating
// one when no build has happened yet.
func addRecentBuilds(ctx context.Context, cfg *config.Config, report *statusReport) error {
	if !manifest.Exists(cfg) {
		report.add("Manifest", statusInfo, "no builds recorded")
		return nil
	}
	store, err := manifest.Open(cfg)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, recentBuilds)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		report.add("Manifest", statusInfo, "no builds recorded")
		return nil
	}
	for _, run := range runs {
		detail := fmt.Sprintf("%s, seed %d, %d classes, started %s",
			run.Status, run.Seed, run.NumClasses, humanize.Time(run.StartedAt))
		if run.ErrorMessage != "" {
			detail += ": " + run.ErrorMessage
		}
		report.add(shortRunID(run.ID), runKind(run.Status), detail)
	}
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
