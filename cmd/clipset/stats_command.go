package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"clipset/internal/config"
	"clipset/internal/dataset"
	"clipset/internal/manifest"
)

// splitStats is the on-disk state of one split directory.
type splitStats struct {
	Name     string
	Dir      string
	Exists   bool
	PerClass map[string]int
	Files    int
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var plotPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-split class counts and download status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := manifest.Open(cfg)
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer store.Close()

			stats, err := collectSplitStats(cfg)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				status, recorded, seed := "-", "-", "-"
				truncated := false
				rec, err := store.LatestDownload(cmd.Context(), s.Name)
				if err != nil {
					return err
				}
				if rec != nil {
					status = string(rec.Status)
					recorded = fmt.Sprintf("%d/%d", rec.Downloaded, rec.Planned)
					truncated = rec.Truncated()
					run, err := store.GetRun(cmd.Context(), rec.RunID)
					if err != nil {
						return err
					}
					if run != nil {
						seed = strconv.FormatInt(run.Seed, 10)
					}
				}
				rows = append(rows, []string{
					s.Name,
					yesNo(s.Exists),
					strconv.Itoa(len(s.PerClass)),
					strconv.Itoa(s.Files),
					recorded,
					status,
					yesNo(truncated),
					seed,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Split", "Exists", "Classes", "Files", "Downloaded", "Status", "Truncated", "Seed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignRight},
				nil,
			))

			if plotPath != "" {
				if err := writeClassPlot(plotPath, stats); err != nil {
					return fmt.Errorf("write plot: %w", err)
				}
				fmt.Fprintf(out, "Wrote class distribution plot to %s\n", plotPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&plotPath, "plot", "", "Write a PNG bar chart of files per class to this path")
	return cmd
}

func collectSplitStats(cfg *config.Config) ([]splitStats, error) {
	stats := make([]splitStats, 0, len(cfg.Dataset.Splits))
	for _, split := range cfg.Dataset.Splits {
		s := splitStats{Name: split.Name, Dir: cfg.SplitDir(split.Name), PerClass: map[string]int{}}
		if info, err := os.Stat(s.Dir); err == nil && info.IsDir() {
			s.Exists = true
			classes, err := dataset.ScanClassNames(s.Dir)
			if err != nil {
				return nil, err
			}
			for _, class := range classes {
				s.PerClass[class] = 0
			}
			files, err := dataset.Descriptor{Dir: s.Dir, Ext: cfg.Archive.Extension}.Files()
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				s.PerClass[filepath.Base(filepath.Dir(f))]++
			}
			s.Files = len(files)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// classUnion returns every class seen in any split, sorted.
func classUnion(stats []splitStats) []string {
	var names []string
	for _, s := range stats {
		for class := range s.PerClass {
			names = append(names, class)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
