package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipset/internal/dataset"
	"clipset/internal/fetch"
	"clipset/internal/manifest"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var urlFlag string
	var numClasses int
	var seed int64
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Download a class-balanced subset into split directories",
		Long: "Download a class-balanced subset of the archive into one directory per split.\n" +
			"Splits whose directory already exists are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if v := strings.TrimSpace(urlFlag); v != "" {
				cfg.Archive.URL = v
			}
			if err := cfg.ValidateArchiveURL(); err != nil {
				return err
			}

			req := fetch.RequestFromConfig(cfg)
			if cmd.Flags().Changed("num-classes") {
				req.NumClasses = numClasses
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = seed
			}

			store, err := manifest.Open(cfg)
			if err != nil {
				return fmt.Errorf("open manifest: %w", err)
			}
			defer store.Close()

			var progress io.Writer
			if !noProgress && isTerminal(cmd.ErrOrStderr()) {
				progress = cmd.ErrOrStderr()
			}
			dirs, err := fetch.NewBuilder(cfg, store, logger, fetch.WithBuildProgress(progress)).Build(cmd.Context(), req)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(req.Splits))
			for _, split := range req.Splits {
				dir := dirs[split.Name]
				rows = append(rows, []string{split.Name, strconv.Itoa(countFiles(dir, cfg.Archive.Extension)), dir})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Split", "Files", "Directory"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "Archive URL (overrides archive.url)")
	cmd.Flags().IntVar(&numClasses, "num-classes", 0, "Number of classes to keep (overrides dataset.num_classes)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Shuffle seed (overrides dataset.seed)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// countFiles counts the videos a dataset generator would see in dir.
func countFiles(dir, ext string) int {
	files, err := dataset.Descriptor{Dir: dir, Ext: ext}.Files()
	if err != nil {
		return 0
	}
	return len(files)
}
