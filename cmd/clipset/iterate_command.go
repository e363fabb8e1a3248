package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"clipset/internal/dataset"
	"clipset/internal/video"
)

func newIterateCommand(ctx *commandContext) *cobra.Command {
	var flags samplerFlags
	var training bool
	var limit int
	var classesFrom string
	var batches bool
	var prefetch int

	cmd := &cobra.Command{
		Use:   "iterate <split>",
		Short: "Walk a split generator and print labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			classes, err := dataset.ClassIndexFromDir(cfg.SplitDir(classesFrom))
			if err != nil {
				return fmt.Errorf("class index from %s split: %w", classesFrom, err)
			}
			rng := flags.random(cmd)
			desc := dataset.Descriptor{
				Dir:            cfg.SplitDir(args[0]),
				Ext:            cfg.Archive.Extension,
				Options:        flags.options(cmd, cfg),
				Training:       training,
				Classes:        classes,
				Sampler:        video.NewSampler(newDecoder(cfg, logger), video.WithRand(rng), video.WithLogger(logger)),
				Rand:           rng,
				SkipUnreadable: cfg.Sampler.SkipUnreadable,
				Logger:         logger,
			}

			out := cmd.OutOrStdout()
			if batches {
				return printBatches(cmd, args[0], desc, cfg.Sampler.BatchSize, prefetch, out)
			}

			it, err := desc.Open(cmd.Context())
			if err != nil {
				return err
			}
			var src dataset.Source = it
			skipped := it.Skipped
			if prefetch > 0 {
				// The worker owns it from here on; skips are read back
				// through the prefetcher.
				p := dataset.Prefetch(cmd.Context(), it, prefetch)
				defer p.Close()
				src = p
				skipped = p.Skipped
			}

			var rows [][]string
			for limit <= 0 || len(rows) < limit {
				sample, err := src.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					strconv.Itoa(len(rows) + 1),
					sample.Class,
					strconv.Itoa(sample.Label),
					strconv.Itoa(sample.Frames.Start),
					strconv.Itoa(sample.Frames.Padded),
					sample.Path,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Class", "Label", "Start", "Padded", "Path"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				nil,
			))
			fmt.Fprintf(out, "%d samples, %d classes, skipped %d unreadable\n", len(rows), classes.Len(), skipped())
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&training, "training", false, "Shuffle the file order like a training pass")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many samples (0 for all)")
	cmd.Flags().StringVar(&classesFrom, "classes-from", "train", "Split whose class directories define label ids")
	cmd.Flags().BoolVar(&batches, "batches", false, "Print gomlx batch shapes instead of samples")
	cmd.Flags().IntVar(&prefetch, "prefetch", 0, "Samples to decode ahead on a worker goroutine")
	return cmd
}

func printBatches(cmd *cobra.Command, name string, desc dataset.Descriptor, batchSize, prefetch int, out io.Writer) error {
	ds, err := dataset.NewTensorDataset(cmd.Context(), name, desc, batchSize, prefetch)
	if err != nil {
		return err
	}
	defer ds.Close()

	var rows [][]string
	for {
		_, inputs, labels, err := ds.Yield()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			strconv.Itoa(len(rows) + 1),
			formatShape(inputs[0].Shape().Dimensions),
			formatShape(labels[0].Shape().Dimensions),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Batch", "Inputs", "Labels"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}, nil))
	return nil
}
