package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipset/internal/video"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var flags samplerFlags

	cmd := &cobra.Command{
		Use:   "sample <video>",
		Short: "Sample one frame sequence from a video file",
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

			opts := flags.options(cmd, cfg)
			sampler := video.NewSampler(newDecoder(cfg, logger), video.WithRand(flags.random(cmd)), video.WithLogger(logger))
			seq, err := sampler.Sample(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			var sum float64
			for _, v := range seq.Data {
				sum += float64(v)
			}
			mean := 0.0
			if len(seq.Data) > 0 {
				mean = sum / float64(len(seq.Data))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:          %s\n", seq.Path)
			fmt.Fprintf(out, "Shape:         %s\n", formatShape(seq.Shape()))
			fmt.Fprintf(out, "Source frames: %d\n", seq.SourceFrames)
			fmt.Fprintf(out, "Start frame:   %d\n", seq.Start)
			fmt.Fprintf(out, "Padded frames: %d\n", seq.Padded)
			fmt.Fprintf(out, "Mean value:    %.4f\n", mean)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func formatShape(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
