package main

import (
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"clipset/internal/config"
	"clipset/internal/video"
)

// samplerFlags are shared by commands that sample frames.
type samplerFlags struct {
	frames int
	height int
	width  int
	step   int
	seed   int64
}

func (f *samplerFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.frames, "frames", 0, "Frames per sequence (overrides sampler.n_frames)")
	cmd.Flags().IntVar(&f.height, "height", 0, "Output height (overrides sampler.height)")
	cmd.Flags().IntVar(&f.width, "width", 0, "Output width (overrides sampler.width)")
	cmd.Flags().IntVar(&f.step, "step", 0, "Source frames between samples (overrides sampler.frame_step)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for start offsets and shuffling (default: clock)")
}

func (f *samplerFlags) options(cmd *cobra.Command, cfg *config.Config) video.Options {
	opts := video.Options{
		NFrames:   cfg.Sampler.NFrames,
		Height:    cfg.Sampler.Height,
		Width:     cfg.Sampler.Width,
		FrameStep: cfg.Sampler.FrameStep,
	}
	if cmd.Flags().Changed("frames") {
		opts.NFrames = f.frames
	}
	if cmd.Flags().Changed("height") {
		opts.Height = f.height
	}
	if cmd.Flags().Changed("width") {
		opts.Width = f.width
	}
	if cmd.Flags().Changed("step") {
		opts.FrameStep = f.step
	}
	return opts
}

func (f *samplerFlags) random(cmd *cobra.Command) *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	if cmd.Flags().Changed("seed") {
		seed = uint64(f.seed)
	}
	return rand.New(rand.NewPCG(seed, seed))
}
