package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"clipset/internal/faults"
	"clipset/internal/logging"
)

// Options control how a sequence is sampled.
type Options struct {
	NFrames   int
	Height    int
	Width     int
	FrameStep int
}

// Validate rejects non-positive sizes and strides.
func (o Options) Validate() error {
	switch {
	case o.NFrames <= 0:
		return faults.Wrap(faults.ErrValidation, "video", "options", fmt.Sprintf("n_frames must be positive, got %d", o.NFrames), nil)
	case o.Height <= 0 || o.Width <= 0:
		return faults.Wrap(faults.ErrValidation, "video", "options", fmt.Sprintf("output size must be positive, got %dx%d", o.Height, o.Width), nil)
	case o.FrameStep <= 0:
		return faults.Wrap(faults.ErrValidation, "video", "options", fmt.Sprintf("frame_step must be positive, got %d", o.FrameStep), nil)
	}
	return nil
}

// Span is the number of source frames needed to take NFrames samples
// FrameStep apart.
func (o Options) Span() int {
	return 1 + (o.NFrames-1)*o.FrameStep
}

// StartOffset picks the first source frame. When the video is shorter than
// span the start is always 0; otherwise it is uniform over [0, frameCount-span].
func StartOffset(frameCount, span int, rng *rand.Rand) int {
	if span > frameCount {
		return 0
	}
	return rng.IntN(frameCount - span + 1)
}

// Sampler draws frame sequences from videos. It is not safe for concurrent
// use because it owns a single random source.
type Sampler struct {
	decoder Decoder
	rng     *rand.Rand
	logger  *slog.Logger
}

// SamplerOption customizes a Sampler.
type SamplerOption func(*Sampler)

// WithRand injects the random source used for start offsets.
func WithRand(rng *rand.Rand) SamplerOption {
	return func(s *Sampler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) SamplerOption {
	return func(s *Sampler) {
		s.logger = logging.NewComponentLogger(logger, "video")
	}
}

// NewSampler builds a sampler over decoder. Without WithRand the start
// offsets are seeded from the clock.
func NewSampler(decoder Decoder, opts ...SamplerOption) *Sampler {
	seed := uint64(time.Now().UnixNano())
	s := &Sampler{
		decoder: decoder,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample reads opts.NFrames frames from path. A file that cannot be opened,
// or that yields no frame at the start offset, fails with faults.ErrVideoOpen.
// Running out of frames later is not an error: the remaining slots are zero
// frames and FrameSequence.Padded records how many.
func (s *Sampler) Sample(ctx context.Context, path string, opts Options) (*FrameSequence, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if s.decoder == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "video", "sample", "no decoder configured", nil)
	}

	stream, err := s.decoder.Open(ctx, path)
	if err != nil {
		if errors.Is(err, faults.ErrVideoOpen) {
			return nil, err
		}
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "open", path, err)
	}
	defer stream.Close()

	seq := newFrameSequence(path, opts)
	seq.SourceFrames = stream.FrameCount()
	seq.Start = StartOffset(seq.SourceFrames, opts.Span(), s.rng)

	if err := stream.Seek(seq.Start); err != nil {
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "seek", fmt.Sprintf("%s to frame %d", path, seq.Start), err)
	}
	first, err := stream.Read()
	if err == nil {
		err = first.validate()
	}
	if err != nil {
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "read", fmt.Sprintf("%s: no frame at %d", path, seq.Start), err)
	}
	resizeWithPad(first, opts.Height, opts.Width, seq.Frame(0))

	exhausted := false
	for i := 1; i < opts.NFrames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var frame Frame
		for step := 0; step < opts.FrameStep && !exhausted; step++ {
			frame, err = stream.Read()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.logger.Debug("frame read failed, padding remainder",
						logging.String(logging.FieldPath, path),
						logging.Int("frame", i),
						logging.Error(err),
					)
				}
				exhausted = true
			}
		}
		if exhausted {
			seq.Padded++
			continue
		}
		if err := frame.validate(); err != nil {
			return nil, faults.Wrap(faults.ErrVideoOpen, "video", "read", path, err)
		}
		resizeWithPad(frame, opts.Height, opts.Width, seq.Frame(i))
	}

	reverseChannels(seq.Data)

	if seq.Padded > 0 {
		s.logger.Debug("sequence padded",
			logging.String(logging.FieldPath, path),
			logging.Int("source_frames", seq.SourceFrames),
			logging.Int("padded", seq.Padded),
		)
	}
	return seq, nil
}
