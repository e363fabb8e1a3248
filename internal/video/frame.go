package video

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Channels is the number of color channels in every frame.
const Channels = 3

// Frame is one decoded image: Height rows of Width pixels, three bytes per
// pixel in the decoder's native (BGR) order.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

func (f Frame) validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("frame has invalid size %dx%d", f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height*Channels {
		return fmt.Errorf("frame buffer holds %d bytes, want %d for %dx%d", len(f.Pix), f.Width*f.Height*Channels, f.Width, f.Height)
	}
	return nil
}

// FrameSequence holds NFrames frames of Height x Width RGB pixels as a flat
// float32 buffer in (frame, row, column, channel) order with values in [0,1].
type FrameSequence struct {
	Path    string
	NFrames int
	Height  int
	Width   int
	Data    []float32

	// Start is the source frame the sequence begins at.
	Start int

	// SourceFrames is the frame count reported for the source video.
	SourceFrames int

	// Padded counts trailing zero frames added after the stream ran out.
	Padded int
}

func newFrameSequence(path string, opts Options) *FrameSequence {
	return &FrameSequence{
		Path:    path,
		NFrames: opts.NFrames,
		Height:  opts.Height,
		Width:   opts.Width,
		Data:    make([]float32, opts.NFrames*opts.Height*opts.Width*Channels),
	}
}

// Shape returns (n_frames, height, width, 3).
func (s *FrameSequence) Shape() []int {
	return []int{s.NFrames, s.Height, s.Width, Channels}
}

// FrameSize is the number of values in one frame.
func (s *FrameSequence) FrameSize() int {
	return s.Height * s.Width * Channels
}

// Frame returns the values of frame i. The slice aliases Data.
func (s *FrameSequence) Frame(i int) []float32 {
	size := s.FrameSize()
	return s.Data[i*size : (i+1)*size]
}

// At returns one channel value of one pixel.
func (s *FrameSequence) At(frame, y, x, c int) float32 {
	return s.Data[((frame*s.Height+y)*s.Width+x)*Channels+c]
}

// FullyPadded reports whether no frame came from the source.
func (s *FrameSequence) FullyPadded() bool {
	return s.Padded >= s.NFrames
}

// ToTensor copies the sequence into a float32 tensor shaped
// (n_frames, height, width, 3).
func (s *FrameSequence) ToTensor() *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(append([]float32(nil), s.Data...), s.Shape()...)
}

// reverseChannels swaps the first and last channel of every pixel in place.
func reverseChannels(data []float32) {
	for i := 0; i+2 < len(data); i += Channels {
		data[i], data[i+2] = data[i+2], data[i]
	}
}
