package video

import (
	"context"
	"fmt"
	"io"
	"sync"

	"clipset/internal/faults"
)

// MemoryDecoder serves in-memory frames keyed by path. It backs tests and
// dry runs that should not shell out to ffmpeg.
type MemoryDecoder struct {
	mu     sync.Mutex
	videos map[string][]Frame
	opened []string
}

// NewMemoryDecoder returns an empty decoder.
func NewMemoryDecoder() *MemoryDecoder {
	return &MemoryDecoder{videos: make(map[string][]Frame)}
}

// Add registers frames for path.
func (d *MemoryDecoder) Add(path string, frames []Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.videos[path] = frames
}

// Opened returns the paths opened so far, in order.
func (d *MemoryDecoder) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opened...)
}

func (d *MemoryDecoder) Open(_ context.Context, path string) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, path)
	frames, ok := d.videos[path]
	if !ok {
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "open", path, faults.ErrNotFound)
	}
	return &memoryStream{frames: frames}, nil
}

type memoryStream struct {
	frames []Frame
	pos    int
}

func (s *memoryStream) FrameCount() int { return len(s.frames) }

func (s *memoryStream) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("seek to negative frame %d", index)
	}
	s.pos = index
	return nil
}

func (s *memoryStream) Read() (Frame, error) {
	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *memoryStream) Close() error { return nil }

// IndexedFrames builds n frames of width x height where every pixel of frame
// i stores (i%256, y%256, x%256) in its three native channels.
func IndexedFrames(n, width, height int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		pix := make([]byte, width*height*Channels)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				o := (y*width + x) * Channels
				pix[o] = byte(i % 256)
				pix[o+1] = byte(y % 256)
				pix[o+2] = byte(x % 256)
			}
		}
		frames[i] = Frame{Width: width, Height: height, Pix: pix}
	}
	return frames
}
