package video

import "context"

// Decoder opens video files for sequential frame reads.
type Decoder interface {
	Open(ctx context.Context, path string) (Stream, error)
}

// Stream is an open video. Read returns io.EOF once the stream is exhausted.
type Stream interface {
	// FrameCount is the total number of frames, or 0 when unknown.
	FrameCount() int
	// Seek positions the stream so the next Read returns frame index.
	Seek(index int) error
	Read() (Frame, error)
	Close() error
}
