// Package video samples fixed-length frame sequences from local video files.
//
// A Sampler opens a file through a Decoder, picks a start offset, and reads
// n_frames frames frame_step apart. Each frame is scaled to [0,1] and resized
// into the output size with centered zero padding. When the stream runs out
// the remaining slots are zero frames, so every sequence has exactly n_frames
// entries. Decoders deliver frames in BGR order; the finished sequence is
// RGB.
//
// FFmpegDecoder is the production decoder. It reads the frame count and
// dimensions with ffprobe and streams raw bgr24 frames from an ffmpeg
// subprocess. MemoryDecoder serves pre-built frames for tests.
package video
