package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"clipset/internal/faults"
	"clipset/internal/logging"
	"clipset/internal/media/ffprobe"
)

// FFmpegDecoder decodes videos with external ffmpeg and ffprobe binaries.
type FFmpegDecoder struct {
	FFmpegBinary  string
	FFprobeBinary string
	Logger        *slog.Logger
}

// Open inspects path for its first video stream and returns a stream that
// decodes frames lazily on the first Read.
func (d *FFmpegDecoder) Open(ctx context.Context, path string) (Stream, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrVideoOpen, "video", "open", path, errors.Join(faults.ErrNotFound, err))
		}
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "open", path, err)
	}
	if info.IsDir() {
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "open", path+" is a directory", nil)
	}

	meta, err := ffprobe.Inspect(ctx, d.FFprobeBinary, path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "inspect", path, err)
	}
	logger := logging.NewComponentLogger(d.Logger, "ffmpeg")
	streams := meta.VideoStreamCount()
	if streams == 0 {
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "inspect", path+": no video stream", nil)
	}
	vs, _ := meta.VideoStream()
	if vs.Width <= 0 || vs.Height <= 0 {
		return nil, faults.Wrap(faults.ErrVideoOpen, "video", "inspect", path+": no decodable video stream", nil)
	}
	if streams > 1 {
		logging.WarnWithContext(logger, "multiple video streams; sampling the first", "video_streams",
			logging.String("path", path),
			logging.Int("video_streams", streams),
			logging.Int("stream_index", vs.Index),
			logging.String(logging.FieldImpact, "frames come from the first video stream only"),
		)
	}
	duration := meta.DurationSeconds()
	if math.IsNaN(duration) {
		duration = 0
	}
	count := meta.FrameCount()
	logger.Debug("inspected video",
		logging.Args(
			logging.String("path", path),
			logging.Int("width", vs.Width),
			logging.Int("height", vs.Height),
			logging.Int("frames", count),
			logging.Float64("duration_seconds", duration),
			logging.Int64("size_bytes", meta.SizeBytes()),
		)...,
	)

	binary := strings.TrimSpace(d.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &ffmpegStream{
		ctx:    ctx,
		binary: binary,
		path:   path,
		width:  vs.Width,
		height: vs.Height,
		count:  count,
		logger: logger,
	}, nil
}

type ffmpegStream struct {
	ctx    context.Context
	binary string
	path   string
	width  int
	height int
	count  int
	logger *slog.Logger

	start  int
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	done   bool
}

func (s *ffmpegStream) FrameCount() int { return s.count }

func (s *ffmpegStream) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("seek to negative frame %d", index)
	}
	s.stop()
	s.start = index
	s.done = false
	return nil
}

func (s *ffmpegStream) Read() (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}
	if s.cmd == nil {
		if err := s.launch(); err != nil {
			return Frame{}, err
		}
	}
	frame := Frame{Width: s.width, Height: s.height, Pix: make([]byte, s.width*s.height*Channels)}
	if _, err := io.ReadFull(s.stdout, frame.Pix); err != nil {
		s.done = true
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if waitErr := s.wait(); waitErr != nil {
				return Frame{}, waitErr
			}
			return Frame{}, io.EOF
		}
		return Frame{}, err
	}
	return frame, nil
}

func (s *ffmpegStream) Close() error {
	s.stop()
	return nil
}

// launch starts ffmpeg writing raw bgr24 frames from s.start onward to a pipe.
// The select filter drops earlier frames by index, which is frame accurate
// regardless of keyframe placement.
func (s *ffmpegStream) launch() error {
	args := []string{"-v", "error", "-nostdin", "-i", s.path, "-map", "0:v:0"}
	if s.start > 0 {
		args = append(args, "-vf", "select=gte(n\\,"+strconv.Itoa(s.start)+")")
	}
	args = append(args, "-fps_mode", "passthrough", "-f", "rawvideo", "-pix_fmt", "bgr24", "-")

	cmd := exec.CommandContext(s.ctx, s.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return faults.Wrap(faults.ErrExternalTool, "ffmpeg", "pipe", s.path, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return faults.Wrap(faults.ErrExternalTool, "ffmpeg", "start", s.binary, err)
	}
	s.cmd = cmd
	s.stdout = stdout
	s.stderr = &stderr
	s.logger.Debug("decoder started",
		logging.String(logging.FieldPath, s.path),
		logging.Int("start", s.start),
	)
	return nil
}

// wait reaps a process whose output ended. A non-zero exit before any frame
// is decodable surfaces as an error; otherwise the end of output is treated
// as exhaustion.
func (s *ffmpegStream) wait() error {
	if s.cmd == nil {
		return nil
	}
	err := s.cmd.Wait()
	stderr := strings.TrimSpace(s.stderr.String())
	s.cmd = nil
	s.stdout = nil
	if err != nil {
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Debug("decoder exited with error",
			logging.String(logging.FieldPath, s.path),
			logging.String("stderr", stderr),
			logging.Error(err),
		)
	}
	return nil
}

func (s *ffmpegStream) stop() {
	if s.cmd == nil {
		return
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	if s.stdout != nil {
		_, _ = io.Copy(io.Discard, s.stdout)
	}
	_ = s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
}
