package video

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"clipset/internal/faults"
)

func TestFFmpegDecoderMissingFile(t *testing.T) {
	decoder := &FFmpegDecoder{}
	_, err := decoder.Open(context.Background(), filepath.Join(t.TempDir(), "nope.avi"))
	if !errors.Is(err, faults.ErrVideoOpen) || !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected video open / not found, got %v", err)
	}
}

// stubFFprobe writes an ffprobe stand-in that prints payload and returns its
// path along with an existing file to open.
func stubFFprobe(t *testing.T, payload string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	binary := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\nprintf '%s\\n' '" + payload + "'\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	clip := filepath.Join(dir, "v_Stub_g01_c01.avi")
	if err := os.WriteFile(clip, []byte("not decoded"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return binary, clip
}

func TestFFmpegDecoderWarnsOnExtraVideoStreams(t *testing.T) {
	binary, clip := stubFFprobe(t, `{"streams":[`+
		`{"index":0,"codec_type":"video","width":320,"height":240,"nb_frames":"30"},`+
		`{"index":1,"codec_type":"audio"},`+
		`{"index":2,"codec_type":"video","width":160,"height":120,"nb_frames":"30"}],`+
		`"format":{"duration":"1.2","size":"2048"}}`)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	decoder := &FFmpegDecoder{FFprobeBinary: binary, Logger: logger}
	stream, err := decoder.Open(context.Background(), clip)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()
	if stream.FrameCount() != 30 {
		t.Fatalf("expected 30 frames, got %d", stream.FrameCount())
	}

	out := logs.String()
	for _, want := range []string{"multiple video streams", "video_streams=2", "stream_index=0", "size_bytes=2048", "duration_seconds=1.2", "width=320"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFFmpegDecoderRejectsAudioOnly(t *testing.T) {
	binary, clip := stubFFprobe(t, `{"streams":[{"index":0,"codec_type":"audio"}],"format":{"size":"10"}}`)
	decoder := &FFmpegDecoder{FFprobeBinary: binary}
	_, err := decoder.Open(context.Background(), clip)
	if !errors.Is(err, faults.ErrVideoOpen) || !strings.Contains(err.Error(), "no video stream") {
		t.Fatalf("expected video open error for audio-only file, got %v", err)
	}
}

func TestFFmpegDecoderSamplesGeneratedClip(t *testing.T) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not available")
	}

	clip := filepath.Join(t.TempDir(), "v_Test_g01_c01.avi")
	gen := exec.Command(ffmpegPath, "-v", "error", "-y",
		"-f", "lavfi", "-i", "testsrc=size=64x48:rate=10",
		"-frames:v", "30", "-c:v", "mpeg4", clip)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("cannot generate clip: %v: %s", err, out)
	}

	decoder := &FFmpegDecoder{FFmpegBinary: ffmpegPath, FFprobeBinary: ffprobePath}
	sampler := NewSampler(decoder, WithRand(seeded(5)))
	seq, err := sampler.Sample(context.Background(), clip, Options{NFrames: 5, Height: 32, Width: 32, FrameStep: 2})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if seq.SourceFrames <= 0 {
		t.Fatalf("expected a frame count, got %d", seq.SourceFrames)
	}
	if seq.Padded != 0 {
		t.Fatalf("expected no padding, got %d", seq.Padded)
	}
	// 64x48 scaled into 32x32 leaves 4 rows of padding above and below.
	if v := seq.At(0, 0, 16, 0); v != 0 {
		t.Fatalf("expected top padding, got %v", v)
	}
	nonZero := false
	for _, v := range seq.Frame(0) {
		if v > 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected decoded content")
	}

	// Reaching past the end pads rather than failing.
	seq, err = sampler.Sample(context.Background(), clip, Options{NFrames: 10, Height: 16, Width: 16, FrameStep: 10})
	if err != nil {
		t.Fatalf("Sample long span: %v", err)
	}
	if seq.Start != 0 || seq.Padded != 7 {
		t.Fatalf("expected start 0 with 7 padded frames, got start %d padded %d", seq.Start, seq.Padded)
	}
}
