package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"clipset/internal/config"
)

func writeTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeTool(t, dir, "ffmpeg", `echo "ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023"`)
	silent := writeTool(t, dir, "quiet", "exit 0")
	broken := writeTool(t, dir, "broken", "exit 3")
	t.Setenv("PATH", dir)

	results := Check(context.Background(), []Tool{
		{Name: "FFmpeg", Binary: "ffmpeg"},
		{Name: "Quiet", Binary: silent},
		{Name: "Broken", Binary: broken},
		{Name: "Missing", Binary: "clearly-not-present-binary"},
		{Name: "Unset", Binary: "  "},
	})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}

	if r := results[0]; !r.Available || r.Path != good || r.Version != "6.1.1-3ubuntu5" || r.Detail != "" {
		t.Fatalf("unexpected ffmpeg status %#v", r)
	}
	if r := results[1]; !r.Available || r.Version != "unknown" {
		t.Fatalf("a silent binary that exits 0 is usable, got %#v", r)
	}
	if r := results[2]; r.Available || r.Path != broken || r.Detail == "" {
		t.Fatalf("a failing binary must be unavailable, got %#v", r)
	}
	if r := results[3]; r.Available || r.Path != "" || r.Detail == "" {
		t.Fatalf("unexpected status for missing binary %#v", r)
	}
	if r := results[4]; r.Available || r.Detail != "binary not configured" {
		t.Fatalf("unexpected status for unset binary %#v", r)
	}

	missing := Missing(results)
	if len(missing) != 3 || missing[0].Name != "Broken" || missing[2].Name != "Unset" {
		t.Fatalf("unexpected missing list %#v", missing)
	}
}

func TestMediaToolsFollowConfig(t *testing.T) {
	cfg := config.Default()
	tools := MediaTools(&cfg)
	if tools[0].Binary != "ffmpeg" || tools[1].Binary != "ffprobe" {
		t.Fatalf("unexpected defaults %#v", tools)
	}

	cfg.FFmpeg.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	cfg.FFmpeg.FFprobeBinary = " "
	tools = MediaTools(&cfg)
	if tools[0].Binary != "/opt/ffmpeg/bin/ffmpeg" || tools[1].Binary != "ffprobe" {
		t.Fatalf("expected configured ffmpeg and default ffprobe, got %#v", tools)
	}
}
