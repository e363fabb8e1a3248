// Package deps checks the ffmpeg and ffprobe binaries frame sampling runs.
package deps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"clipset/internal/config"
)

// versionTimeout bounds each "-version" call.
const versionTimeout = 5 * time.Second

// Tool is an external binary clipset shells out to.
type Tool struct {
	Name    string
	Binary  string
	Purpose string
}

// Status is the outcome of checking one Tool.
type Status struct {
	Tool
	Path      string
	Version   string
	Available bool
	Detail    string
}

// MediaTools returns the decoder binaries named in the [ffmpeg] section.
func MediaTools(cfg *config.Config) []Tool {
	return []Tool{
		{Name: "FFmpeg", Binary: cfg.FFmpegBinary(), Purpose: "decodes video frames for sampling"},
		{Name: "FFprobe", Binary: cfg.FFprobeBinary(), Purpose: "reads frame counts and dimensions"},
	}
}

// Check resolves every tool on PATH and runs "<binary> -version". A binary
// that exits non-zero is unavailable, since every decode would fail the same
// way. Output that does not name a version is tolerated.
func Check(ctx context.Context, tools []Tool) []Status {
	results := make([]Status, 0, len(tools))
	for _, tool := range tools {
		results = append(results, checkTool(ctx, tool))
	}
	return results
}

func checkTool(ctx context.Context, tool Tool) Status {
	status := Status{Tool: tool}
	binary := strings.TrimSpace(tool.Binary)
	if binary == "" {
		status.Detail = "binary not configured"
		return status
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		status.Detail = fmt.Sprintf("%q not found on PATH", binary)
		return status
	}
	status.Path = path

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "-version").CombinedOutput()
	if err != nil {
		status.Detail = fmt.Sprintf("%s -version failed: %v", binary, err)
		return status
	}
	status.Available = true
	status.Version = parseVersion(out)
	return status
}

// parseVersion reads "ffmpeg version 6.1.1-3ubuntu5 Copyright ..." style
// banners and returns the version token, or "unknown".
func parseVersion(out []byte) string {
	line, _, _ := bytes.Cut(out, []byte("\n"))
	fields := strings.Fields(string(line))
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "version" {
			return fields[i+1]
		}
	}
	return "unknown"
}

// Missing returns the statuses of unavailable tools.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available {
			missing = append(missing, s)
		}
	}
	return missing
}
