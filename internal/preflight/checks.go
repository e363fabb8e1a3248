package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"clipset/internal/config"
	"clipset/internal/deps"
	"clipset/internal/faults"
)

// CheckArchive verifies that the archive URL answers range requests.
func CheckArchive(ctx context.Context, url string, timeout time.Duration) Result {
	const name = "Archive"

	url = strings.TrimSpace(url)
	if url == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	req.Header.Set("Range", "bytes=0-0")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	switch resp.StatusCode {
	case http.StatusPartialContent:
		detail := "Reachable (range requests supported)"
		if _, total, ok := strings.Cut(resp.Header.Get("Content-Range"), "/"); ok {
			var size uint64
			if _, err := fmt.Sscan(total, &size); err == nil && size > 0 {
				detail = fmt.Sprintf("Reachable (%s, range requests supported)", humanize.Bytes(size))
			}
		}
		return Result{Name: name, Passed: true, Detail: detail}
	case http.StatusOK:
		return Result{Name: name, Detail: "server ignores range requests"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableAncestor passes when path exists and is writable, or when the
// nearest existing ancestor is writable so path can be created.
func CheckWritableAncestor(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := existingAncestor(path)
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// FreeBytes reports the space available to unprivileged users on the
// filesystem holding path. A missing path is resolved to its nearest existing
// ancestor.
func FreeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(existingAncestor(path), &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// EnsureFreeSpace fails with faults.ErrValidation when the filesystem holding
// path has less than need bytes available.
func EnsureFreeSpace(path string, need uint64) error {
	if need == 0 {
		return nil
	}
	free, err := FreeBytes(path)
	if err != nil {
		return faults.Wrap(faults.ErrConfiguration, "preflight", "free space", path, err)
	}
	if free < need {
		return faults.Wrap(faults.ErrValidation, "preflight", "free space",
			fmt.Sprintf("%s needs %s but only %s is available", path, humanize.Bytes(need), humanize.Bytes(free)), nil)
	}
	return nil
}

// CheckSystemDeps evaluates the external binaries frame sampling needs.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.Check(ctx, deps.MediaTools(cfg))
}

func existingAncestor(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (archive server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (archive server unreachable)"
	}
	return err.Error()
}
