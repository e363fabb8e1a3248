// Package fileutil moves extracted archive members into place.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// CopyFileVerified copies src to dst through a temporary sibling file,
// checking size and SHA256 before renaming it into place. dst keeps src's
// permission bits. Nothing is left at dst on failure.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if written != srcInfo.Size() {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return errors.New("copy hash mismatch: file corrupted during copy")
	}
	if err := os.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return err
	}
	committed = true
	return nil
}

// MoveFile renames src to dst, creating dst's parent directory. When the
// rename crosses filesystems the file is copied with verification and the
// source removed.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := CopyFileVerified(src, dst); err != nil {
		return fmt.Errorf("cross-device copy: %w", err)
	}
	return os.Remove(src)
}

// PruneEmptyDirs removes dir and then each empty parent, stopping before
// stop or at the first directory that is not empty. dir must be inside stop.
func PruneEmptyDirs(dir, stop string) {
	stop = filepath.Clean(stop)
	for dir = filepath.Clean(dir); dir != stop; dir = filepath.Dir(dir) {
		rel, err := filepath.Rel(stop, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}
