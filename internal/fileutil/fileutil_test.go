package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.avi")
	dst := filepath.Join(dir, "dst.avi")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o640); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("expected source permissions, got %o", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temporary file left behind: %v", entries)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.avi")
	if err := CopyFileVerified(filepath.Join(dir, "nonexistent"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("destination should not exist, stat err=%v", err)
	}
}

func TestMoveFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scratch", "v_Archery_g01_c01.avi")
	dst := filepath.Join(dir, "train", "Archery", "v_Archery_g01_c01.avi")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err=%v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "clip" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestMoveFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := MoveFile(filepath.Join(dir, "nope"), filepath.Join(dir, "out", "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestPruneEmptyDirs(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Archery")
	deep := filepath.Join(classDir, "UCF101", "Archery")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(classDir, "v_Archery_g01_c01.avi")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	PruneEmptyDirs(deep, classDir)
	if _, err := os.Stat(filepath.Join(classDir, "UCF101")); !os.IsNotExist(err) {
		t.Fatalf("expected scratch tree removed, stat err=%v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("class directory contents must survive: %v", err)
	}

	// Directories outside stop are never touched.
	outside := filepath.Join(root, "elsewhere")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatal(err)
	}
	PruneEmptyDirs(outside, classDir)
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("directory outside stop was removed: %v", err)
	}
}
