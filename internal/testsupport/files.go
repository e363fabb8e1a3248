package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// ClipName returns a UCF101-style clip file name for class and group.
func ClipName(class string, group int) string {
	return fmt.Sprintf("v_%s_g%02d_c01.avi", class, group)
}

// WriteFile creates path and its parents with size placeholder bytes.
// A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(max(size, 1))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSplit lays out counts[class] placeholder clips under dir/<class>/ and
// returns their paths sorted.
func WriteSplit(t testing.TB, dir string, counts map[string]int) []string {
	t.Helper()

	var paths []string
	for class, n := range counts {
		for i := range n {
			path := filepath.Join(dir, class, ClipName(class, i+1))
			WriteFile(t, path, 16)
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	return paths
}
