package preflight

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipset/internal/config"
	"clipset/internal/faults"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritableAncestor(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "a", "b")
	result := CheckWritableAncestor("downloads", missing)
	if !result.Passed || !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected creatable path to pass, got %+v", result)
	}
	if result := CheckWritableAncestor("downloads", t.TempDir()); !result.Passed {
		t.Fatalf("expected existing dir to pass, got %+v", result)
	}
}

func TestCheckArchive_RangeSupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "a.zip", time.Time{}, strings.NewReader(strings.Repeat("z", 2048)))
	}))
	defer srv.Close()

	result := CheckArchive(context.Background(), srv.URL, time.Second)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "2.0 kB") {
		t.Fatalf("expected humanized size in detail, got %q", result.Detail)
	}
}

func TestCheckArchive_Failures(t *testing.T) {
	noRange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer noRange.Close()
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer gone.Close()

	for _, url := range []string{"", noRange.URL, gone.URL} {
		if result := CheckArchive(context.Background(), url, time.Second); result.Passed {
			t.Fatalf("expected failure for %q", url)
		}
	}
}

func TestEnsureFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureFreeSpace(filepath.Join(dir, "not", "yet"), 1); err != nil {
		t.Fatalf("expected one byte to fit: %v", err)
	}
	if err := EnsureFreeSpace(dir, 0); err != nil {
		t.Fatalf("zero bytes should always fit: %v", err)
	}
	err := EnsureFreeSpace(dir, math.MaxUint64)
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error for impossible request, got %v", err)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.DownloadDir = filepath.Join(t.TempDir(), "datasets")
	cfg.Archive.URL = ""

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestCheckSystemDepsReportsFFmpeg(t *testing.T) {
	cfg := config.Default()
	t.Setenv("PATH", "")
	statuses := CheckSystemDeps(context.Background(), &cfg)
	if len(statuses) != 2 || statuses[0].Name != "FFmpeg" || statuses[0].Available {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
}
