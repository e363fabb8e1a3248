package faults_test

import (
	"errors"
	"strings"
	"testing"

	"clipset/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrExtraction, "fetch", "extract", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, faults.ErrExtraction) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "extract", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := faults.Wrap(faults.ErrValidation, "", "", "", nil)
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFatalClassification(t *testing.T) {
	if faults.Fatal(nil) {
		t.Fatal("nil error must not be fatal")
	}
	if faults.Fatal(faults.Wrap(faults.ErrVideoOpen, "video", "open", "bad file", nil)) {
		t.Fatal("video open errors are per-sample")
	}
	if !faults.Fatal(faults.Wrap(faults.ErrArchiveUnavailable, "remotezip", "open", "unreachable", nil)) {
		t.Fatal("archive errors must be fatal")
	}
}
