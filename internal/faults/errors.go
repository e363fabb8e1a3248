package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrArchiveUnavailable marks a remote archive that cannot be reached or is not a valid zip.
	ErrArchiveUnavailable = errors.New("archive unavailable")
	// ErrExtraction marks a single archive member that failed to download or extract.
	ErrExtraction = errors.New("extraction error")
	// ErrVideoOpen marks a local video that cannot be opened or decoded.
	ErrVideoOpen = errors.New("video open error")
	// ErrValidation marks invalid caller input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks a failing external binary such as ffmpeg.
	ErrExternalTool = errors.New("external tool error")
	// ErrNotFound marks a missing file, class, or archive member.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err should abort planning rather than a single sample.
func Fatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrVideoOpen):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
