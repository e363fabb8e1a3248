// Package logging assembles structured slog loggers and formatting helpers used
// across clipset components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so builder and generator code can
// tag log lines with run IDs and split names. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
