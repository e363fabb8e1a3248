package faults

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	splitKey contextKey = "split"
)

// WithRunID annotates context with the build run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the build run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSplit annotates context with the split being processed.
func WithSplit(ctx context.Context, split string) context.Context {
	if split == "" {
		return ctx
	}
	return context.WithValue(ctx, splitKey, split)
}

// SplitFromContext returns the split name if present.
func SplitFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(splitKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
