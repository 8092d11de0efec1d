package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	chunkKey contextKey = "chunk"
)

// WithRunID annotates context with the scan run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the scan run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithChunk annotates context with the chunk index being processed.
func WithChunk(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, chunkKey, index)
}

// ChunkFromContext extracts the chunk index if present.
func ChunkFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(chunkKey).(int)
	return v, ok
}
