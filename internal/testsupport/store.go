package testsupport

import (
	"context"
	"os"
	"testing"

	"github.com/milam/VodParser/internal/checkpoint"
	"github.com/milam/VodParser/internal/config"
	"github.com/milam/VodParser/internal/store"
)

// MustOpenStore opens the segment store inside the config's output directory
// and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	st, err := store.Open(store.PathIn(cfg.Paths.OutputDir))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// InsertSegment stores frames as one segment for tests.
func InsertSegment(t testing.TB, st *store.Store, source string, frames []checkpoint.Frame) *store.Segment {
	t.Helper()

	seg := &store.Segment{Source: source, Frames: frames}
	if _, err := st.InsertSegment(context.Background(), seg); err != nil {
		t.Fatalf("store.InsertSegment: %v", err)
	}
	return seg
}
