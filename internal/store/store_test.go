package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/milam/VodParser/internal/checkpoint"
	"github.com/milam/VodParser/internal/store"
	"github.com/milam/VodParser/internal/testsupport"
)

func framesFrom(start float64, n int) []checkpoint.Frame {
	frames := make([]checkpoint.Frame, n)
	for i := range frames {
		frames[i] = checkpoint.Frame{
			Start:    start + float64(2*i),
			Duration: 2,
			Blue:     [checkpoint.TeamSize]string{"alpha", "beta"},
			Red:      [checkpoint.TeamSize]string{5: "omega"},
		}
	}
	return frames
}

func TestInsertAndGetSegment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	seg := testsupport.InsertSegment(t, st, "vod.m3u8", framesFrom(10, 3))
	if seg.ID == 0 {
		t.Fatal("expected segment ID to be assigned")
	}
	if seg.Start != 10 || seg.Duration != 6 || seg.FrameCount != 3 {
		t.Fatalf("derived fields mismatch: %+v", seg)
	}

	got, err := st.GetSegment(context.Background(), seg.ID)
	if err != nil {
		t.Fatalf("GetSegment: %v", err)
	}
	if got == nil || got.Source != "vod.m3u8" {
		t.Fatalf("unexpected segment %#v", got)
	}
	if len(got.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(got.Frames))
	}
	if got.Frames[2].Start != 14 || got.Frames[1].Blue[1] != "beta" || got.Frames[0].Red[5] != "omega" {
		t.Fatalf("frame content mismatch: %+v", got.Frames)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to round trip")
	}
}

func TestGetSegmentMissing(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	got, err := st.GetSegment(context.Background(), 99)
	if err != nil || got != nil {
		t.Fatalf("expected nil,nil got %#v, %v", got, err)
	}
}

func TestListSegmentsOrderedByStart(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.InsertSegment(t, st, "vod", framesFrom(300, 2))
	testsupport.InsertSegment(t, st, "vod", framesFrom(20, 4))

	segments, err := st.ListSegments(context.Background())
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Start != 20 || segments[1].Start != 300 {
		t.Fatalf("unexpected order: %v, %v", segments[0].Start, segments[1].Start)
	}
	if segments[0].Frames != nil {
		t.Fatal("list should not load frames")
	}

	removed, err := st.Clear(context.Background())
	if err != nil || removed != 2 {
		t.Fatalf("Clear: removed=%d err=%v", removed, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), store.FileName)
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := store.Open(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := store.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
