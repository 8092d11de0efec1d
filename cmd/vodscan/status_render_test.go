package main

import (
	"strings"
	"testing"
	"time"

	"github.com/milam/VodParser/internal/checkpoint"
)

func TestLinePrinterFormatting(t *testing.T) {
	plain := linePrinter{width: 18}
	line := plain.status("FFmpeg", statusOK, "ffmpeg version 7.1")
	if line != "  FFmpeg:            [OK] ffmpeg version 7.1" {
		t.Fatalf("unexpected line %q", line)
	}
	if got := plain.status("FFprobe", statusError, ""); got != "  FFprobe:           [ERROR]" {
		t.Fatalf("unexpected bare status %q", got)
	}

	colored := linePrinter{color: true, width: 18}.status("FFmpeg", statusError, "")
	if !strings.HasPrefix(colored, statusStyles[statusError].color) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
	if newLinePrinter(&strings.Builder{}).color {
		t.Fatal("non-file writers should not be colourised")
	}
}

func TestStatusLinesDescribeCheckpoint(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	view := statusView{
		Dir: "/scans/finals",
		Record: &checkpoint.Record{
			Version:    checkpoint.Version,
			Current:    1234,
			Gap:        1,
			MatchStart: 3725,
			Frames:     make([]checkpoint.Frame, 3),
			State:      "stopped",
			RunID:      "run-1",
			UpdatedAt:  now.Add(-2 * time.Hour),
			Config: checkpoint.RunConfig{
				Source:      "/vods/finals.m3u8",
				StartTime:   60,
				CleanOutput: true,
				MaxThreads:  4,
			},
		},
		HaveTiming: true,
		Position:   3660,
		Total:      7260,
		Segments:   2,
		PicksBytes: 2048,
		Now:        now,
	}

	out := strings.Join(statusLines(view, linePrinter{width: 18}), "\n")
	for _, want := range []string{
		"== Scan ==",
		"/vods/finals.m3u8",
		"run-1",
		"[WARN] stopped",
		"chunk 1,234 (01:00:00 / 02:00:00)",
		"3 frames since 01:02:05 (gap 1)",
		"2.0 kB",
		"2 hours ago",
		"clean_output=yes delete_chunks=no threads=4",
	} {
		requireContains(t, out, want)
	}
}

func TestStatusLinesWithoutOpenSegment(t *testing.T) {
	view := statusView{
		Dir:    "/scans/x",
		Record: &checkpoint.Record{Version: checkpoint.Version, Current: 7, State: "finished"},
		Now:    time.Now(),
	}
	out := strings.Join(statusLines(view, linePrinter{width: 18}), "\n")
	requireContains(t, out, "[OK] finished")
	requireContains(t, out, "Open segment:      none")
	requireContains(t, out, "chunk 7")
	if strings.Contains(out, "Updated") {
		t.Fatalf("expected no update age without a timestamp: %q", out)
	}
}
