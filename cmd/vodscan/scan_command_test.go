package main

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/milam/VodParser/internal/checkpoint"
	"github.com/milam/VodParser/internal/testsupport"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "90", want: 90},
		{in: "12.5", want: 12.5},
		{in: "01:30", want: 90},
		{in: "1:02:03", want: 3723},
		{in: " 00:00:10 ", want: 10},
		{in: "1:60", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseClock(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseClock(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDefaultOutputDirUsesPlaylistName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	got := defaultOutputDir(cfg, "/vods/grand-finals.m3u8")
	want := filepath.Join(cfg.Paths.OutputDir, "grand-finals")
	if got != want {
		t.Fatalf("defaultOutputDir = %q, want %q", got, want)
	}
}

var scanFrame = image.Pt(1920, 1080)

func writeRecording(t *testing.T, dir string, chunks int) string {
	t.Helper()
	durations := make([]float64, chunks)
	for i := range durations {
		durations[i] = 2
	}
	return testsupport.WriteRecording(t, dir, "finals.m3u8", durations...)
}

func TestScanCommandRunsToCompletion(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithThreads(3), testsupport.WithMediaStubs(scanFrame))
	vodDir := filepath.Join(env.baseDir, "vod")
	playlist := writeRecording(t, vodDir, 4)
	outDir := filepath.Join(env.baseDir, "scan-out")

	out, _, err := runCLI(t, []string{"scan", playlist, "--out", outDir, "--quiet"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	requireContains(t, out, "finished")
	requireContains(t, out, "4 of 4")

	rec, ok, err := checkpoint.Load(outDir)
	if err != nil || !ok {
		t.Fatalf("load checkpoint: ok=%v err=%v", ok, err)
	}
	if rec.State != "finished" || rec.Current != 4 {
		t.Fatalf("unexpected checkpoint state=%q current=%d", rec.State, rec.Current)
	}
	if rec.Config.EndTime != 8 || rec.Config.MaxThreads != 3 || rec.Config.Path != outDir {
		t.Fatalf("unexpected run config %+v", rec.Config)
	}
	if rec.RunID == "" {
		t.Fatal("expected run id in checkpoint")
	}
	if _, err := os.Stat(filepath.Join(vodDir, testsupport.ChunkName(0))); err != nil {
		t.Fatalf("chunks should be kept without --delete-chunks: %v", err)
	}

	out, _, err = runCLI(t, []string{"status", outDir}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[OK] finished")
	requireContains(t, out, "chunk 4 (00:00:08 / 00:00:08)")

	out, _, err = runCLI(t, []string{"segments", outDir}, env.configPath)
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	requireContains(t, out, "No segments flushed yet")
}

func TestScanCommandDeletesChunks(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMediaStubs(scanFrame))
	vodDir := filepath.Join(env.baseDir, "vod")
	playlist := writeRecording(t, vodDir, 3)
	outDir := filepath.Join(env.baseDir, "scan-out")

	if out, _, err := runCLI(t, []string{"scan", playlist, "-o", outDir, "-q", "--delete-chunks"}, env.configPath); err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	for i := 0; i < 3; i++ {
		path := filepath.Join(vodDir, testsupport.ChunkName(i))
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be deleted, stat err=%v", path, err)
		}
	}
}

func TestScanCommandRejectsEmptyRange(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMediaStubs(scanFrame))
	playlist := writeRecording(t, filepath.Join(env.baseDir, "vod"), 2)

	_, _, err := runCLI(t, []string{"scan", playlist, "-q", "--start", "10", "--end", "00:05"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for start after end")
	}
	requireContains(t, err.Error(), "not before end")
}

func TestScanCommandFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Media.FFmpegBinary = filepath.Join(env.baseDir, "missing", "ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)
	playlist := writeRecording(t, filepath.Join(env.baseDir, "vod"), 1)

	_, _, err := runCLI(t, []string{"scan", playlist, "-q"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, err.Error(), "FFmpeg")
}
