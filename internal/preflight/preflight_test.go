package preflight_test

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/milam/VodParser/internal/deps"
	"github.com/milam/VodParser/internal/preflight"
	"github.com/milam/VodParser/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
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
	result := preflight.CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTemplates(t *testing.T) {
	dir := t.TempDir()
	if res := preflight.CheckTemplates(dir); res.Passed {
		t.Fatal("expected failure for empty template dir")
	}

	testsupport.WriteCatalog(t, dir, testsupport.NewCatalog(t, 3))
	res := preflight.CheckTemplates(dir)
	if !res.Passed {
		t.Fatalf("expected templates to pass, got %s", res.Detail)
	}
	if res.Detail != "3 templates" {
		t.Fatalf("unexpected detail %q", res.Detail)
	}
}

func TestFromDependency(t *testing.T) {
	missing := preflight.FromDependency(deps.Status{Name: "FFmpeg", Detail: "binary \"ffmpeg\" not found"})
	if missing.Passed || missing.Detail == "" {
		t.Fatalf("unexpected result %#v", missing)
	}
	found := preflight.FromDependency(deps.Status{Name: "FFmpeg", Available: true, Command: "/bin/ffmpeg", Version: "ffmpeg version 7"})
	if !found.Passed || found.Detail != "ffmpeg version 7" {
		t.Fatalf("unexpected result %#v", found)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := preflight.RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil, got %v", results)
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMediaStubs(image.Pt(64, 36)))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteCatalog(t, cfg.Paths.TemplatesDir, testsupport.NewCatalog(t, 2))

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if failed := preflight.Failed(results); len(failed) != 0 {
		t.Fatalf("expected every check to pass, failed: %+v", failed)
	}
}

func TestRunAll_ReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Media.FFmpegBinary = "definitely-missing-ffmpeg"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := preflight.RunAll(context.Background(), cfg)
	failed := preflight.Failed(results)
	names := map[string]bool{}
	for _, r := range failed {
		names[r.Name] = true
	}
	if !names["FFmpeg"] || !names["Templates"] {
		t.Fatalf("expected ffmpeg and templates failures, got %+v", failed)
	}
}
