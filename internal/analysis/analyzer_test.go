package analysis_test

import (
	"image"
	"testing"

	"github.com/milam/VodParser/internal/analysis"
	"github.com/milam/VodParser/internal/testsupport"
)

func TestAnalyzeReadsFullRoster(t *testing.T) {
	frameSize := image.Pt(1920, 1080)
	cat := testsupport.NewCatalog(t, 12)
	analyzer, err := analysis.New(frameSize, cat)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if analyzer.Templates() != 12 {
		t.Fatalf("expected 12 templates, got %d", analyzer.Templates())
	}

	names := make([]string, 12)
	for i := range names {
		names[i] = cat.Entries[i].Name
	}
	frame := testsupport.RosterFrame(frameSize, cat, names, 60)

	result, err := analyzer.Analyze(frame)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.SlotCount != 12 {
		t.Fatalf("expected 12 filled slots, got %d (%v)", result.SlotCount, result.Slots)
	}
	for i, name := range names {
		if result.Slots[i] != name {
			t.Fatalf("slot %d: got %q want %q", i, result.Slots[i], name)
		}
	}
	if result.BandTop != 60 {
		t.Fatalf("expected band top 60, got %d", result.BandTop)
	}
	if result.Preparing {
		t.Fatal("frame without banner should not be preparing")
	}
}

func TestAnalyzeDetectsPrepareBanner(t *testing.T) {
	frameSize := image.Pt(1920, 1080)
	cat := testsupport.NewCatalog(t, 12)
	analyzer, err := analysis.New(frameSize, cat)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	names := []string{cat.Entries[0].Name, cat.Entries[1].Name, "", "", "", "", "", "", "", "", "", ""}
	frame := testsupport.RosterFrame(frameSize, cat, names, 60)
	testsupport.DrawBanner(frame, cat.Prepare, 60)

	result, err := analyzer.Analyze(frame)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.SlotCount != 2 {
		t.Fatalf("expected 2 slots, got %d", result.SlotCount)
	}
	if !result.Preparing {
		t.Fatal("expected prepare banner to be detected")
	}
}

func TestAnalyzeEmptyFrameSkipsPhase(t *testing.T) {
	frameSize := image.Pt(1920, 1080)
	cat := testsupport.NewCatalog(t, 3)
	analyzer, err := analysis.New(frameSize, cat)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	frame := testsupport.RosterFrame(frameSize, cat, make([]string, 12), 60)
	result, err := analyzer.Analyze(frame)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.SlotCount != 0 || result.Preparing || len(result.Hits) != 0 {
		t.Fatalf("expected empty analysis, got %+v", result)
	}
}

func TestAnalyzeRejectsWrongSize(t *testing.T) {
	cat := testsupport.NewCatalog(t, 1)
	analyzer, err := analysis.New(image.Pt(1920, 1080), cat)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := analyzer.Analyze(image.NewNRGBA(image.Rect(0, 0, 1280, 720))); err == nil {
		t.Fatalf("expected size mismatch error for %v", analyzer.FrameSize())
	}
}
