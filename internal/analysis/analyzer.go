// Package analysis runs the per-frame detection chain: crop the roster
// region, correlate every template, assign hits to slots and classify the
// match phase.
package analysis

import (
	"fmt"
	"image"

	"github.com/milam/VodParser/internal/imaging"
	"github.com/milam/VodParser/internal/lineup"
	"github.com/milam/VodParser/internal/match"
	"github.com/milam/VodParser/internal/phase"
	"github.com/milam/VodParser/internal/templates"
)

// RegionDivisor selects the top 1/RegionDivisor of the frame as the roster region.
const RegionDivisor = 5

// SlotCount is the number of roster slots per frame.
const SlotCount = 2 * lineup.TeamSize

// FrameAnalysis is the structured result for one frame.
type FrameAnalysis struct {
	Hits      []match.Hit
	BandTop   int
	SlotCount int
	Slots     [SlotCount]string
	Preparing bool
}

// Analyzer is shared by all workers; Analyze is safe for concurrent use.
type Analyzer struct {
	frame  image.Point
	region image.Point
	engine *match.Engine
	phase  *phase.Classifier
}

// RegionSize returns the roster region size for a frame size.
func RegionSize(frame image.Point) image.Point {
	return image.Pt(frame.X, frame.Y/RegionDivisor)
}

// New prepares the template library and phase banners for frames of the
// given size.
func New(frame image.Point, cat *templates.Catalog) (*Analyzer, error) {
	region := RegionSize(frame)
	lib, err := match.NewLibrary(region, cat.Entries)
	if err != nil {
		return nil, fmt.Errorf("build template library: %w", err)
	}
	return &Analyzer{
		frame:  frame,
		region: region,
		engine: match.NewEngine(lib),
		phase:  phase.NewClassifier(cat.Prepare, cat.Assemble, frame.X),
	}, nil
}

// FrameSize is the decoded frame size the analyzer was built for.
func (a *Analyzer) FrameSize() image.Point { return a.frame }

// Templates reports how many templates are matched per frame.
func (a *Analyzer) Templates() int { return a.engine.Library().Len() }

// Analyze processes one decoded frame.
func (a *Analyzer) Analyze(frame image.Image) (FrameAnalysis, error) {
	if got := frame.Bounds().Size(); got != a.frame {
		return FrameAnalysis{}, fmt.Errorf("frame size %v does not match stream size %v", got, a.frame)
	}
	region := imaging.Crop(frame, image.Rectangle{Max: a.region})

	hits, err := a.engine.Match(region)
	if err != nil {
		return FrameAnalysis{}, err
	}
	roster := lineup.Extract(hits, a.region.X)

	result := FrameAnalysis{
		Hits:      hits,
		BandTop:   roster.Top,
		SlotCount: roster.Count,
		Slots:     roster.Slots(),
	}
	if roster.Count > 0 {
		result.Preparing = a.phase.IsPreparing(region, roster.Top)
	}
	return result, nil
}
