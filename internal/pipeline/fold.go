package pipeline

import (
	"image"

	"github.com/milam/VodParser/internal/analysis"
	"github.com/milam/VodParser/internal/checkpoint"
)

// MinSlots is the fewest filled roster slots that count as an in-match frame.
const MinSlots = 5

// MaxGap caps the hysteresis gap needed to close a long segment.
const MaxGap = 4

// Segment is an ordered run of in-match frames.
type Segment = []checkpoint.Frame

// State is everything folded so far.
type State struct {
	Current    int
	Gap        int
	Segment    Segment
	MatchStart float64
	Frame      image.Image
}

// Outcome is what a worker produced for one chunk.
type Outcome struct {
	Index    int
	Start    float64
	Duration float64
	Analysis analysis.FrameAnalysis
	Image    image.Image
}

// Flushed is a closed segment with its representative frame.
type Flushed struct {
	Segment Segment
	Frame   image.Image
}

// Fold applies one chunk outcome to st. A failed chunk only advances the
// cursor. The returned Flushed is non-nil when the gap closed the segment.
func Fold(st State, out Outcome, failed bool) (State, *Flushed) {
	next := st
	next.Current = out.Index + 1
	if failed {
		return next, nil
	}

	a := out.Analysis
	if a.Preparing || a.SlotCount < MinSlots {
		next.Gap++
		if len(next.Segment) > 0 && next.Gap > min(MaxGap, len(next.Segment)/4) {
			flushed := &Flushed{Segment: next.Segment, Frame: next.Frame}
			next.Segment = nil
			next.Frame = nil
			next.MatchStart = 0
			return next, flushed
		}
		return next, nil
	}

	next.Gap = 0
	entry := checkpoint.Frame{Start: out.Start, Duration: out.Duration}
	copy(entry.Blue[:], a.Slots[:checkpoint.TeamSize])
	copy(entry.Red[:], a.Slots[checkpoint.TeamSize:])
	if n := len(next.Segment); n > 0 {
		last := next.Segment[n-1]
		for i := range checkpoint.TeamSize {
			if entry.Blue[i] == "" {
				entry.Blue[i] = last.Blue[i]
			}
			if entry.Red[i] == "" {
				entry.Red[i] = last.Red[i]
			}
		}
	} else {
		next.Frame = out.Image
		next.MatchStart = out.Start
	}
	next.Segment = append(next.Segment, entry)
	return next, nil
}
