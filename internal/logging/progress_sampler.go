package logging

import (
	"math"
	"strings"
)

// ProgressSampler decides which progress updates are worth a log line: the
// first update for a label and the first update in each new percentage step.
// Scans report after every chunk, so unsampled progress would swamp the log.
type ProgressSampler struct {
	step  float64
	label string
	last  int
}

// NewProgressSampler returns a sampler emitting once per step percent. A
// non-positive step means 5%.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step, last: -1}
}

// ShouldLog reports whether an update should be logged. A negative percent
// means the position is unknown and only label changes are emitted.
func (s *ProgressSampler) ShouldLog(percent float64, label string) bool {
	if s == nil {
		return true
	}
	emit := false
	if label = strings.TrimSpace(label); label != "" && label != s.label {
		s.label = label
		s.last = -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	if step := int(math.Floor(math.Min(percent, 100) / s.step)); step > s.last {
		s.last = step
		emit = true
	}
	return emit
}

// Reset forgets the last label and step.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.label = ""
	s.last = -1
}
