// Package lineup turns raw template hits into the twelve-slot roster shown
// across the top of a frame: six blue slots on the left, six red on the right.
package lineup

import (
	"sort"

	"github.com/milam/VodParser/internal/match"
)

// TeamSize is the number of slots per team.
const TeamSize = 6

const (
	// bandHeight is the vertical window used to find the row of icons.
	bandHeight = 12
	// bandMargin is how far above or below the band top a hit may sit.
	bandMargin = 8
	// referenceWidth is the frame width the slot coordinates are measured at.
	referenceWidth = 1280
)

// slotX holds the slot centres' left edges at referenceWidth, blue then red.
var slotX = [2 * TeamSize]int{29, 103, 180, 253, 328, 403, 809, 882, 957, 1031, 1107, 1182}

// Lineup is the roster read from one frame. Empty slots are "".
type Lineup struct {
	Top   int
	Count int
	Blue  [TeamSize]string
	Red   [TeamSize]string
}

// Slots returns blue then red slots as a single array.
func (l Lineup) Slots() [2 * TeamSize]string {
	var out [2 * TeamSize]string
	copy(out[:TeamSize], l.Blue[:])
	copy(out[TeamSize:], l.Red[:])
	return out
}

// Extract assigns hits to slots for a frame of the given width. hits is not
// modified.
func Extract(hits []match.Hit, width int) Lineup {
	var l Lineup
	if len(hits) == 0 {
		return l
	}

	sorted := make([]match.Hit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	l.Top = bandTop(sorted)

	band := sorted[:0:0]
	for _, h := range sorted {
		if h.Y < l.Top-bandMargin || h.Y >= l.Top+bandMargin {
			continue
		}
		band = append(band, h)
	}

	tolerance := width / 50
	for i, base := range slotX {
		coord := base * width / referenceWidth
		best := -1
		for j, h := range band {
			if h.X <= coord-tolerance || h.X >= coord+tolerance {
				continue
			}
			if best < 0 || h.Score > band[best].Score {
				best = j
			}
		}
		if best < 0 {
			continue
		}
		if i < TeamSize {
			l.Blue[i] = band[best].Name
		} else {
			l.Red[i-TeamSize] = band[best].Name
		}
		l.Count++
	}
	return l
}

// bandTop slides a bandHeight window over hits sorted by Y and returns the
// integer mean Y of the fullest window. The first window wins ties.
func bandTop(sorted []match.Hit) int {
	right, best, sum, top := 0, 0, 0, 0
	for left := range sorted {
		for right < len(sorted) && sorted[right].Y < sorted[left].Y+bandHeight {
			sum += sorted[right].Y
			right++
		}
		if n := right - left; n > best {
			best = n
			top = sum / n
		}
		sum -= sorted[left].Y
	}
	return top
}
