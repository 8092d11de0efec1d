package match

// MaxHitsPerTemplate bounds how many instances of one template are reported per frame.
const MaxHitsPerTemplate = 12

// suppressRadius is the half-width of the square cleared around an accepted peak.
const suppressRadius = 8

// surface is a row-major correlation score map over the valid offsets.
type surface struct {
	w, h int
	v    []float64
}

func (s *surface) reset(w, h int) {
	s.w, s.h = w, h
	if cap(s.v) < w*h {
		s.v = make([]float64, w*h)
	}
	s.v = s.v[:w*h]
	clear(s.v)
}

// peaks extracts up to MaxHitsPerTemplate hits above threshold. The surface
// is consumed: scores at or below the threshold and every suppressed
// neighbourhood are zeroed.
func (s *surface) peaks(threshold float64, name string) []Hit {
	for i, v := range s.v {
		if v <= threshold {
			s.v[i] = 0
		}
	}

	var hits []Hit
	for len(hits) < MaxHitsPerTemplate {
		best, at := 0.0, -1
		for i, v := range s.v {
			if at < 0 || v > best {
				best, at = v, i
			}
		}
		if at < 0 || best <= threshold {
			break
		}
		x, y := at%s.w, at/s.w
		hits = append(hits, Hit{X: x, Y: y, Score: best, Name: name})
		s.suppress(x, y)
	}
	return hits
}

func (s *surface) suppress(cx, cy int) {
	x0, x1 := max(cx-suppressRadius, 0), min(cx+suppressRadius, s.w-1)
	y0, y1 := max(cy-suppressRadius, 0), min(cy+suppressRadius, s.h-1)
	for y := y0; y <= y1; y++ {
		row := s.v[y*s.w:]
		for x := x0; x <= x1; x++ {
			row[x] = 0
		}
	}
}
