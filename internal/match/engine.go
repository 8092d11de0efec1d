package match

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/milam/VodParser/internal/imaging"
)

// Hit is one accepted detection. X and Y are the template's top-left offset
// inside the analysed region.
type Hit struct {
	X, Y  int
	Score float64
	Name  string
}

// minEnergy guards the denominator against fully dark windows.
const minEnergy = 1e-9

// Engine correlates frames against a Library. Match is safe for concurrent
// use; each call borrows its own scratch buffers.
type Engine struct {
	lib     *Library
	scratch sync.Pool
}

type scratch struct {
	plan    *plan
	planes  [4][]float64
	spectra [4][]complex128
	acc     []complex128
	num     []float64
	energy  []float64
	surface surface
}

// NewEngine builds an engine over lib.
func NewEngine(lib *Library) *Engine {
	e := &Engine{lib: lib}
	e.scratch.New = func() any { return e.newScratch() }
	return e
}

// Library returns the template library the engine correlates against.
func (e *Engine) Library() *Library { return e.lib }

func (e *Engine) newScratch() *scratch {
	gw, gh := e.lib.grid.X, e.lib.grid.Y
	s := &scratch{plan: newPlan(gw, gh)}
	for i := range s.planes {
		s.planes[i] = make([]float64, gw*gh)
		s.spectra[i] = make([]complex128, s.plan.specLen())
	}
	s.acc = make([]complex128, s.plan.specLen())
	s.num = make([]float64, gw*gh)
	s.energy = make([]float64, gw*gh)
	return s
}

// Match returns the hits of every template in catalogue order. frame must
// have the library's frame size.
func (e *Engine) Match(frame image.Image) ([]Hit, error) {
	if got := frame.Bounds().Size(); got != e.lib.frame {
		return nil, fmt.Errorf("match: frame size %v does not match library %v", got, e.lib.frame)
	}
	s := e.scratch.Get().(*scratch)
	defer e.scratch.Put(s)

	e.loadFrame(s, frame)

	var hits []Hit
	for _, tmpl := range e.lib.templates {
		e.correlate(s, tmpl)
		hits = append(hits, s.surface.peaks(tmpl.Threshold, tmpl.Name)...)
	}
	return hits, nil
}

// loadFrame fills the three channel planes plus the per-pixel energy plane
// and transforms them.
func (e *Engine) loadFrame(s *scratch, frame image.Image) {
	src := imaging.ToNRGBA(frame)
	gw := e.lib.grid.X
	fw, fh := e.lib.frame.X, e.lib.frame.Y
	for y := 0; y < fh; y++ {
		row := src.Pix[y*src.Stride:]
		base := y * gw
		for x := 0; x < fw; x++ {
			var sq float64
			for c := 0; c < 3; c++ {
				v := float64(row[x*4+c]) / 255
				s.planes[c][base+x] = v
				sq += v * v
			}
			s.planes[3][base+x] = sq
		}
	}
	for i := range s.planes {
		s.plan.forward(s.spectra[i], s.planes[i], fh)
	}
}

func (e *Engine) correlate(s *scratch, tmpl *Template) {
	vw := e.lib.frame.X - tmpl.size.X + 1
	vh := e.lib.frame.Y - tmpl.size.Y + 1

	for i := range s.acc {
		var sum complex128
		for c := 0; c < 3; c++ {
			sum += s.spectra[c][i] * conj64(tmpl.channels[c][i])
		}
		s.acc[i] = sum
	}
	s.plan.inverse(s.num, s.acc, vh)

	for i := range s.acc {
		s.acc[i] = s.spectra[3][i] * conj64(tmpl.alpha2[i])
	}
	s.plan.inverse(s.energy, s.acc, vh)

	s.surface.reset(vw, vh)
	gw := e.lib.grid.X
	for y := 0; y < vh; y++ {
		for x := 0; x < vw; x++ {
			energy := s.energy[y*gw+x]
			if energy <= minEnergy {
				continue
			}
			// Rounding in the transforms can push a perfect match past 1.
			s.surface.v[y*vw+x] = min(s.num[y*gw+x]/(math.Sqrt(energy)*tmpl.alphaNorm), 1)
		}
	}
}

func conj64(v complex64) complex128 {
	return complex(float64(real(v)), -float64(imag(v)))
}
