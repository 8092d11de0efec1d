package match

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/milam/VodParser/internal/imaging"
	"github.com/milam/VodParser/internal/templates"
)

// ErrEmptyLibrary is returned when no templates are supplied.
var ErrEmptyLibrary = errors.New("match: no templates")

// Template is a scaled marker prepared for frequency-domain correlation.
// Templates are immutable once built and shared by every worker.
type Template struct {
	Name      string
	Threshold float64

	size      image.Point
	channels  [3][]complex64 // spectra of t_c·a²
	alpha2    []complex64    // spectrum of a²
	alphaNorm float64        // sqrt(Σ_c ||t_c·a||²)
}

// Size is the template size after scaling to the frame.
func (t *Template) Size() image.Point { return t.size }

// Library holds every template for one frame geometry together with the DFT
// grid used to correlate against it.
type Library struct {
	frame     image.Point
	grid      image.Point
	templates []*Template
}

// NewLibrary scales each entry to frameSize and precomputes its spectra.
// Entries are rescaled by frameSize.X/1920. A template that does not fit in
// the frame is an error.
func NewLibrary(frameSize image.Point, entries []templates.Entry) (*Library, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyLibrary
	}
	if frameSize.X <= 0 || frameSize.Y <= 0 {
		return nil, fmt.Errorf("match: invalid frame size %v", frameSize)
	}

	lib := &Library{
		frame: frameSize,
		grid:  image.Pt(smoothSize(frameSize.X), smoothSize(frameSize.Y)),
	}
	p := newPlan(lib.grid.X, lib.grid.Y)
	factor := imaging.ScaleFactor(frameSize.X)

	for _, entry := range entries {
		tmpl, err := lib.prepare(p, entry, factor)
		if err != nil {
			return nil, err
		}
		lib.templates = append(lib.templates, tmpl)
	}
	return lib, nil
}

// FrameSize is the region size every matched frame must have.
func (l *Library) FrameSize() image.Point { return l.frame }

// Len reports the number of templates.
func (l *Library) Len() int { return len(l.templates) }

// Templates returns the prepared templates in catalogue order.
func (l *Library) Templates() []*Template {
	out := make([]*Template, len(l.templates))
	copy(out, l.templates)
	return out
}

func (l *Library) prepare(p *plan, entry templates.Entry, factor float64) (*Template, error) {
	if entry.Image == nil {
		return nil, fmt.Errorf("match: template %q has no image", entry.Name)
	}
	scaled := imaging.Scale(entry.Image, factor)
	tw, th := scaled.Bounds().Dx(), scaled.Bounds().Dy()
	if tw > l.frame.X || th > l.frame.Y {
		return nil, fmt.Errorf("match: template %q (%dx%d) does not fit frame %dx%d",
			entry.Name, tw, th, l.frame.X, l.frame.Y)
	}

	opaque := !imaging.HasAlpha(scaled)
	gw := l.grid.X
	var planes [4][]float64
	for i := range planes {
		planes[i] = make([]float64, gw*l.grid.Y)
	}
	var norm float64
	for y := 0; y < th; y++ {
		row := scaled.Pix[y*scaled.Stride:]
		for x := 0; x < tw; x++ {
			a := 1.0
			if !opaque {
				a = float64(row[x*4+3]) / 255
			}
			a2 := a * a
			idx := y*gw + x
			for c := 0; c < 3; c++ {
				v := float64(row[x*4+c]) / 255
				planes[c][idx] = v * a2
				norm += v * v * a2
			}
			planes[3][idx] = a2
		}
	}
	if norm <= 0 {
		return nil, fmt.Errorf("match: template %q has no visible pixels", entry.Name)
	}

	tmpl := &Template{
		Name:      entry.Name,
		Threshold: entry.Threshold,
		size:      image.Pt(tw, th),
		alphaNorm: math.Sqrt(norm),
	}
	spec := make([]complex128, p.specLen())
	for c := 0; c < 3; c++ {
		p.forward(spec, planes[c], th)
		tmpl.channels[c] = narrow(spec)
	}
	p.forward(spec, planes[3], th)
	tmpl.alpha2 = narrow(spec)
	return tmpl, nil
}

func narrow(src []complex128) []complex64 {
	out := make([]complex64, len(src))
	for i, v := range src {
		out[i] = complex64(v)
	}
	return out
}
