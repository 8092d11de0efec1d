package match

import "gonum.org/v1/gonum/dsp/fourier"

// plan is a 2-D real-to-complex transform over a w×h grid. The spectrum keeps
// the w/2+1 non-redundant columns of each row. A plan owns its work buffers
// and must not be used from more than one goroutine at a time.
type plan struct {
	w, h  int
	cw    int
	rows  *fourier.FFT
	cols  *fourier.CmplxFFT
	rowC  []complex128
	col   []complex128
	colT  []complex128
	scale float64
}

func newPlan(w, h int) *plan {
	p := &plan{
		w:     w,
		h:     h,
		cw:    w/2 + 1,
		rows:  fourier.NewFFT(w),
		cols:  fourier.NewCmplxFFT(h),
		rowC:  make([]complex128, w/2+1),
		col:   make([]complex128, h),
		colT:  make([]complex128, h),
		scale: 1,
	}
	// Round-trip a unit impulse to find the inverse normalization.
	impulse := make([]float64, w*h)
	impulse[0] = 1
	spec := make([]complex128, p.specLen())
	p.forward(spec, impulse, h)
	out := make([]float64, w*h)
	p.inverse(out, spec, 1)
	p.scale = 1 / out[0]
	return p
}

func (p *plan) specLen() int { return p.cw * p.h }

// forward transforms src (w*h, row-major) into dst. Rows at or past usedRows
// are known to be zero and are skipped.
func (p *plan) forward(dst []complex128, src []float64, usedRows int) {
	for y := 0; y < p.h; y++ {
		out := dst[y*p.cw : (y+1)*p.cw]
		if y >= usedRows {
			clear(out)
			continue
		}
		p.rows.Coefficients(p.rowC, src[y*p.w:(y+1)*p.w])
		copy(out, p.rowC)
	}
	for k := 0; k < p.cw; k++ {
		for y := 0; y < p.h; y++ {
			p.col[y] = dst[y*p.cw+k]
		}
		p.cols.Coefficients(p.colT, p.col)
		for y := 0; y < p.h; y++ {
			dst[y*p.cw+k] = p.colT[y]
		}
	}
}

// inverse transforms spec back into dst, writing only the first rows rows.
// spec is used as scratch and is overwritten.
func (p *plan) inverse(dst []float64, spec []complex128, rows int) {
	for k := 0; k < p.cw; k++ {
		for y := 0; y < p.h; y++ {
			p.col[y] = spec[y*p.cw+k]
		}
		p.cols.Sequence(p.colT, p.col)
		for y := 0; y < p.h; y++ {
			spec[y*p.cw+k] = p.colT[y]
		}
	}
	for y := 0; y < rows && y < p.h; y++ {
		row := dst[y*p.w : (y+1)*p.w]
		p.rows.Sequence(row, spec[y*p.cw:(y+1)*p.cw])
		for x := range row {
			row[x] *= p.scale
		}
	}
}

// smoothSize returns the smallest n' >= n whose only prime factors are 2, 3 and 5.
func smoothSize(n int) int {
	if n < 1 {
		return 1
	}
	for m := n; ; m++ {
		v := m
		for _, f := range [...]int{2, 3, 5} {
			for v%f == 0 {
				v /= f
			}
		}
		if v == 1 {
			return m
		}
	}
}
