// Package phase decides whether a frame shows the pre-match "preparing" or
// "assembling" banner next to the roster row.
package phase

import (
	"image"
	"math"
	"sort"

	"github.com/milam/VodParser/internal/imaging"
)

const (
	prepareLimit  = 0.16
	assembleLimit = 0.12
)

// Classifier compares the banner area of a frame region against the two
// reference banners. It is immutable and safe for concurrent use.
type Classifier struct {
	prepare  *image.Gray
	assemble *image.Gray
}

// NewClassifier converts both banners to grayscale and rescales them for
// frames of the given width.
func NewClassifier(prepare, assemble image.Image, width int) *Classifier {
	factor := imaging.ScaleFactor(width)
	return &Classifier{
		prepare:  imaging.ScaleGray(imaging.Gray(prepare), factor),
		assemble: imaging.ScaleGray(imaging.Gray(assemble), factor),
	}
}

// IsPreparing reports whether region shows a pre-match banner. top is the
// roster band top found by the lineup extractor. A banner area that would
// fall outside the region counts as preparing.
func (c *Classifier) IsPreparing(region image.Image, top int) bool {
	b := region.Bounds()
	unit := 10 * b.Dx() / 1280
	if top-unit < 0 || top+3*unit > b.Dy() {
		return true
	}
	text := imaging.Gray(imaging.Crop(region, image.Rect(55*unit, top-unit, 70*unit, top+2*unit)))
	binarize(text)

	return minSquaredDiff(text, c.prepare) < prepareLimit ||
		minSquaredDiff(text, c.assemble) < assembleLimit
}

// binarize sets pixels above max(p95-40, min*0.2+p95*0.8) to 255 and the
// rest to 0, where p95 is the 95th percentile intensity.
func binarize(img *image.Gray) {
	b := img.Bounds()
	values := make([]int, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for _, v := range img.Pix[y*img.Stride : y*img.Stride+b.Dx()] {
			values = append(values, int(v))
		}
	}
	if len(values) == 0 {
		return
	}
	sort.Ints(values)
	lo := float64(values[0])
	p95 := float64(values[len(values)*95/100])
	threshold := math.Max(p95-40, lo*0.2+p95*0.8)

	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		for x, v := range row {
			if float64(v) > threshold {
				row[x] = 255
			} else {
				row[x] = 0
			}
		}
	}
}

// minSquaredDiff returns the smallest sum of squared differences of tmpl over
// every placement inside img, normalised by tmpl's area times 255².
// A template larger than img never matches.
func minSquaredDiff(img, tmpl *image.Gray) float64 {
	iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	if tw > iw || th > ih || tw == 0 || th == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for oy := 0; oy <= ih-th; oy++ {
		for ox := 0; ox <= iw-tw; ox++ {
			var sum float64
			for y := 0; y < th && sum < best; y++ {
				irow := img.Pix[(oy+y)*img.Stride+ox:]
				trow := tmpl.Pix[y*tmpl.Stride:]
				for x := 0; x < tw; x++ {
					d := float64(irow[x]) - float64(trow[x])
					sum += d * d
				}
			}
			if sum < best {
				best = sum
			}
		}
	}
	return best / (float64(tw*th) * 255 * 255)
}
