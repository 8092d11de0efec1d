// Package imaging holds the small set of raster helpers shared by template
// matching, phase classification and frame persistence.
package imaging

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ReferenceWidth is the frame width template and banner assets are authored at.
const ReferenceWidth = 1920

// ScaleFactor returns the factor applied to assets for a frame of the given width.
func ScaleFactor(frameWidth int) float64 {
	return float64(frameWidth) / ReferenceWidth
}

// Scale resizes src by factor with Catmull-Rom resampling. Each output
// dimension is rounded and never drops below one pixel.
func Scale(src image.Image, factor float64) *image.NRGBA {
	b := src.Bounds()
	w := scaledDim(b.Dx(), factor)
	h := scaledDim(b.Dy(), factor)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// ScaleGray resizes a grayscale image by factor.
func ScaleGray(src *image.Gray, factor float64) *image.Gray {
	b := src.Bounds()
	w := scaledDim(b.Dx(), factor)
	h := scaledDim(b.Dy(), factor)
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func scaledDim(n int, factor float64) int {
	v := int(math.Round(float64(n) * factor))
	if v < 1 {
		return 1
	}
	return v
}

// ToNRGBA returns src as a zero-origin NRGBA image, copying only when needed.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Gray converts src to 8-bit luma with the 0.299/0.587/0.114 weights.
func Gray(src image.Image) *image.Gray {
	n := ToNRGBA(src)
	b := n.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := n.Pix[y*n.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r := float64(row[x*4])
			g := float64(row[x*4+1])
			bl := float64(row[x*4+2])
			out[x] = uint8(math.Round(0.299*r + 0.587*g + 0.114*bl))
		}
	}
	return dst
}

// Crop returns the part of src inside r as a new zero-origin image. r is
// relative to src's origin and is clipped to its bounds.
func Crop(src image.Image, r image.Rectangle) *image.NRGBA {
	b := src.Bounds()
	r = r.Add(b.Min).Intersect(b)
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

// HasAlpha reports whether any pixel of img is not fully opaque.
func HasAlpha(img *image.NRGBA) bool {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if row[x*4+3] != 0xff {
				return true
			}
		}
	}
	return false
}
