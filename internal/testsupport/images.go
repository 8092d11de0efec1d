package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/milam/VodParser/internal/imaging"
	"github.com/milam/VodParser/internal/templates"
)

// TemplateSize is the edge length of the synthetic marker templates.
const TemplateSize = 20

// rosterX mirrors the lineup slot positions at 1280 px width.
var rosterX = [12]int{29, 103, 180, 253, 328, 403, 809, 882, 957, 1031, 1107, 1182}

// NoiseImage returns an opaque image of uniform RGB noise.
func NoiseImage(seed int64, w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		if i%4 == 3 {
			img.Pix[i] = 0xff
			continue
		}
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

// BannerImage draws a blocky black and white pattern resembling rendered text.
func BannerImage(seed int64, w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := BlackImage(w, h)
	white := image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	for bx := 0; bx < w; bx += 10 {
		for by := 0; by < h; by += 10 {
			if rng.Intn(2) == 0 {
				continue
			}
			r := image.Rect(bx, by, bx+10, by+10).Intersect(img.Bounds())
			draw.Draw(img, r, white, image.Point{}, draw.Src)
		}
	}
	return img
}

// BlackImage returns an opaque black image.
func BlackImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{A: 0xff}), image.Point{}, draw.Src)
	return img
}

// NewCatalog builds an in-memory catalogue of n distinct noise templates
// named icon00, icon01, ... plus two banner images.
func NewCatalog(t testing.TB, n int) *templates.Catalog {
	t.Helper()
	cat := &templates.Catalog{
		Prepare:  BannerImage(1001, 200, 30),
		Assemble: BannerImage(1002, 200, 30),
	}
	for i := 0; i < n; i++ {
		cat.Entries = append(cat.Entries, templates.Entry{
			Name:      fmt.Sprintf("icon%02d", i),
			Image:     NoiseImage(int64(i+1), TemplateSize, TemplateSize),
			Threshold: 0.95,
		})
	}
	return cat
}

// WriteCatalog persists cat into dir in the on-disk catalogue layout.
func WriteCatalog(t testing.TB, dir string, cat *templates.Catalog) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	lines := make([]string, 0, len(cat.Entries))
	for _, e := range cat.Entries {
		lines = append(lines, fmt.Sprintf("%s = %v", e.Name, e.Threshold))
		writePNG(t, filepath.Join(dir, e.Name+".png"), e.Image)
	}
	sort.Strings(lines)
	body := "[templates]\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, templates.CatalogFile), []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	writePNG(t, filepath.Join(dir, templates.PrepareFile), cat.Prepare)
	writePNG(t, filepath.Join(dir, templates.AssembleFile), cat.Assemble)
}

func writePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// RosterFrame draws the named templates into their roster slots on a black
// frame with their top edge at y=top. Empty names leave the slot blank.
// Templates are pasted at native size, so frames should be 1920 wide.
func RosterFrame(size image.Point, cat *templates.Catalog, names []string, top int) *image.NRGBA {
	frame := BlackImage(size.X, size.Y)
	byName := make(map[string]image.Image, len(cat.Entries))
	for _, e := range cat.Entries {
		byName[e.Name] = e.Image
	}
	for i, name := range names {
		if i >= len(rosterX) || name == "" {
			continue
		}
		img, ok := byName[name]
		if !ok {
			continue
		}
		at := image.Pt(rosterX[i]*size.X/1280, top)
		r := image.Rectangle{Min: at, Max: at.Add(img.Bounds().Size())}
		draw.Draw(frame, r, img, img.Bounds().Min, draw.Src)
	}
	return frame
}

// DrawBanner centres banner, scaled for the frame width, inside the area the
// phase classifier inspects for a roster at top.
func DrawBanner(frame *image.NRGBA, banner image.Image, top int) {
	width := frame.Bounds().Dx()
	scaled := imaging.Scale(banner, imaging.ScaleFactor(width))
	unit := 10 * width / 1280
	bw, bh := scaled.Bounds().Dx(), scaled.Bounds().Dy()
	at := image.Pt(55*unit+(15*unit-bw)/2, top-unit+(3*unit-bh)/2)
	draw.Draw(frame, image.Rectangle{Min: at, Max: at.Add(scaled.Bounds().Size())}, scaled, image.Point{}, draw.Src)
}
