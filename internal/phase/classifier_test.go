package phase

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"testing"
)

// bannerImage draws a blocky two-tone pattern resembling rendered text.
func bannerImage(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)
	for bx := 0; bx < w; bx += 10 {
		for by := 0; by < h; by += 10 {
			if rng.Intn(2) == 0 {
				continue
			}
			r := image.Rect(bx, by, bx+10, by+10).Intersect(img.Bounds())
			draw.Draw(img, r, image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 255}), image.Point{}, draw.Src)
		}
	}
	return img
}

func blackRegion(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)
	return img
}

func TestPrepareBannerDetected(t *testing.T) {
	prepare := bannerImage(200, 30, 1)
	assemble := bannerImage(200, 30, 2)
	c := NewClassifier(prepare, assemble, 1920)

	// unit = 15 at 1920 wide, so the banner area is x 825..1050, y top-15..top+30.
	region := blackRegion(1920, 216)
	top := 40
	draw.Draw(region, image.Rect(830, 30, 1030, 60), prepare, image.Point{}, draw.Src)

	if !c.IsPreparing(region, top) {
		t.Fatal("expected prepare banner to be detected")
	}
}

func TestAssembleBannerDetected(t *testing.T) {
	prepare := bannerImage(200, 30, 3)
	assemble := bannerImage(200, 30, 4)
	c := NewClassifier(prepare, assemble, 1920)

	region := blackRegion(1920, 216)
	draw.Draw(region, image.Rect(840, 35, 1040, 65), assemble, image.Point{}, draw.Src)
	if !c.IsPreparing(region, 45) {
		t.Fatal("expected assemble banner to be detected")
	}
}

func TestUnrelatedContentIsNotPreparing(t *testing.T) {
	c := NewClassifier(bannerImage(200, 30, 5), bannerImage(200, 30, 6), 1920)

	rng := rand.New(rand.NewSource(7))
	region := blackRegion(1920, 216)
	for i := range region.Pix {
		if i%4 != 3 {
			region.Pix[i] = uint8(rng.Intn(256))
		}
	}
	if c.IsPreparing(region, 40) {
		t.Fatal("noise should not match either banner")
	}
}

func TestBannerAreaOutsideRegion(t *testing.T) {
	c := NewClassifier(bannerImage(200, 30, 8), bannerImage(200, 30, 9), 1280)
	region := blackRegion(1280, 144)
	// unit = 10: top-10 < 0.
	if !c.IsPreparing(region, 5) {
		t.Fatal("expected banner area above region to count as preparing")
	}
	// top+30 > 144.
	if !c.IsPreparing(region, 120) {
		t.Fatal("expected banner area below region to count as preparing")
	}
}

func TestBinarizeThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 1))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	// p95 = 95, min = 0: threshold = max(55, 76) = 76.
	binarize(img)
	if img.Pix[76] != 0 || img.Pix[77] != 255 {
		t.Fatalf("unexpected threshold boundary: %d %d", img.Pix[76], img.Pix[77])
	}
}

func TestLargerBannerNeverMatches(t *testing.T) {
	small := image.NewGray(image.Rect(0, 0, 4, 4))
	big := image.NewGray(image.Rect(0, 0, 5, 4))
	if !math.IsInf(minSquaredDiff(small, big), 1) {
		t.Fatal("expected oversize template to never match")
	}
}
