package extraction

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/PM45W/ESpice-sub007/pkg/colors"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

func axisConfig() types.AxisConfig {
	return types.AxisConfig{
		XMin: 0, XMax: 10, YMin: 0, YMax: 100,
		XScaleType: types.ScaleLinear, YScaleType: types.ScaleLinear,
		XScale: 1, YScale: 1,
	}
}

func whiteCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestPoints_HorizontalBand(t *testing.T) {
	img := whiteCanvas(400, 300)
	// A 3-pixel-tall red band across the middle, logical y ~= 50.
	for y := 148; y <= 150; y++ {
		for x := 20; x < 380; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	matcher, _ := colors.MatcherFor("red")
	pts := New().Points(img, matcher, axisConfig())

	if len(pts) != 3*360 {
		t.Fatalf("got %d points, want %d", len(pts), 3*360)
	}
	for _, p := range pts {
		if p.X < 0 || p.X > 10 || p.Y < 0 || p.Y > 100 {
			t.Fatalf("point out of logical bounds: (%f, %f)", p.X, p.Y)
		}
		if p.Y < 49 || p.Y > 51 {
			t.Errorf("band point off target: (%f, %f), want y ~50", p.X, p.Y)
		}
	}
}

func TestPoints_BackgroundExcluded(t *testing.T) {
	// A uniform red image: every pixel matches the red matcher, but the
	// border-sampled background estimate must suppress all of it.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{255, 0, 0, 255}), image.Point{}, draw.Src)

	matcher, _ := colors.MatcherFor("red")
	if pts := New().Points(img, matcher, axisConfig()); len(pts) != 0 {
		t.Errorf("background-colored pixels extracted: %d points", len(pts))
	}
}

func TestPoints_DenoiseStillFindsBand(t *testing.T) {
	img := whiteCanvas(400, 300)
	// A band thick enough that its core stays saturated after blurring.
	for y := 146; y <= 154; y++ {
		for x := 20; x < 380; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	cfg := extractionConfigWithDenoise(1.5)
	matcher, _ := colors.MatcherFor("red")
	pts := NewWithConfig(cfg).Points(img, matcher, axisConfig())

	if len(pts) == 0 {
		t.Fatal("denoised scan found no points")
	}
	for _, p := range pts {
		if p.Y < 46 || p.Y > 54 {
			t.Errorf("denoised point off the band: (%f, %f)", p.X, p.Y)
		}
	}
}

func extractionConfigWithDenoise(radius float64) Config {
	cfg := DefaultConfig()
	cfg.Denoise = true
	cfg.BlurRadius = radius
	return cfg
}

func TestPoints_NoMatches(t *testing.T) {
	img := whiteCanvas(100, 100)
	for x := 10; x < 90; x++ {
		img.Set(x, 50, color.RGBA{0, 0, 255, 255})
	}

	matcher, _ := colors.MatcherFor("red")
	if pts := New().Points(img, matcher, axisConfig()); len(pts) != 0 {
		t.Errorf("red matcher hit a blue line: %d points", len(pts))
	}
}

func TestPoints_EmptyImage(t *testing.T) {
	matcher, _ := colors.MatcherFor("red")
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if pts := New().Points(img, matcher, axisConfig()); pts != nil {
		t.Errorf("empty image: got %d points, want none", len(pts))
	}
}

func TestPoints_SingleWorkerMatchesDefault(t *testing.T) {
	img := whiteCanvas(200, 150)
	for x := 0; x < 200; x++ {
		y := 149 - (x * 149 / 199)
		img.Set(x, y, color.RGBA{0, 0, 255, 255})
	}

	matcher, _ := colors.MatcherFor("blue")
	cfg := axisConfig()

	serial := NewWithConfig(Config{BackgroundQuant: 32, BackgroundFreq: 0.10, Workers: 1}).Points(img, matcher, cfg)
	parallel := NewWithConfig(Config{BackgroundQuant: 32, BackgroundFreq: 0.10, Workers: 8}).Points(img, matcher, cfg)

	if len(serial) != len(parallel) {
		t.Fatalf("worker count changed the result: %d vs %d points", len(serial), len(parallel))
	}

	// Same point multiset regardless of worker partitioning.
	seen := make(map[types.CurvePoint]int, len(serial))
	for _, p := range serial {
		seen[p]++
	}
	for _, p := range parallel {
		seen[p]--
	}
	for p, n := range seen {
		if n != 0 {
			t.Fatalf("point sets differ at (%f, %f)", p.X, p.Y)
		}
	}
}
