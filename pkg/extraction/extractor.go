// Package extraction locates curve pixels for one target color and maps
// them into logical coordinates.
package extraction

import (
	"image"
	"runtime"
	"sync"

	"github.com/anthonynsimon/bild/blur"

	"github.com/PM45W/ESpice-sub007/pkg/colors"
	"github.com/PM45W/ESpice-sub007/pkg/coords"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Config holds the extractor's tuning knobs.
type Config struct {
	// Denoise applies a light Gaussian blur before scanning, smearing
	// single-pixel speckle into the background.
	Denoise    bool
	BlurRadius float64

	// Background estimation: border samples are quantized to this step and
	// any quantized color above the frequency threshold is background.
	BackgroundQuant uint8
	BackgroundFreq  float64

	// Workers bounds the concurrent row scan. 0 means GOMAXPROCS.
	Workers int
}

// Extractor scans images for pixels of one target color.
type Extractor struct {
	config Config
}

// DefaultConfig returns the extractor's default tuning.
func DefaultConfig() Config {
	return Config{
		Denoise:         false,
		BlurRadius:      1.5,
		BackgroundQuant: 32,
		BackgroundFreq:  0.10,
	}
}

// New creates an Extractor with default configuration.
func New() *Extractor {
	return &Extractor{config: DefaultConfig()}
}

// NewWithConfig creates an Extractor with custom configuration.
func NewWithConfig(config Config) *Extractor {
	return &Extractor{config: config}
}

// Points returns the raw, unordered logical points whose pixels match the
// target color. Background pixels and points failing the coordinate
// validity check are dropped. The per-row scan is the CPU-bound hot path
// and runs on a bounded set of goroutines.
func (e *Extractor) Points(img image.Image, matcher *colors.Matcher, cfg types.AxisConfig) []types.CurvePoint {
	if e.config.Denoise {
		img = blur.Gaussian(img, e.config.BlurRadius)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	background := e.estimateBackground(img)

	workers := e.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > height {
		workers = height
	}

	partial := make([][]types.CurvePoint, workers)
	rowsPer := (height + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var pts []types.CurvePoint
			yStart := bounds.Min.Y + w*rowsPer
			yEnd := yStart + rowsPer
			if yEnd > bounds.Max.Y {
				yEnd = bounds.Max.Y
			}
			for y := yStart; y < yEnd; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					r16, g16, b16, _ := img.At(x, y).RGBA()
					r, g, b := uint8(r16>>8), uint8(g16>>8), uint8(b16>>8)
					if _, bg := background[quantKey(r, g, b, e.config.BackgroundQuant)]; bg {
						continue
					}
					if !matcher.Match(r, g, b) {
						continue
					}
					lx := coords.PixelToLogicalX(x-bounds.Min.X, width, cfg)
					ly := coords.PixelToLogicalY(y-bounds.Min.Y, height, cfg)
					if !coords.Valid(lx, cfg.XMin, cfg.XMax) || !coords.Valid(ly, cfg.YMin, cfg.YMax) {
						continue
					}
					pts = append(pts, types.CurvePoint{X: lx, Y: ly})
				}
			}
			partial[w] = pts
		}(w)
	}
	wg.Wait()

	var out []types.CurvePoint
	for _, pts := range partial {
		out = append(out, pts...)
	}
	return out
}

// estimateBackground samples the image border and corners, quantizes the
// samples, and treats any quantized color above the frequency threshold as
// background.
func (e *Extractor) estimateBackground(img image.Image) map[uint32]struct{} {
	bounds := img.Bounds()
	counts := make(map[uint32]int)
	total := 0

	sample := func(x, y int) {
		r16, g16, b16, _ := img.At(x, y).RGBA()
		counts[quantKey(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8), e.config.BackgroundQuant)]++
		total++
	}

	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		sample(x, bounds.Min.Y)
		sample(x, bounds.Max.Y-1)
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		sample(bounds.Min.X, y)
		sample(bounds.Max.X-1, y)
	}

	background := make(map[uint32]struct{})
	if total == 0 {
		return background
	}
	for key, count := range counts {
		if float64(count)/float64(total) >= e.config.BackgroundFreq {
			background[key] = struct{}{}
		}
	}
	return background
}

func quantKey(r, g, b, q uint8) uint32 {
	if q == 0 {
		q = 32
	}
	qr := uint32(r) / uint32(q)
	qg := uint32(g) / uint32(q)
	qb := uint32(b) / uint32(q)
	return qr<<16 | qg<<8 | qb
}
