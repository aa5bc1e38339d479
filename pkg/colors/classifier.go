// Package colors isolates curve colors in plot images: classification of
// the dominant foreground colors and per-color pixel matching.
package colors

import (
	"fmt"
	"image"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// ClassifierConfig holds the thresholds for dominant-color detection.
type ClassifierConfig struct {
	GrayDelta     int     // max pairwise channel delta still considered gray
	MinSaturation float64 // discard washed-out pixels below this
	MinValue      float64 // discard near-black pixels below this
	MaxValue      float64 // value above which low-saturation pixels count as near-white
	HueBins       int     // hue quantization bin count
	MinPixels     int     // noise floor per bin
	MaxColors     int     // cap on reported colors
}

// Classifier scans an image and reports the dominant foreground colors,
// excluding background and gridline tones.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a Classifier with default thresholds.
func NewClassifier() *Classifier {
	return &Classifier{
		config: ClassifierConfig{
			GrayDelta:     30,
			MinSaturation: 0.20,
			MinValue:      0.12,
			MaxValue:      0.95,
			HueBins:       12,
			MinPixels:     50,
			MaxColors:     10,
		},
	}
}

// NewClassifierWithConfig creates a Classifier with custom thresholds.
func NewClassifierWithConfig(config ClassifierConfig) *Classifier {
	return &Classifier{config: config}
}

type colorBin struct {
	count            int
	rSum, gSum, bSum float64
	hSum, sSum, vSum float64
}

// Detect returns the dominant curve-candidate colors ranked by pixel count.
// Sparse or gray-only images yield an empty slice, never an error.
func (c *Classifier) Detect(img image.Image) []types.DetectedColor {
	bounds := img.Bounds()
	totalPixels := bounds.Dx() * bounds.Dy()
	if totalPixels == 0 {
		return nil
	}

	bins := make(map[int]*colorBin)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r, g, b := int(r16>>8), int(g16>>8), int(b16>>8)

			// Near-gray pixels are background, gridlines, or text.
			if absInt(r-g) < c.config.GrayDelta &&
				absInt(g-b) < c.config.GrayDelta &&
				absInt(r-b) < c.config.GrayDelta {
				continue
			}

			cc := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
			h, s, v := cc.Hsv()
			if s < c.config.MinSaturation || v < c.config.MinValue {
				continue
			}
			// Near-white: bright but barely saturated. Fully saturated
			// bright pixels are exactly what curves are drawn in.
			if v > c.config.MaxValue && s < 0.3 {
				continue
			}

			key := c.binKey(h, s, v)
			bin := bins[key]
			if bin == nil {
				bin = &colorBin{}
				bins[key] = bin
			}
			bin.count++
			bin.rSum += float64(r)
			bin.gSum += float64(g)
			bin.bSum += float64(b)
			bin.hSum += h
			bin.sSum += s
			bin.vSum += v
		}
	}

	detected := make([]types.DetectedColor, 0, len(bins))
	for _, bin := range bins {
		if bin.count < c.config.MinPixels {
			continue
		}
		n := float64(bin.count)
		h, s, v := bin.hSum/n, bin.sSum/n, bin.vSum/n
		detected = append(detected, types.DetectedColor{
			Name:       NameFor(h, s, v),
			R:          uint8(bin.rSum / n),
			G:          uint8(bin.gSum / n),
			B:          uint8(bin.bSum / n),
			Hue:        h,
			Saturation: s,
			Value:      v,
			PixelCount: bin.count,
			// Full confidence once the color covers 1% of the image.
			Confidence: types.Clamp01(n / (0.01 * float64(totalPixels))),
		})
	}

	sort.Slice(detected, func(i, j int) bool {
		return detected[i].PixelCount > detected[j].PixelCount
	})
	if len(detected) > c.config.MaxColors {
		detected = detected[:c.config.MaxColors]
	}

	// IDs are name-based and deduplicated in rank order.
	seen := make(map[string]int)
	for i := range detected {
		name := detected[i].Name
		seen[name]++
		if seen[name] == 1 {
			detected[i].ID = name
		} else {
			detected[i].ID = fmt.Sprintf("%s-%d", name, seen[name])
		}
	}
	return detected
}

// binKey quantizes hue into HueBins bins and saturation/value into deciles.
func (c *Classifier) binKey(h, s, v float64) int {
	hueBin := int(h / (360.0 / float64(c.config.HueBins)))
	if hueBin >= c.config.HueBins {
		hueBin = c.config.HueBins - 1
	}
	satBin := decile(s)
	valBin := decile(v)
	return hueBin*100 + satBin*10 + valBin
}

func decile(v float64) int {
	d := int(v * 10)
	if d > 9 {
		d = 9
	}
	return d
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
