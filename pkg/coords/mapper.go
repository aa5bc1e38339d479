// Package coords maps pixel coordinates to logical (engineering-unit)
// coordinates and back, across linear and log axes.
package coords

import (
	"math"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// logFloor guards log-scale mapping against non-positive axis bounds.
const logFloor = 1e-9

// PixelToLogicalX maps a pixel column to a logical x value for an image of
// the given width.
func PixelToLogicalX(px, width int, cfg types.AxisConfig) float64 {
	if width <= 0 {
		return math.NaN()
	}
	frac := float64(px) / float64(width)
	return interpolate(frac, cfg.XMin, cfg.XMax, cfg.XScaleType)
}

// PixelToLogicalY maps a pixel row to a logical y value. Pixel row 0 is the
// top of the image while the logical y-axis increases upward, so the
// vertical direction is inverted.
func PixelToLogicalY(py, height int, cfg types.AxisConfig) float64 {
	if height <= 0 {
		return math.NaN()
	}
	frac := float64(height-py) / float64(height)
	return interpolate(frac, cfg.YMin, cfg.YMax, cfg.YScaleType)
}

// LogicalToPixelX is the inverse of PixelToLogicalX, rounded to the nearest
// pixel column.
func LogicalToPixelX(x float64, width int, cfg types.AxisConfig) int {
	frac := fraction(x, cfg.XMin, cfg.XMax, cfg.XScaleType)
	return int(math.Round(frac * float64(width)))
}

// LogicalToPixelY is the inverse of PixelToLogicalY, rounded to the nearest
// pixel row.
func LogicalToPixelY(y float64, height int, cfg types.AxisConfig) int {
	frac := fraction(y, cfg.YMin, cfg.YMax, cfg.YScaleType)
	return int(math.Round(float64(height) - frac*float64(height)))
}

// Valid reports whether a mapped value is finite and inside [min, max].
func Valid(v, min, max float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= min && v <= max
}

func interpolate(frac, min, max float64, scale types.ScaleType) float64 {
	if scale == types.ScaleLog {
		logMin := math.Log(math.Max(min, logFloor))
		logMax := math.Log(math.Max(max, logFloor))
		return math.Exp(logMin + frac*(logMax-logMin))
	}
	return min + frac*(max-min)
}

func fraction(v, min, max float64, scale types.ScaleType) float64 {
	if scale == types.ScaleLog {
		logMin := math.Log(math.Max(min, logFloor))
		logMax := math.Log(math.Max(max, logFloor))
		if logMax == logMin {
			return 0
		}
		return (math.Log(math.Max(v, logFloor)) - logMin) / (logMax - logMin)
	}
	if max == min {
		return 0
	}
	return (v - min) / (max - min)
}
