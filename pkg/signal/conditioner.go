// Package signal cleans raw extracted point sequences: outlier removal,
// smoothing, de-duplication, and minimum spacing.
package signal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Config holds the conditioning thresholds.
type Config struct {
	// MADFactor is the outlier cutoff in median-absolute-deviation units.
	MADFactor float64

	// BaseWindow is the moving-average window; it shrinks proportionally
	// when fewer than SmallCount points survive outlier removal.
	BaseWindow int
	SmallCount int

	// DedupeFraction sets the minimum Euclidean distance between retained
	// points as a fraction of the axis-range diagonal.
	DedupeFraction float64

	// SpacingFraction sets the minimum x-gap between retained points as a
	// fraction of the x-axis range.
	SpacingFraction float64
}

// Conditioner turns a raw point cloud into a monotonically x-sorted,
// evenly spaced sequence.
type Conditioner struct {
	config Config
}

// New creates a Conditioner with default thresholds.
func New() *Conditioner {
	return &Conditioner{
		config: Config{
			MADFactor:       3.0,
			BaseWindow:      5,
			SmallCount:      50,
			DedupeFraction:  0.002,
			SpacingFraction: 0.01,
		},
	}
}

// NewWithConfig creates a Conditioner with custom thresholds.
func NewWithConfig(config Config) *Conditioner {
	return &Conditioner{config: config}
}

// Clean runs the full conditioning chain in order: sort by x, MAD outlier
// removal, adaptive smoothing, Euclidean de-duplication, minimum x-spacing.
func (c *Conditioner) Clean(points []types.CurvePoint, cfg types.AxisConfig) []types.CurvePoint {
	if len(points) == 0 {
		return nil
	}

	pts := make([]types.CurvePoint, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	pts = c.removeOutliers(pts)
	pts = c.smooth(pts)

	xRange := cfg.XMax - cfg.XMin
	yRange := cfg.YMax - cfg.YMin
	minDist := c.config.DedupeFraction * math.Hypot(xRange, yRange)
	pts = dedupe(pts, minDist)

	return enforceSpacing(pts, c.config.SpacingFraction*xRange)
}

// removeOutliers drops points whose y deviates from the median by more
// than MADFactor times the median absolute deviation. A zero MAD (flat
// data) disables the filter rather than discarding everything.
func (c *Conditioner) removeOutliers(pts []types.CurvePoint) []types.CurvePoint {
	if len(pts) < 4 {
		return pts
	}

	ys := make([]float64, len(pts))
	for i, p := range pts {
		ys[i] = p.Y
	}
	sorted := append([]float64(nil), ys...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	devs := make([]float64, len(ys))
	for i, y := range ys {
		devs[i] = math.Abs(y - median)
	}
	sort.Float64s(devs)
	mad := stat.Quantile(0.5, stat.Empirical, devs, nil)
	if mad == 0 {
		return pts
	}

	cutoff := c.config.MADFactor * mad
	kept := pts[:0]
	for _, p := range pts {
		if math.Abs(p.Y-median) <= cutoff {
			kept = append(kept, p)
		}
	}
	return kept
}

// smooth applies a centered moving average over the x-sorted points. The
// window shrinks for small point counts so short curves are not flattened.
func (c *Conditioner) smooth(pts []types.CurvePoint) []types.CurvePoint {
	n := len(pts)
	if n < 3 {
		return pts
	}

	window := c.config.BaseWindow
	if n < c.config.SmallCount {
		window = c.config.BaseWindow * n / c.config.SmallCount
		if window < 3 {
			window = 3
		}
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2

	out := make([]types.CurvePoint, n)
	for i := range pts {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += pts[j].Y
		}
		out[i] = types.CurvePoint{X: pts[i].X, Y: sum / float64(hi-lo+1)}
	}
	return out
}

// dedupe drops points within minDist of the previous retained point.
func dedupe(pts []types.CurvePoint, minDist float64) []types.CurvePoint {
	if len(pts) == 0 || minDist <= 0 {
		return pts
	}
	kept := pts[:1]
	for _, p := range pts[1:] {
		prev := kept[len(kept)-1]
		if math.Hypot(p.X-prev.X, p.Y-prev.Y) >= minDist {
			kept = append(kept, p)
		}
	}
	return kept
}

// enforceSpacing keeps points at least minGap apart in x, which bounds the
// output size and suppresses sub-pixel jitter.
func enforceSpacing(pts []types.CurvePoint, minGap float64) []types.CurvePoint {
	if len(pts) == 0 || minGap <= 0 {
		return pts
	}
	kept := pts[:1]
	for _, p := range pts[1:] {
		if p.X-kept[len(kept)-1].X >= minGap {
			kept = append(kept, p)
		}
	}
	return kept
}
