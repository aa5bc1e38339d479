package signal

import (
	"math"
	"testing"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

func axisConfig() types.AxisConfig {
	return types.AxisConfig{
		XMin: 0, XMax: 10, YMin: 0, YMax: 100,
		XScaleType: types.ScaleLinear, YScaleType: types.ScaleLinear,
		XScale: 1, YScale: 1,
	}
}

func rampPoints(n int) []types.CurvePoint {
	pts := make([]types.CurvePoint, n)
	for i := range pts {
		x := 10 * float64(i) / float64(n-1)
		pts[i] = types.CurvePoint{X: x, Y: 10 * x}
	}
	return pts
}

func TestClean_Empty(t *testing.T) {
	if got := New().Clean(nil, axisConfig()); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestClean_SortsAndSpaces(t *testing.T) {
	// Unsorted input with sub-spacing jitter.
	pts := []types.CurvePoint{
		{X: 5, Y: 50},
		{X: 1, Y: 10},
		{X: 1.001, Y: 10.01},
		{X: 9, Y: 90},
		{X: 3, Y: 30},
	}

	got := New().Clean(pts, axisConfig())
	if len(got) == 0 {
		t.Fatal("got no points")
	}

	// Strictly ascending with at least the 1% x-range gap (0.1).
	for i := 1; i < len(got); i++ {
		if gap := got[i].X - got[i-1].X; gap < 0.1 {
			t.Errorf("points %d and %d only %f apart in x", i-1, i, gap)
		}
	}
}

func TestClean_RemovesOutlier(t *testing.T) {
	pts := rampPoints(60)
	// Inject a wild spike mid-curve. The ramp's MAD is ~25, so the 3-MAD
	// cutoff (~75 around the median 50) keeps every ramp point and drops
	// the spike.
	pts = append(pts, types.CurvePoint{X: 5.05, Y: 1000})

	got := New().Clean(pts, axisConfig())
	for _, p := range got {
		if p.Y > 200 {
			t.Errorf("outlier survived: (%f, %f)", p.X, p.Y)
		}
	}
	if len(got) < 40 {
		t.Errorf("only %d points survived, expected most of the ramp", len(got))
	}
}

func TestClean_FlatDataNotDiscarded(t *testing.T) {
	// Constant y gives MAD == 0; the outlier filter must disable itself.
	pts := make([]types.CurvePoint, 20)
	for i := range pts {
		pts[i] = types.CurvePoint{X: float64(i) / 2, Y: 42}
	}

	got := New().Clean(pts, axisConfig())
	if len(got) == 0 {
		t.Fatal("flat curve was discarded entirely")
	}
	for _, p := range got {
		if p.Y != 42 {
			t.Errorf("smoothing changed a flat curve: got y=%f", p.Y)
		}
	}
}

func TestClean_SmoothingPreservesRamp(t *testing.T) {
	pts := rampPoints(100)
	got := New().Clean(pts, axisConfig())

	// A centered moving average leaves the interior of a straight ramp
	// unchanged up to floating-point noise.
	for _, p := range got {
		if p.X < 1 || p.X > 9 {
			continue
		}
		if math.Abs(p.Y-10*p.X) > 0.5 {
			t.Errorf("interior point drifted: (%f, %f), want y=%f", p.X, p.Y, 10*p.X)
		}
	}
}

func TestDedupe(t *testing.T) {
	// A cluster of near-identical points plus one distant point.
	pts := []types.CurvePoint{
		{X: 1, Y: 10},
		{X: 1.0001, Y: 10.0001},
		{X: 1.0002, Y: 10.0002},
		{X: 8, Y: 80},
	}

	got := dedupe(pts, 0.2)
	if len(got) != 2 {
		t.Errorf("got %d points, want 2 (cluster collapsed, distant point kept): %+v", len(got), got)
	}
}

func TestSmoothWindowShrinksForShortCurves(t *testing.T) {
	c := New()

	// A sharp step in a short curve must not be flattened by a full-size
	// window.
	pts := []types.CurvePoint{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0},
		{X: 3, Y: 100}, {X: 4, Y: 100}, {X: 5, Y: 100},
	}
	got := c.smooth(pts)
	if len(got) != len(pts) {
		t.Fatalf("smooth changed length: %d -> %d", len(pts), len(got))
	}
	if got[0].Y > 1 {
		t.Errorf("leading plateau smeared: got y=%f at x=0", got[0].Y)
	}
	if got[5].Y < 99 {
		t.Errorf("trailing plateau smeared: got y=%f at x=5", got[5].Y)
	}
}
