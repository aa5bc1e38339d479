package fitting

import (
	"math"
	"testing"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

func linePoints(n int, noise func(i int) float64) []types.CurvePoint {
	pts := make([]types.CurvePoint, n)
	for i := range pts {
		x := float64(i)
		pts[i] = types.CurvePoint{X: x, Y: 2*x + 1 + noise(i)}
	}
	return pts
}

func noNoise(int) float64 { return 0 }

func TestLinearity(t *testing.T) {
	line := linePoints(50, noNoise)
	if r := Linearity(line); math.Abs(r-1) > 1e-9 {
		t.Errorf("straight line: got r=%f, want 1", r)
	}

	// Descending line correlates at -1.
	desc := make([]types.CurvePoint, 50)
	for i := range desc {
		desc[i] = types.CurvePoint{X: float64(i), Y: -3 * float64(i)}
	}
	if r := Linearity(desc); math.Abs(r+1) > 1e-9 {
		t.Errorf("descending line: got r=%f, want -1", r)
	}

	// A symmetric parabola has near-zero linear correlation.
	par := make([]types.CurvePoint, 51)
	for i := range par {
		x := float64(i) - 25
		par[i] = types.CurvePoint{X: x, Y: x * x}
	}
	if r := Linearity(par); math.Abs(r) > 0.1 {
		t.Errorf("parabola: got r=%f, want ~0", r)
	}

	if r := Linearity(nil); r != 0 {
		t.Errorf("empty input: got r=%f, want 0", r)
	}
}

func TestFit_PreservesCountAndOrder(t *testing.T) {
	bumpy := func(i int) float64 {
		return 5 * math.Sin(float64(i)/3)
	}

	for _, mode := range []Mode{ModeLinear, ModePolynomial, ModeSpline, ModeAdaptive} {
		t.Run(string(mode), func(t *testing.T) {
			pts := linePoints(60, bumpy)
			got := New(mode).Fit(pts)

			if len(got) != len(pts) {
				t.Fatalf("point count changed: %d -> %d", len(pts), len(got))
			}
			for i := range got {
				if got[i].X != pts[i].X {
					t.Fatalf("x value %d changed: %f -> %f", i, pts[i].X, got[i].X)
				}
				if i > 0 && got[i].X <= got[i-1].X {
					t.Fatalf("x-ordering broken at %d", i)
				}
			}
		})
	}
}

func TestFitLinear_PullsOutlierTowardLine(t *testing.T) {
	pts := linePoints(40, noNoise)
	// Offset one point well above the line.
	pts[20].Y += 10

	got := New(ModeLinear).Fit(pts)

	want := 2*pts[20].X + 1
	before := math.Abs(pts[20].Y - want)
	after := math.Abs(got[20].Y - want)
	if after >= before {
		t.Errorf("offset point not pulled toward the fit: |dev| %f -> %f", before, after)
	}
	// On-line points barely move.
	if math.Abs(got[5].Y-pts[5].Y) > 0.5 {
		t.Errorf("on-line point moved too far: %f -> %f", pts[5].Y, got[5].Y)
	}
}

func TestFit_AdaptivePicksLinearForStraightData(t *testing.T) {
	pts := linePoints(60, noNoise)
	pts[30].Y += 8

	adaptive := New(ModeAdaptive).Fit(pts)
	linear := New(ModeLinear).Fit(pts)

	// With |r| above the threshold the adaptive fitter must behave like the
	// linear one.
	for i := range adaptive {
		if math.Abs(adaptive[i].Y-linear[i].Y) > 1e-9 {
			t.Fatalf("adaptive diverged from linear at %d: %f vs %f", i, adaptive[i].Y, linear[i].Y)
		}
	}
}

func TestFitPolynomial_TooFewPointsPassThrough(t *testing.T) {
	pts := linePoints(5, noNoise)
	got := New(ModePolynomial).Fit(pts)
	for i := range got {
		if got[i] != pts[i] {
			t.Fatalf("short input modified at %d", i)
		}
	}
}

func TestFit_ShortInputPassThrough(t *testing.T) {
	pts := []types.CurvePoint{{X: 0, Y: 0}, {X: 1, Y: 5}}
	for _, mode := range []Mode{ModeLinear, ModePolynomial, ModeSpline, ModeAdaptive} {
		got := New(mode).Fit(pts)
		if len(got) != 2 || got[0] != pts[0] || got[1] != pts[1] {
			t.Errorf("%s: two-point input modified: %+v", mode, got)
		}
	}
}

func TestFitSpline_SmoothsNoise(t *testing.T) {
	jitter := func(i int) float64 {
		if i%2 == 0 {
			return 2
		}
		return -2
	}
	pts := linePoints(100, jitter)
	got := New(ModeSpline).Fit(pts)

	// Blending toward a spline over subsampled controls must reduce the
	// alternating jitter's total deviation from the underlying line.
	dev := func(ps []types.CurvePoint) float64 {
		sum := 0.0
		for _, p := range ps {
			sum += math.Abs(p.Y - (2*p.X + 1))
		}
		return sum
	}
	if dev(got) >= dev(pts) {
		t.Errorf("spline fit did not reduce jitter: %f -> %f", dev(pts), dev(got))
	}
}
