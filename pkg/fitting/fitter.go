// Package fitting applies advisory curve-shape fitting on top of
// conditioned point sequences.
package fitting

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Mode selects the fitting strategy.
type Mode string

const (
	ModeLinear     Mode = "linear"
	ModePolynomial Mode = "polynomial"
	ModeSpline     Mode = "spline"
	ModeAdaptive   Mode = "adaptive"
)

// linearThreshold is the |Pearson r| above which data is treated as linear.
const linearThreshold = 0.95

// Fitter adjusts y-values toward a fitted curve shape. Fitting is advisory
// regularization, not replacement: point count and x-ordering are always
// preserved, and ambiguous data passes through largely unchanged.
type Fitter struct {
	mode Mode

	// blend is how far y-values move toward the fitted model.
	blend float64
}

// New creates a Fitter for the given mode.
func New(mode Mode) *Fitter {
	return &Fitter{mode: mode, blend: 0.5}
}

// Linearity returns the Pearson correlation coefficient between the x and
// y arrays of a point sequence.
func Linearity(pts []types.CurvePoint) float64 {
	if len(pts) < 3 {
		return 0
	}
	xs, ys := split(pts)
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// Fit applies the configured strategy. Adaptive mode runs the linearity
// test and picks linear for |r| above the threshold, spline otherwise.
func (f *Fitter) Fit(pts []types.CurvePoint) []types.CurvePoint {
	if len(pts) < 3 {
		return pts
	}
	switch f.mode {
	case ModeLinear:
		return f.fitLinear(pts)
	case ModePolynomial:
		return f.fitPolynomial(pts)
	case ModeSpline:
		return f.fitSpline(pts)
	case ModeAdaptive:
		if math.Abs(Linearity(pts)) > linearThreshold {
			return f.fitLinear(pts)
		}
		return f.fitSpline(pts)
	}
	return pts
}

func (f *Fitter) fitLinear(pts []types.CurvePoint) []types.CurvePoint {
	xs, ys := split(pts)
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	out := make([]types.CurvePoint, len(pts))
	for i, p := range pts {
		fitted := alpha + beta*p.X
		out[i] = types.CurvePoint{X: p.X, Y: p.Y + f.blend*(fitted-p.Y)}
	}
	return out
}

// fitPolynomial fits a cubic by least squares over a Vandermonde matrix and
// blends toward it. Too few points for a stable cubic pass through as-is.
func (f *Fitter) fitPolynomial(pts []types.CurvePoint) []types.CurvePoint {
	const degree = 3
	n := len(pts)
	if n < degree*3 {
		return pts
	}

	a := mat.NewDense(n, degree+1, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range pts {
		pow := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, pow)
			pow *= p.X
		}
		b.SetVec(i, p.Y)
	}

	var qr mat.QR
	qr.Factorize(a)
	var coef mat.Dense
	if err := qr.SolveTo(&coef, false, b); err != nil {
		return pts
	}

	out := make([]types.CurvePoint, n)
	for i, p := range pts {
		fitted, pow := 0.0, 1.0
		for j := 0; j <= degree; j++ {
			fitted += coef.At(j, 0) * pow
			pow *= p.X
		}
		out[i] = types.CurvePoint{X: p.X, Y: p.Y + f.blend*(fitted-p.Y)}
	}
	return out
}

// fitSpline fits an Akima spline over evenly spaced control points and
// blends each y toward the spline's prediction. Interpolating through every
// point would reproduce the input exactly, so the control subsample is what
// makes this a smoothing pass.
func (f *Fitter) fitSpline(pts []types.CurvePoint) []types.CurvePoint {
	n := len(pts)
	controls := n / 10
	if controls < 5 {
		controls = 5
	}
	if controls >= n {
		return pts
	}

	cx := make([]float64, 0, controls+1)
	cy := make([]float64, 0, controls+1)
	step := float64(n-1) / float64(controls)
	last := -1
	for i := 0; i <= controls; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx >= n {
			idx = n - 1
		}
		if idx == last {
			continue
		}
		last = idx
		cx = append(cx, pts[idx].X)
		cy = append(cy, pts[idx].Y)
	}
	if len(cx) < 5 || !strictlyIncreasing(cx) {
		return pts
	}

	var spline interp.AkimaSpline
	if err := spline.Fit(cx, cy); err != nil {
		return pts
	}

	out := make([]types.CurvePoint, n)
	for i, p := range pts {
		x := p.X
		// Predict only inside the fitted range.
		if x < cx[0] {
			x = cx[0]
		}
		if x > cx[len(cx)-1] {
			x = cx[len(cx)-1]
		}
		fitted := spline.Predict(x)
		out[i] = types.CurvePoint{X: p.X, Y: p.Y + f.blend*(fitted-p.Y)}
	}
	return out
}

func split(pts []types.CurvePoint) (xs, ys []float64) {
	xs = make([]float64, len(pts))
	ys = make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}
