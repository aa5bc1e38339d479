package colors

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Spec parameterizes curve-color matching. A pixel is a hit when it falls
// inside the RGB box (per-channel bounds widened by Tolerance) or inside
// the HSV band. HueMin > HueMax describes a band wrapping through 0°/360°,
// which is how red is expressed.
type Spec struct {
	Name      string  `json:"name"`
	R         uint8   `json:"r"`
	G         uint8   `json:"g"`
	B         uint8   `json:"b"`
	Tolerance uint8   `json:"tolerance"`
	HueMin    float64 `json:"hue_min"`
	HueMax    float64 `json:"hue_max"`
	MinSat    float64 `json:"min_sat"`
	MinVal    float64 `json:"min_val"`
	MaxVal    float64 `json:"max_val"`
}

// Palette holds matching specs for the standard plot colors.
var Palette = map[string]Spec{
	"red":     {Name: "red", R: 255, G: 0, B: 0, Tolerance: 70, HueMin: 340, HueMax: 20, MinSat: 0.35, MinVal: 0.20, MaxVal: 1.0},
	"orange":  {Name: "orange", R: 255, G: 140, B: 0, Tolerance: 60, HueMin: 20, HueMax: 45, MinSat: 0.35, MinVal: 0.30, MaxVal: 1.0},
	"yellow":  {Name: "yellow", R: 240, G: 220, B: 0, Tolerance: 60, HueMin: 45, HueMax: 70, MinSat: 0.35, MinVal: 0.40, MaxVal: 1.0},
	"green":   {Name: "green", R: 0, G: 180, B: 0, Tolerance: 70, HueMin: 80, HueMax: 160, MinSat: 0.30, MinVal: 0.20, MaxVal: 1.0},
	"cyan":    {Name: "cyan", R: 0, G: 200, B: 200, Tolerance: 60, HueMin: 160, HueMax: 200, MinSat: 0.30, MinVal: 0.25, MaxVal: 1.0},
	"blue":    {Name: "blue", R: 0, G: 0, B: 255, Tolerance: 70, HueMin: 200, HueMax: 260, MinSat: 0.30, MinVal: 0.20, MaxVal: 1.0},
	"purple":  {Name: "purple", R: 140, G: 0, B: 200, Tolerance: 60, HueMin: 260, HueMax: 290, MinSat: 0.30, MinVal: 0.20, MaxVal: 1.0},
	"magenta": {Name: "magenta", R: 230, G: 0, B: 180, Tolerance: 60, HueMin: 290, HueMax: 340, MinSat: 0.30, MinVal: 0.25, MaxVal: 1.0},
}

// Matcher tests pixels against one color spec.
type Matcher struct {
	spec Spec
}

// NewMatcher builds a matcher for an explicit spec.
func NewMatcher(spec Spec) *Matcher {
	return &Matcher{spec: spec}
}

// MatcherFor looks up a matcher for a palette color name.
func MatcherFor(name string) (*Matcher, bool) {
	spec, ok := Palette[name]
	if !ok {
		return nil, false
	}
	return &Matcher{spec: spec}, true
}

// Name returns the matched color's name.
func (m *Matcher) Name() string { return m.spec.Name }

// Match reports whether an 8-bit RGB pixel belongs to the target color.
func (m *Matcher) Match(r, g, b uint8) bool {
	if m.matchRGB(r, g, b) {
		return true
	}
	return m.matchHSV(r, g, b)
}

func (m *Matcher) matchRGB(r, g, b uint8) bool {
	tol := int(m.spec.Tolerance)
	return inBand(int(r), int(m.spec.R), tol) &&
		inBand(int(g), int(m.spec.G), tol) &&
		inBand(int(b), int(m.spec.B), tol)
}

func (m *Matcher) matchHSV(r, g, b uint8) bool {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	if s < m.spec.MinSat || v < m.spec.MinVal || v > m.spec.MaxVal {
		return false
	}
	return hueInBand(h, m.spec.HueMin, m.spec.HueMax)
}

func hueInBand(h, lo, hi float64) bool {
	if lo <= hi {
		return h >= lo && h <= hi
	}
	// Wrapped band, e.g. red's 340..20.
	return h >= lo || h <= hi
}

func inBand(v, center, tol int) bool {
	return v >= center-tol && v <= center+tol
}
