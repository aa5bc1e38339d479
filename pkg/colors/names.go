package colors

// NameFor assigns a human-readable color name from HSV components.
// Hue in degrees [0,360), saturation and value in [0,1].
func NameFor(h, s, v float64) string {
	if v < 0.15 {
		return "black"
	}
	if s < 0.15 {
		if v > 0.85 {
			return "white"
		}
		return "gray"
	}
	switch {
	case h < 15 || h >= 345:
		return "red"
	case h < 45:
		return "orange"
	case h < 70:
		return "yellow"
	case h < 160:
		return "green"
	case h < 200:
		return "cyan"
	case h < 260:
		return "blue"
	case h < 290:
		return "purple"
	case h < 345:
		return "magenta"
	}
	return "unknown"
}
