// Package export renders extracted curves into interchange formats.
package export

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// CSV renders curves as text with a Curve,Label,X,Y header and one row per
// point, coordinates formatted to 6 decimal places. The labels map keys
// by curve color; unlabeled curves fall back to their color name.
func CSV(curves []types.Curve, labels map[string]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write([]string{"Curve", "Label", "X", "Y"})
	for _, curve := range curves {
		label := labels[curve.Color]
		if label == "" {
			label = curve.Color
		}
		for _, p := range curve.Points {
			_ = w.Write([]string{
				curve.ID,
				label,
				strconv.FormatFloat(p.X, 'f', 6, 64),
				strconv.FormatFloat(p.Y, 'f', 6, 64),
			})
		}
	}
	w.Flush()
	return sb.String()
}
