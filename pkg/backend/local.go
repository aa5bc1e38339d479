package backend

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/PM45W/ESpice-sub007/pkg/colors"
	"github.com/PM45W/ESpice-sub007/pkg/extraction"
	"github.com/PM45W/ESpice-sub007/pkg/fitting"
	"github.com/PM45W/ESpice-sub007/pkg/signal"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Local is the legacy in-process heuristic: classifier → point extractor →
// signal conditioner → curve fitter. It is always healthy and is selected
// explicitly, never as a silent substitute for the remote service.
type Local struct {
	classifier  *colors.Classifier
	extractor   *extraction.Extractor
	conditioner *signal.Conditioner
	fitter      *fitting.Fitter
}

// NewLocal builds the local pipeline with the given fitting mode.
func NewLocal(mode fitting.Mode) *Local {
	return NewLocalWithExtraction(mode, extraction.DefaultConfig())
}

// NewLocalWithExtraction builds the local pipeline with a custom point
// extractor configuration (denoise, background estimation, workers).
func NewLocalWithExtraction(mode fitting.Mode, ec extraction.Config) *Local {
	return &Local{
		classifier:  colors.NewClassifier(),
		extractor:   extraction.NewWithConfig(ec),
		conditioner: signal.New(),
		fitter:      fitting.New(mode),
	}
}

func (l *Local) Name() string { return "local" }

// HealthCheck always succeeds: the local pipeline has no external
// dependencies.
func (l *Local) HealthCheck(ctx context.Context) error { return nil }

func (l *Local) DetectColors(ctx context.Context, img image.Image) ([]types.DetectedColor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.classifier.Detect(img), nil
}

// ExtractCurves runs the full local pipeline for each selected color.
// Empty colorIDs means "detect and take everything". A run that yields no
// points reports an unsuccessful result, not an error.
func (l *Local) ExtractCurves(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error) {
	start := time.Now()
	bounds := img.Bounds()

	if len(colorIDs) == 0 {
		for _, dc := range l.classifier.Detect(img) {
			colorIDs = append(colorIDs, dc.Name)
		}
	}

	var curves []types.Curve
	total := 0
	for i, id := range colorIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matcher, ok := colors.MatcherFor(id)
		if !ok {
			continue
		}

		raw := l.extractor.Points(img, matcher, cfg)
		if len(raw) == 0 {
			continue
		}
		cleaned := l.conditioner.Clean(raw, cfg)
		if len(cleaned) == 0 {
			continue
		}
		fitted := clampToAxis(l.fitter.Fit(cleaned), cfg)

		curve := types.Curve{
			ID:     fmt.Sprintf("curve_%d", i),
			Color:  matcher.Name(),
			Points: fitted,
		}
		curve.ComputeMetadata()
		curve.Quality = curveQuality(curve, cfg)
		curve.Confidence = types.Clamp01(float64(len(raw)) / 1000)
		curves = append(curves, curve)
		total += len(fitted)
	}

	result := &types.ExtractionResult{
		Curves:         curves,
		TotalPoints:    total,
		ProcessingTime: time.Since(start),
		Success:        total > 0,
		Metadata: types.ResultMetadata{
			ImageWidth:  bounds.Dx(),
			ImageHeight: bounds.Dy(),
			Method:      l.Name(),
		},
	}
	if !result.Success {
		result.Error = "no curve points matched the selected colors"
	} else {
		sum := 0.0
		for _, c := range curves {
			sum += c.Quality
		}
		result.Metadata.QualityScore = sum / float64(len(curves))
	}
	return result, nil
}

// clampToAxis pins y-values back inside the axis bounds. Fitting blends
// toward a model and the blend can overshoot the calibrated range; published
// points never leave it. X is untouched: the fitter preserves x-values and
// the extractor already validated them.
func clampToAxis(pts []types.CurvePoint, cfg types.AxisConfig) []types.CurvePoint {
	for i, p := range pts {
		if p.Y < cfg.YMin {
			pts[i].Y = cfg.YMin
		} else if p.Y > cfg.YMax {
			pts[i].Y = cfg.YMax
		}
	}
	return pts
}

// curveQuality blends x-axis coverage with point density.
func curveQuality(c types.Curve, cfg types.AxisConfig) float64 {
	coverage := 0.0
	if r := cfg.XMax - cfg.XMin; r > 0 {
		coverage = (c.XMax - c.XMin) / r
	}
	density := float64(len(c.Points)) / 100
	return types.Clamp01(0.6*coverage + 0.4*types.Clamp01(density))
}
