package backend

import (
	"context"
	"image"

	"github.com/PM45W/ESpice-sub007/pkg/colors"
	"github.com/PM45W/ESpice-sub007/pkg/llm"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Vision is the vision-model-assisted strategy: it asks the enhancement
// layer for axis calibration and curve descriptors first, then runs the
// local pipeline with the merged configuration. Selected explicitly for
// exploratory calibration, never as an automatic substitute.
type Vision struct {
	analyzer *llm.Analyzer
	local    *Local

	// Hint is optional natural-language context forwarded to the model.
	Hint string
}

// NewVision wires the analyzer in front of a local pipeline.
func NewVision(analyzer *llm.Analyzer, local *Local) *Vision {
	return &Vision{analyzer: analyzer, local: local}
}

// WithHint returns a copy of the backend carrying a per-call hint. The
// shared instance is never mutated, so concurrent extractions cannot see
// each other's hints.
func (v *Vision) WithHint(hint string) *Vision {
	c := *v
	c.Hint = hint
	return &c
}

func (v *Vision) Name() string { return "vision" }

// HealthCheck probes model connectivity with a 1x1 image and the trivial
// vision prompt.
func (v *Vision) HealthCheck(ctx context.Context) error {
	probe := image.NewRGBA(image.Rect(0, 0, 8, 8))
	_, err := v.analyzer.TestVision(ctx, probe)
	return err
}

// DetectColors maps the model's curve descriptors onto the standard
// palette; descriptors naming unknown colors fall back to the local
// classifier's answer.
func (v *Vision) DetectColors(ctx context.Context, img image.Image) ([]types.DetectedColor, error) {
	analysis := v.analyzer.AnalyzeGraph(ctx, img, v.Hint)
	if analysis.Confidence <= 0 || len(analysis.Curves) == 0 {
		return v.local.DetectColors(ctx, img)
	}

	var detected []types.DetectedColor
	for _, desc := range analysis.Curves {
		spec, ok := colors.Palette[desc.Color]
		if !ok {
			continue
		}
		detected = append(detected, types.DetectedColor{
			ID:         desc.Color,
			Name:       desc.Color,
			R:          spec.R,
			G:          spec.G,
			B:          spec.B,
			Confidence: types.Clamp01(desc.Confidence),
		})
	}
	if len(detected) == 0 {
		return v.local.DetectColors(ctx, img)
	}
	return detected, nil
}

// ExtractCurves merges inferred calibration into the axis config when the
// caller opted in, then runs the local pipeline. Descriptor colors fill in
// the selection when the caller passed none.
func (v *Vision) ExtractCurves(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error) {
	analysis := v.analyzer.AnalyzeGraph(ctx, img, v.Hint)

	if cfg.UseLLMAnalysis {
		cfg = llm.MergeIntoConfig(analysis, cfg)
	}
	if len(colorIDs) == 0 {
		for _, desc := range analysis.Curves {
			if _, ok := colors.Palette[desc.Color]; ok {
				colorIDs = append(colorIDs, desc.Color)
			}
		}
	}

	result, err := v.local.ExtractCurves(ctx, img, colorIDs, cfg)
	if err != nil {
		return nil, err
	}
	result.Metadata.Method = v.Name()

	// Attach descriptor confidence where the model described the same color.
	for i := range result.Curves {
		for _, desc := range analysis.Curves {
			if desc.Color == result.Curves[i].Color && desc.Confidence > 0 {
				result.Curves[i].Confidence = types.Clamp01(
					(result.Curves[i].Confidence + desc.Confidence) / 2)
			}
		}
	}
	return result, nil
}
