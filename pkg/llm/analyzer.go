// Package llm is the advisory enhancement layer: vision-model graph
// analysis, calibration merging, result validation, and benchmarking.
package llm

import (
	"context"
	"image"
	"time"

	"github.com/PM45W/ESpice-sub007/internal/imageio"
	"github.com/PM45W/ESpice-sub007/pkg/client"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// VisionProbePrompt tests whether the model can see images at all.
const VisionProbePrompt = `What do you see in this image? Describe it briefly.`

// GraphAnalysisPrompt asks a vision model for graph calibration data.
const GraphAnalysisPrompt = `You are a graph calibration assistant analyzing a plotted chart image.

Return JSON only:
{
  "graph_type": "string (e.g. iv_curve, transfer_characteristic, bode_plot, generic)",
  "x_axis": {"name": "string", "unit": "string", "min": 0.0, "max": 0.0, "interval": 0.0, "scale_type": "linear|log"},
  "y_axis": {"name": "string", "unit": "string", "min": 0.0, "max": 0.0, "interval": 0.0, "scale_type": "linear|log"},
  "curves": [{"color": "string", "label": "string", "description": "string", "confidence": 0.0}],
  "features": {"has_grid": false, "has_labels": false, "has_legend": false},
  "confidence": 0.0
}

HARD RULES
- Read axis min/max from the printed tick labels, not from the plotted data.
- scale_type is "log" only when tick spacing is clearly logarithmic.
- One curves entry per visually distinct curve color; color names are
  lowercase (red, blue, green, yellow, cyan, magenta, orange, purple).
- confidence values are in [0,1]; use low values when labels are unreadable.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Analyzer invokes a vision client for graph calibration. All of its
// inference failures are advisory: they produce a zero-confidence analysis
// rather than blocking deterministic extraction.
type Analyzer struct {
	client client.VisionClient
	model  string
}

// NewAnalyzer creates an Analyzer bound to one vision client and model.
func NewAnalyzer(vc client.VisionClient, model string) *Analyzer {
	return &Analyzer{client: vc, model: model}
}

// AnalyzeGraph infers axis semantics and curve descriptors from a graph
// image. An optional hint is appended to the prompt as extra context.
// Backend or parse failures return a zero-confidence analysis, not an
// error.
func (a *Analyzer) AnalyzeGraph(ctx context.Context, img image.Image, hint string) *types.LLMAnalysis {
	start := time.Now()

	imgB64, err := imageio.EncodeForModel(img, "png", 1024, 90)
	if err != nil {
		return failedAnalysis(start, "image encoding failed: "+err.Error())
	}

	prompt := GraphAnalysisPrompt
	if hint != "" {
		prompt += "\n\nContext from the user: " + hint
	}

	analysis, err := a.client.AnalyzeGraph(ctx, a.model, prompt, imgB64)
	if err != nil {
		return failedAnalysis(start, "vision backend error: "+err.Error())
	}

	analysis.ProcessingTime = time.Since(start)
	return analysis
}

// TestVision sends a trivial prompt to verify model connectivity before
// committing to a long vision-assisted extraction.
func (a *Analyzer) TestVision(ctx context.Context, img image.Image) (string, error) {
	imgB64, err := imageio.EncodeForModel(img, "jpg", 512, 80)
	if err != nil {
		return "", err
	}
	return a.client.SimpleQuery(ctx, a.model, VisionProbePrompt, imgB64)
}

func failedAnalysis(start time.Time, reason string) *types.LLMAnalysis {
	return &types.LLMAnalysis{
		GraphType:      "unknown",
		Confidence:     0,
		ProcessingTime: time.Since(start),
		Error:          reason,
	}
}

// MergeIntoConfig applies a successful analysis's axis fields onto an axis
// configuration. Zero-confidence analyses and axes with unusable bounds
// leave the original calibration untouched.
func MergeIntoConfig(analysis *types.LLMAnalysis, cfg types.AxisConfig) types.AxisConfig {
	if analysis == nil || analysis.Confidence <= 0 {
		return cfg
	}

	merged := cfg
	if analysis.XAxis.Min < analysis.XAxis.Max {
		merged.XMin = analysis.XAxis.Min
		merged.XMax = analysis.XAxis.Max
	}
	if analysis.YAxis.Min < analysis.YAxis.Max {
		merged.YMin = analysis.YAxis.Min
		merged.YMax = analysis.YAxis.Max
	}
	if analysis.XAxis.ScaleType == types.ScaleLinear || analysis.XAxis.ScaleType == types.ScaleLog {
		merged.XScaleType = analysis.XAxis.ScaleType
	}
	if analysis.YAxis.ScaleType == types.ScaleLinear || analysis.YAxis.ScaleType == types.ScaleLog {
		merged.YScaleType = analysis.YAxis.ScaleType
	}
	if analysis.XAxis.Name != "" {
		merged.XAxisName = analysis.XAxis.Name
	}
	if analysis.YAxis.Name != "" {
		merged.YAxisName = analysis.YAxis.Name
	}

	// A merge that produced an invalid calibration is discarded whole.
	if merged.Validate() != nil {
		return cfg
	}
	return merged
}
