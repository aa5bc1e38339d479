package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// passScore is the validation threshold out of 100.
const passScore = 70.0

// ValidateResult scores an extraction against its vision analysis on a
// 0-100 scale. Quality concerns are non-fatal: they lower the score and
// produce issues/suggestions instead of aborting anything.
func ValidateResult(result *types.ExtractionResult, analysis *types.LLMAnalysis) types.ValidationReport {
	score := 100.0
	var issues, suggestions []string

	if result == nil || len(result.Curves) == 0 {
		score -= 40
		issues = append(issues, "no curves were extracted")
		suggestions = append(suggestions, "check the selected colors against the detected palette")
	} else {
		for _, curve := range result.Curves {
			if len(curve.Points) < 5 {
				score -= 10
				issues = append(issues, fmt.Sprintf("curve %s has only %d points", curve.ID, len(curve.Points)))
				suggestions = append(suggestions, "lower the color-matching threshold or increase image resolution")
			}
			if curve.Quality < 0.5 {
				score -= 10
				issues = append(issues, fmt.Sprintf("curve %s has low quality (%.2f)", curve.ID, curve.Quality))
			}
		}
	}

	if analysis != nil {
		if analysis.Confidence < 0.5 {
			score -= 15
			issues = append(issues, fmt.Sprintf("vision analysis confidence is low (%.2f)", analysis.Confidence))
			suggestions = append(suggestions, "provide the axis configuration manually")
		}
		if analysis.XAxis.Name == "" {
			score -= 5
			issues = append(issues, "x-axis name was not identified")
		}
		if analysis.YAxis.Name == "" {
			score -= 5
			issues = append(issues, "y-axis name was not identified")
		}
	}

	if score < 0 {
		score = 0
	}
	return types.ValidationReport{
		Valid:       score >= passScore,
		Score:       score,
		Issues:      issues,
		Suggestions: suggestions,
	}
}

// ExtractFunc runs one extraction and returns its result.
type ExtractFunc func(ctx context.Context) (*types.ExtractionResult, error)

// Benchmark runs a baseline extraction and the enhanced pipeline on the
// same inputs and reports relative processing time and point yield.
func Benchmark(ctx context.Context, baseline, enhanced ExtractFunc) (types.BenchmarkReport, error) {
	start := time.Now()
	baseRes, err := baseline(ctx)
	if err != nil {
		return types.BenchmarkReport{}, fmt.Errorf("baseline extraction: %w", err)
	}
	baseTime := time.Since(start)

	start = time.Now()
	enhRes, err := enhanced(ctx)
	if err != nil {
		return types.BenchmarkReport{}, fmt.Errorf("enhanced extraction: %w", err)
	}
	enhTime := time.Since(start)

	report := types.BenchmarkReport{
		BaselineTime:   baseTime,
		EnhancedTime:   enhTime,
		BaselinePoints: baseRes.TotalPoints,
		EnhancedPoints: enhRes.TotalPoints,
	}
	if baseRes.TotalPoints > 0 {
		report.ImprovementPct = 100 * float64(enhRes.TotalPoints-baseRes.TotalPoints) / float64(baseRes.TotalPoints)
	}
	report.Detail = fmt.Sprintf(
		"baseline: %d curves, %d points in %s; enhanced: %d curves, %d points in %s",
		len(baseRes.Curves), baseRes.TotalPoints, baseTime.Round(time.Millisecond),
		len(enhRes.Curves), enhRes.TotalPoints, enhTime.Round(time.Millisecond),
	)
	return report, nil
}
