package llm

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// fakeVisionClient returns canned answers and records the prompts it saw.
type fakeVisionClient struct {
	analysis   *types.LLMAnalysis
	analyzeErr error
	queryReply string
	queryErr   error
	lastPrompt string
}

func (f *fakeVisionClient) SimpleQuery(ctx context.Context, model, prompt, imageBase64 string) (string, error) {
	f.lastPrompt = prompt
	return f.queryReply, f.queryErr
}

func (f *fakeVisionClient) AnalyzeGraph(ctx context.Context, model, prompt, imageBase64 string) (*types.LLMAnalysis, error) {
	f.lastPrompt = prompt
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analysis, nil
}

func probeImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, 4, color.RGBA{255, 0, 0, 255})
	}
	return img
}

func goodAnalysis() *types.LLMAnalysis {
	return &types.LLMAnalysis{
		GraphType: "iv_curve",
		XAxis:     types.AxisAnalysis{Name: "VDS", Unit: "V", Min: 0, Max: 20, ScaleType: types.ScaleLinear},
		YAxis:     types.AxisAnalysis{Name: "ID", Unit: "A", Min: 0, Max: 10, ScaleType: types.ScaleLinear},
		Curves: []types.CurveDescriptor{
			{Color: "red", Label: "VGS=5V", Confidence: 0.9},
		},
		Confidence: 0.8,
	}
}

func TestAnalyzeGraph(t *testing.T) {
	fake := &fakeVisionClient{analysis: goodAnalysis()}
	a := NewAnalyzer(fake, "llama3.2-vision")

	analysis := a.AnalyzeGraph(context.Background(), probeImage(), "")
	if analysis.GraphType != "iv_curve" {
		t.Errorf("got graph type %q", analysis.GraphType)
	}
	if analysis.ProcessingTime <= 0 {
		t.Error("processing time not recorded")
	}
	if strings.Contains(fake.lastPrompt, "Context from the user") {
		t.Error("hint section present without a hint")
	}
}

func TestAnalyzeGraph_HintAppended(t *testing.T) {
	fake := &fakeVisionClient{analysis: goodAnalysis()}
	a := NewAnalyzer(fake, "llama3.2-vision")

	a.AnalyzeGraph(context.Background(), probeImage(), "MOSFET output characteristics")
	if !strings.Contains(fake.lastPrompt, "MOSFET output characteristics") {
		t.Error("hint not forwarded to the model")
	}
}

func TestAnalyzeGraph_BackendFailureIsAdvisory(t *testing.T) {
	fake := &fakeVisionClient{analyzeErr: fmt.Errorf("model not loaded")}
	a := NewAnalyzer(fake, "llama3.2-vision")

	analysis := a.AnalyzeGraph(context.Background(), probeImage(), "")
	if analysis == nil {
		t.Fatal("failed analysis must still be returned")
	}
	if analysis.Confidence != 0 {
		t.Errorf("failed analysis confidence: %f, want 0", analysis.Confidence)
	}
	if analysis.Error == "" {
		t.Error("failed analysis should carry the reason")
	}
}

func TestTestVision(t *testing.T) {
	fake := &fakeVisionClient{queryReply: "a red horizontal line"}
	a := NewAnalyzer(fake, "llama3.2-vision")

	reply, err := a.TestVision(context.Background(), probeImage())
	if err != nil {
		t.Fatal(err)
	}
	if reply != "a red horizontal line" {
		t.Errorf("got reply %q", reply)
	}
	if fake.lastPrompt != VisionProbePrompt {
		t.Errorf("probe used prompt %q", fake.lastPrompt)
	}
}

func TestMergeIntoConfig(t *testing.T) {
	base := types.AxisConfig{
		XMin: 0, XMax: 1, YMin: 0, YMax: 1,
		XScaleType: types.ScaleLinear, YScaleType: types.ScaleLinear,
		XScale: 1, YScale: 1,
	}

	merged := MergeIntoConfig(goodAnalysis(), base)
	if merged.XMax != 20 || merged.YMax != 10 {
		t.Errorf("bounds not applied: %+v", merged)
	}
	if merged.XAxisName != "VDS" || merged.YAxisName != "ID" {
		t.Errorf("axis names not applied: %+v", merged)
	}
	if merged.XScale != 1 || merged.YScale != 1 {
		t.Errorf("scale factors must survive the merge: %+v", merged)
	}
}

func TestMergeIntoConfig_ZeroConfidenceIgnored(t *testing.T) {
	base := types.DefaultAxisConfig()
	failed := &types.LLMAnalysis{Confidence: 0, Error: "vision backend error"}

	if merged := MergeIntoConfig(failed, base); merged != base {
		t.Errorf("zero-confidence analysis changed the config: %+v", merged)
	}
	if merged := MergeIntoConfig(nil, base); merged != base {
		t.Errorf("nil analysis changed the config: %+v", merged)
	}
}

func TestMergeIntoConfig_BadBoundsIgnored(t *testing.T) {
	base := types.DefaultAxisConfig()

	bad := goodAnalysis()
	bad.XAxis.Min, bad.XAxis.Max = 5, 5 // degenerate
	bad.YAxis.Min, bad.YAxis.Max = 9, 3 // inverted

	merged := MergeIntoConfig(bad, base)
	if merged.XMin != base.XMin || merged.XMax != base.XMax {
		t.Errorf("degenerate x bounds applied: %+v", merged)
	}
	if merged.YMin != base.YMin || merged.YMax != base.YMax {
		t.Errorf("inverted y bounds applied: %+v", merged)
	}
}

func TestValidateResult_GoodExtraction(t *testing.T) {
	result := &types.ExtractionResult{
		Success: true,
		Curves: []types.Curve{
			{ID: "curve_0", Quality: 0.9, Points: make([]types.CurvePoint, 50)},
		},
		TotalPoints: 50,
	}
	report := ValidateResult(result, goodAnalysis())

	if !report.Valid {
		t.Errorf("good extraction invalid: %+v", report)
	}
	if report.Score != 100 {
		t.Errorf("score: %f, want 100", report.Score)
	}
	if len(report.Issues) != 0 {
		t.Errorf("unexpected issues: %v", report.Issues)
	}
}

func TestValidateResult_NothingExtracted(t *testing.T) {
	failed := &types.LLMAnalysis{Confidence: 0}
	report := ValidateResult(nil, failed)

	// -40 for no curves, -15 for low analysis confidence, -5 each for
	// missing axis names.
	if report.Valid {
		t.Error("empty extraction with failed analysis scored as valid")
	}
	if report.Score != 35 {
		t.Errorf("score: %f, want 35", report.Score)
	}
	if len(report.Issues) == 0 {
		t.Error("issues not reported")
	}
}

func TestValidateResult_SparseAndLowQualityCurves(t *testing.T) {
	result := &types.ExtractionResult{
		Success: true,
		Curves: []types.Curve{
			{ID: "curve_0", Quality: 0.3, Points: make([]types.CurvePoint, 3)},
		},
	}
	report := ValidateResult(result, goodAnalysis())

	// -10 sparse, -10 low quality.
	if report.Score != 80 {
		t.Errorf("score: %f, want 80", report.Score)
	}
	if !report.Valid {
		t.Error("score 80 should still pass")
	}
	if len(report.Suggestions) == 0 {
		t.Error("sparse curve should yield a suggestion")
	}
}

func TestValidateResult_ScoreFloor(t *testing.T) {
	result := &types.ExtractionResult{
		Curves: func() []types.Curve {
			curves := make([]types.Curve, 6)
			for i := range curves {
				curves[i] = types.Curve{ID: fmt.Sprintf("curve_%d", i), Quality: 0.1, Points: make([]types.CurvePoint, 2)}
			}
			return curves
		}(),
	}
	failed := &types.LLMAnalysis{Confidence: 0}

	report := ValidateResult(result, failed)
	if report.Score < 0 {
		t.Errorf("score went negative: %f", report.Score)
	}
}

func TestBenchmark(t *testing.T) {
	baseline := func(ctx context.Context) (*types.ExtractionResult, error) {
		return &types.ExtractionResult{Success: true, TotalPoints: 100, Curves: make([]types.Curve, 1)}, nil
	}
	enhanced := func(ctx context.Context) (*types.ExtractionResult, error) {
		return &types.ExtractionResult{Success: true, TotalPoints: 150, Curves: make([]types.Curve, 2)}, nil
	}

	report, err := Benchmark(context.Background(), baseline, enhanced)
	if err != nil {
		t.Fatal(err)
	}
	if report.BaselinePoints != 100 || report.EnhancedPoints != 150 {
		t.Errorf("point counts: %+v", report)
	}
	if report.ImprovementPct != 50 {
		t.Errorf("improvement: %f, want 50", report.ImprovementPct)
	}
	if report.Detail == "" {
		t.Error("detail missing")
	}
}

func TestBenchmark_BaselineFailure(t *testing.T) {
	failing := func(ctx context.Context) (*types.ExtractionResult, error) {
		return nil, fmt.Errorf("decode error")
	}
	ok := func(ctx context.Context) (*types.ExtractionResult, error) {
		return &types.ExtractionResult{Success: true}, nil
	}

	if _, err := Benchmark(context.Background(), failing, ok); err == nil {
		t.Error("expected error when the baseline fails")
	}
}
