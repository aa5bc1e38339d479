// Package curveextract converts raster images of plotted device
// characteristics into calibrated numeric data: ordered (x, y) point
// sequences in engineering units, one per visually distinct curve color.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		curveextract "github.com/PM45W/ESpice-sub007"
//		"github.com/PM45W/ESpice-sub007/pkg/types"
//	)
//
//	func main() {
//		engine, err := curveextract.New(curveextract.Options{})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		img, err := engine.LoadImage("iv_curve.png")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		cfg := types.AxisConfig{
//			XMin: 0, XMax: 10, YMin: 0, YMax: 100,
//			XScaleType: types.ScaleLinear, YScaleType: types.ScaleLinear,
//			XScale: 1, YScale: 1,
//		}
//
//		result, err := engine.ExtractCurves(context.Background(), img, []string{"red"}, cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("extracted %d curves, %d points\n", len(result.Curves), result.TotalPoints)
//	}
//
// The engine selects among three interchangeable backend strategies: the
// remote processing service, the legacy local pipeline, and a
// vision-model-assisted path that infers axis calibration before
// extracting. An unhealthy preferred backend fails loudly instead of
// silently downgrading to a lower-fidelity strategy.
package curveextract

import (
	"context"
	"fmt"
	"image"

	"github.com/PM45W/ESpice-sub007/internal/imageio"
	"github.com/PM45W/ESpice-sub007/pkg/backend"
	"github.com/PM45W/ESpice-sub007/pkg/batch"
	"github.com/PM45W/ESpice-sub007/pkg/client"
	"github.com/PM45W/ESpice-sub007/pkg/export"
	"github.com/PM45W/ESpice-sub007/pkg/extraction"
	"github.com/PM45W/ESpice-sub007/pkg/fitting"
	"github.com/PM45W/ESpice-sub007/pkg/llamacpp"
	"github.com/PM45W/ESpice-sub007/pkg/llm"
	"github.com/PM45W/ESpice-sub007/pkg/ollama"
	"github.com/PM45W/ESpice-sub007/pkg/orchestrator"
	"github.com/PM45W/ESpice-sub007/pkg/presets"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Version of the curve extraction library
const Version = "1.0.0"

// Options configures an Engine. Zero values produce a local-only engine
// with adaptive fitting.
type Options struct {
	// Preferred backend: "remote", "vision", or "local" (default).
	Preferred string

	// ServiceURL enables the remote processing backend.
	ServiceURL string

	// Vision model settings; VisionURL enables the vision backend.
	VisionProvider string // "ollama" (default) or "llamacpp"
	VisionURL      string
	VisionModel    string

	// FitMode selects the curve fitting strategy (default adaptive).
	FitMode fitting.Mode

	// Denoise enables a Gaussian pre-blur on the local pipeline;
	// BlurRadius overrides the default radius when positive.
	Denoise    bool
	BlurRadius float64

	// PresetPath overrides the preset file location.
	PresetPath string

	// BatchWorkers sizes the batch pool (default 4).
	BatchWorkers int
}

// Engine is the top-level context object. Construct one at startup and
// pass it to consumers; it owns the orchestrator, preset store, and batch
// coordinator.
type Engine struct {
	orch        *orchestrator.Orchestrator
	analyzer    *llm.Analyzer
	store       *presets.Store
	coordinator *batch.Coordinator
}

// New builds an Engine from options.
func New(opts Options) (*Engine, error) {
	mode := opts.FitMode
	if mode == "" {
		mode = fitting.ModeAdaptive
	}
	extCfg := extraction.DefaultConfig()
	extCfg.Denoise = opts.Denoise
	if opts.BlurRadius > 0 {
		extCfg.BlurRadius = opts.BlurRadius
	}
	local := backend.NewLocalWithExtraction(mode, extCfg)

	var analyzer *llm.Analyzer
	var vision *backend.Vision
	if opts.VisionURL != "" {
		var vc client.VisionClient
		var err error
		switch opts.VisionProvider {
		case "", "ollama":
			vc, err = ollama.NewClient(opts.VisionURL)
		case "llamacpp":
			vc, err = llamacpp.NewClient(opts.VisionURL)
		default:
			err = fmt.Errorf("unknown vision provider: %s", opts.VisionProvider)
		}
		if err != nil {
			return nil, err
		}
		analyzer = llm.NewAnalyzer(vc, opts.VisionModel)
		vision = backend.NewVision(analyzer, local)
	}

	var remote *backend.Remote
	if opts.ServiceURL != "" {
		remote = backend.NewRemote(opts.ServiceURL)
	}

	ordered, err := orderBackends(opts.Preferred, remote, local, vision)
	if err != nil {
		return nil, err
	}
	orch, err := orchestrator.New(ordered...)
	if err != nil {
		return nil, err
	}

	presetPath := opts.PresetPath
	if presetPath == "" {
		presetPath = presets.DefaultPath()
	}
	workers := opts.BatchWorkers
	if workers < 1 {
		workers = 4
	}

	return &Engine{
		orch:        orch,
		analyzer:    analyzer,
		store:       presets.NewStore(presetPath),
		coordinator: batch.New(workers),
	}, nil
}

// orderBackends puts the preferred backend first, dropping any that were
// not configured.
func orderBackends(preferred string, remote *backend.Remote, local *backend.Local, vision *backend.Vision) ([]backend.Backend, error) {
	available := map[string]backend.Backend{}
	if remote != nil {
		available["remote"] = remote
	}
	available["local"] = local
	if vision != nil {
		available["vision"] = vision
	}

	if preferred == "" {
		preferred = "local"
	}
	first, ok := available[preferred]
	if !ok {
		return nil, fmt.Errorf("preferred backend %q is not configured", preferred)
	}

	ordered := []backend.Backend{first}
	for _, name := range []string{"remote", "local", "vision"} {
		if name == preferred {
			continue
		}
		if b, ok := available[name]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

// LoadImage loads an image from a file path.
func (e *Engine) LoadImage(path string) (image.Image, error) {
	return imageio.Load(path)
}

// LoadImageSmart loads an image from a file path or URL.
func (e *Engine) LoadImageSmart(source string) (image.Image, error) {
	return imageio.LoadSmart(source)
}

// DetectColors reports the dominant curve-candidate colors in an image.
func (e *Engine) DetectColors(ctx context.Context, img image.Image) ([]types.DetectedColor, error) {
	return e.orch.DetectColors(ctx, img)
}

// ExtractCurves extracts calibrated curves using the preferred backend.
func (e *Engine) ExtractCurves(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error) {
	return e.orch.ExtractCurves(ctx, img, colorIDs, cfg)
}

// ExtractCurvesLegacy extracts curves with the legacy local heuristic.
func (e *Engine) ExtractCurvesLegacy(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error) {
	return e.orch.ExtractCurvesLegacy(ctx, img, colorIDs, cfg)
}

// ExtractCurvesVision extracts curves with the vision-model-assisted
// strategy, optionally forwarding a natural-language hint to the model.
func (e *Engine) ExtractCurvesVision(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig, hint string) (*types.ExtractionResult, error) {
	return e.orch.ExtractCurvesVision(ctx, img, colorIDs, cfg, hint)
}

// AnalyzeGraph runs the advisory vision-model analysis alone.
func (e *Engine) AnalyzeGraph(ctx context.Context, img image.Image, hint string) (*types.LLMAnalysis, error) {
	if e.analyzer == nil {
		return nil, fmt.Errorf("%w: no vision backend configured", types.ErrServiceUnavailable)
	}
	return e.analyzer.AnalyzeGraph(ctx, img, hint), nil
}

// ValidateResult scores an extraction against its vision analysis.
func (e *Engine) ValidateResult(result *types.ExtractionResult, analysis *types.LLMAnalysis) types.ValidationReport {
	return llm.ValidateResult(result, analysis)
}

// Benchmark compares the baseline local extraction with the
// vision-enhanced pipeline on the same image and axis config.
func (e *Engine) Benchmark(ctx context.Context, img image.Image, cfg types.AxisConfig) (types.BenchmarkReport, error) {
	enhancedCfg := cfg
	enhancedCfg.UseLLMAnalysis = true

	return llm.Benchmark(ctx,
		func(ctx context.Context) (*types.ExtractionResult, error) {
			return e.orch.ExtractCurvesLegacy(ctx, img, nil, cfg)
		},
		func(ctx context.Context) (*types.ExtractionResult, error) {
			return e.orch.ExtractCurvesVision(ctx, img, nil, enhancedCfg, "")
		},
	)
}

// SavePreset stores a reusable axis calibration (last write wins).
func (e *Engine) SavePreset(preset types.GraphPreset) error {
	return e.store.Save(preset)
}

// LoadPresets returns all saved presets.
func (e *Engine) LoadPresets() ([]types.GraphPreset, error) {
	return e.store.Load()
}

// DeletePreset removes a preset by ID.
func (e *Engine) DeletePreset(id string) error {
	return e.store.Delete(id)
}

// ExportCSV renders curves as CSV text with 6-decimal coordinates.
func (e *Engine) ExportCSV(curves []types.Curve, labels map[string]string) string {
	return export.CSV(curves, labels)
}

// RunBatch processes jobs with bounded concurrency and returns the
// coordinator's rolling statistics.
func (e *Engine) RunBatch(ctx context.Context, jobs []*types.ExtractionJob) batch.Stats {
	e.coordinator.Run(ctx, jobs, func(ctx context.Context, job *types.ExtractionJob) (*types.ExtractionResult, error) {
		img, err := imageio.LoadSmart(job.ImagePath)
		if err != nil {
			return nil, err
		}
		return e.orch.ExtractCurves(ctx, img, job.ColorIDs, job.Config)
	})
	return e.coordinator.Stats()
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
