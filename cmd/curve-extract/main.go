package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	curveextract "github.com/PM45W/ESpice-sub007"
	"github.com/PM45W/ESpice-sub007/internal/config"
	"github.com/PM45W/ESpice-sub007/pkg/fitting"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

func main() {
	var in, batchDir, out, colorList string
	var backendName, serviceURL, visionProvider, visionURL, model, hint string
	var cfgPath, fitMode string
	var xMin, xMax, yMin, yMax, blurRadius float64
	var xLog, yLog, useLLM, denoise, detectOnly, analyzeOnly, benchmark bool
	var workers int

	flag.StringVar(&in, "in", "", "input graph image path or URL (jpg/png/webp)")
	flag.StringVar(&batchDir, "batch", "", "directory of graph images to process as a batch")
	flag.StringVar(&out, "out", "curves.csv", "output CSV path")
	flag.StringVar(&colorList, "colors", "", "comma-separated curve colors (e.g. red,blue); empty = detect")

	flag.StringVar(&backendName, "backend", "", "preferred backend: remote, local, or vision")
	flag.StringVar(&serviceURL, "url", "", "remote processing service URL")
	flag.StringVar(&visionProvider, "vision-provider", "", "vision provider: ollama or llamacpp")
	flag.StringVar(&visionURL, "vision-url", "", "vision model server URL")
	flag.StringVar(&model, "model", "", "vision model name")
	flag.StringVar(&hint, "hint", "", "natural-language hint forwarded to the vision model")

	flag.StringVar(&cfgPath, "config", "", "config file path (defaults to "+config.GetConfigPath()+")")
	flag.StringVar(&fitMode, "fit", "", "fitting mode: linear, polynomial, spline, or adaptive")
	flag.BoolVar(&denoise, "denoise", false, "apply a Gaussian pre-blur before pixel matching")
	flag.Float64Var(&blurRadius, "blur", 0, "denoise blur radius (0 = default)")

	flag.Float64Var(&xMin, "xmin", 0, "x-axis minimum")
	flag.Float64Var(&xMax, "xmax", 1, "x-axis maximum")
	flag.Float64Var(&yMin, "ymin", 0, "y-axis minimum")
	flag.Float64Var(&yMax, "ymax", 1, "y-axis maximum")
	flag.BoolVar(&xLog, "xlog", false, "x-axis is logarithmic")
	flag.BoolVar(&yLog, "ylog", false, "y-axis is logarithmic")
	flag.BoolVar(&useLLM, "use-llm", false, "let vision analysis overwrite the axis calibration")

	flag.BoolVar(&detectOnly, "detect", false, "only detect curve colors and print them")
	flag.BoolVar(&analyzeOnly, "analyze", false, "only run vision analysis and print it")
	flag.BoolVar(&benchmark, "bench", false, "compare baseline and vision-enhanced extraction")
	flag.IntVar(&workers, "workers", 0, "batch worker pool size")

	flag.Parse()
	if in == "" && batchDir == "" {
		log.Fatalf("usage: %s -in graph.png [-colors red,blue] [-xmin 0 -xmax 10 -ymin 0 -ymax 100] [-backend remote|local|vision] [-out curves.csv]", filepath.Base(os.Args[0]))
	}

	cfg := loadConfig(cfgPath)
	overlayFlags(cfg, backendName, serviceURL, visionProvider, visionURL, model, fitMode, workers, denoise, blurRadius)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	engine, err := curveextract.New(curveextract.Options{
		Preferred:      cfg.Backend.Preferred,
		ServiceURL:     cfg.Backend.ServiceURL,
		VisionProvider: cfg.Vision.Provider,
		VisionURL:      visionURLFor(cfg),
		VisionModel:    cfg.Vision.Model,
		FitMode:        fitting.Mode(cfg.Extraction.FitMode),
		Denoise:        cfg.Extraction.Denoise,
		BlurRadius:     cfg.Extraction.BlurRadius,
		PresetPath:     cfg.Extraction.PresetPath,
		BatchWorkers:   cfg.Batch.Workers,
	})
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	axis := types.AxisConfig{
		XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax,
		XScaleType: scaleType(xLog), YScaleType: scaleType(yLog),
		XScale: 1, YScale: 1,
		UseLLMAnalysis: useLLM,
	}

	ctx := context.Background()

	if batchDir != "" {
		runBatch(ctx, engine, batchDir, splitColors(colorList), axis)
		return
	}

	img, err := engine.LoadImageSmart(in)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case detectOnly:
		detected, err := engine.DetectColors(ctx, img)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(detected)

	case analyzeOnly:
		analysis, err := engine.AnalyzeGraph(ctx, img, hint)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(analysis)

	case benchmark:
		report, err := engine.Benchmark(ctx, img, axis)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(report)

	default:
		result, err := engine.ExtractCurves(ctx, img, splitColors(colorList), axis)
		if err != nil {
			log.Fatal(err)
		}
		if !result.Success {
			log.Fatalf("extraction yielded no curves: %s", result.Error)
		}
		log.Printf("extracted %d curves, %d points in %s (method=%s)",
			len(result.Curves), result.TotalPoints, result.ProcessingTime, result.Metadata.Method)

		csv := engine.ExportCSV(result.Curves, nil)
		if err := os.WriteFile(out, []byte(csv), 0o644); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", out)
	}
}

func runBatch(ctx context.Context, engine *curveextract.Engine, dir string, colorIDs []string, axis types.AxisConfig) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatal(err)
	}

	var jobs []*types.ExtractionJob
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		jobs = append(jobs, types.NewJob(entry.Name(), path, colorIDs, axis))
	}
	if len(jobs) == 0 {
		log.Fatalf("no image files found in %s", dir)
	}

	stats := engine.RunBatch(ctx, jobs)
	for _, job := range jobs {
		if job.Status == types.JobCompleted {
			log.Printf("%s: %d points", job.ID, job.Result.TotalPoints)
		} else {
			log.Printf("%s: FAILED: %s", job.ID, job.Error)
		}
	}
	log.Printf("batch done: %d processed, %.0f%% success, avg %s",
		stats.TotalProcessed, 100*stats.SuccessRate, stats.AvgDuration)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		path = config.GetConfigPath()
		if _, err := os.Stat(path); err != nil {
			return config.Default()
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func overlayFlags(cfg *config.Config, backendName, serviceURL, visionProvider, visionURL, model, fitMode string, workers int, denoise bool, blurRadius float64) {
	if backendName != "" {
		cfg.Backend.Preferred = backendName
	}
	if serviceURL != "" {
		cfg.Backend.ServiceURL = serviceURL
	}
	if visionProvider != "" {
		cfg.Vision.Provider = visionProvider
	}
	if visionURL != "" {
		cfg.Vision.URL = visionURL
	}
	if model != "" {
		cfg.Vision.Model = model
	}
	if fitMode != "" {
		cfg.Extraction.FitMode = fitMode
	}
	if workers > 0 {
		cfg.Batch.Workers = workers
	}
	if denoise {
		cfg.Extraction.Denoise = true
	}
	if blurRadius > 0 {
		cfg.Extraction.BlurRadius = blurRadius
	}
}

// visionURLFor only enables the vision backend when it is actually needed,
// so local-only runs never construct a vision client.
func visionURLFor(cfg *config.Config) string {
	if cfg.Backend.Preferred == "vision" || cfg.Vision.URL != "" {
		return cfg.Vision.URL
	}
	return ""
}

func scaleType(logScale bool) types.ScaleType {
	if logScale {
		return types.ScaleLog
	}
	return types.ScaleLinear
}

func splitColors(list string) []string {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".gif":
		return true
	}
	return false
}

func printJSON(v interface{}) {
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(js))
}
