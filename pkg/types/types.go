package types

import (
	"fmt"
	"time"
)

// ScaleType selects how pixel positions map onto an axis.
type ScaleType string

const (
	ScaleLinear ScaleType = "linear"
	ScaleLog    ScaleType = "log"
)

// AxisConfig calibrates pixel space to logical (engineering-unit) space for
// one extraction run. It is treated as immutable once an extraction starts.
type AxisConfig struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`

	XScaleType ScaleType `json:"x_scale_type"`
	YScaleType ScaleType `json:"y_scale_type"`

	// Multiplicative unit factors, e.g. 1e-3 when the axis is labeled in mA.
	XScale float64 `json:"x_scale"`
	YScale float64 `json:"y_scale"`

	XAxisName string `json:"x_axis_name,omitempty"`
	YAxisName string `json:"y_axis_name,omitempty"`

	// UseLLMAnalysis lets a successful vision-model analysis overwrite the
	// axis fields above before the pipeline runs.
	UseLLMAnalysis bool `json:"use_llm_analysis,omitempty"`
}

// DefaultAxisConfig returns a calibration for a unit linear graph.
func DefaultAxisConfig() AxisConfig {
	return AxisConfig{
		XMin: 0, XMax: 1, YMin: 0, YMax: 1,
		XScaleType: ScaleLinear, YScaleType: ScaleLinear,
		XScale: 1, YScale: 1,
	}
}

// Validate rejects configurations that cannot describe a real axis pair.
// All failures wrap ErrInvalidConfig.
func (c AxisConfig) Validate() error {
	if c.XMin >= c.XMax {
		return fmt.Errorf("%w: x bounds not strictly ordered (%g >= %g)", ErrInvalidConfig, c.XMin, c.XMax)
	}
	if c.YMin >= c.YMax {
		return fmt.Errorf("%w: y bounds not strictly ordered (%g >= %g)", ErrInvalidConfig, c.YMin, c.YMax)
	}
	if c.XScale <= 0 || c.YScale <= 0 {
		return fmt.Errorf("%w: scale factors must be positive (x=%g, y=%g)", ErrInvalidConfig, c.XScale, c.YScale)
	}
	switch c.XScaleType {
	case ScaleLinear, ScaleLog:
	default:
		return fmt.Errorf("%w: unknown x scale type %q", ErrInvalidConfig, c.XScaleType)
	}
	switch c.YScaleType {
	case ScaleLinear, ScaleLog:
	default:
		return fmt.Errorf("%w: unknown y scale type %q", ErrInvalidConfig, c.YScaleType)
	}
	return nil
}

// DetectedColor is one curve-candidate color found in an image. Produced
// fresh per image and never persisted.
type DetectedColor struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	R          uint8   `json:"r"`
	G          uint8   `json:"g"`
	B          uint8   `json:"b"`
	Hue        float64 `json:"hue"`        // centroid hue, degrees [0,360)
	Saturation float64 `json:"saturation"` // centroid saturation [0,1]
	Value      float64 `json:"value"`      // centroid value [0,1]
	PixelCount int     `json:"pixel_count"`
	Confidence float64 `json:"confidence"` // [0,1]
}

// CurvePoint is a single logical-unit coordinate. It has no identity beyond
// its position.
type CurvePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Curve is an ordered point sequence for one visually distinct trace.
// Points are strictly ascending in x with a minimum spacing enforced by the
// signal conditioner.
type Curve struct {
	ID         string       `json:"id"`
	Color      string       `json:"color"`
	Points     []CurvePoint `json:"points"`
	Quality    float64      `json:"quality"`    // [0,1]
	Confidence float64      `json:"confidence"` // [0,1]

	// Derived metadata, filled by ComputeMetadata.
	XMin     float64 `json:"x_min"`
	XMax     float64 `json:"x_max"`
	YMin     float64 `json:"y_min"`
	YMax     float64 `json:"y_max"`
	AvgSlope float64 `json:"avg_slope"`
}

// ComputeMetadata refreshes the derived min/max and average-slope fields
// from the current point sequence.
func (c *Curve) ComputeMetadata() {
	if len(c.Points) == 0 {
		c.XMin, c.XMax, c.YMin, c.YMax, c.AvgSlope = 0, 0, 0, 0, 0
		return
	}
	c.XMin, c.XMax = c.Points[0].X, c.Points[0].X
	c.YMin, c.YMax = c.Points[0].Y, c.Points[0].Y
	for _, p := range c.Points[1:] {
		if p.X < c.XMin {
			c.XMin = p.X
		}
		if p.X > c.XMax {
			c.XMax = p.X
		}
		if p.Y < c.YMin {
			c.YMin = p.Y
		}
		if p.Y > c.YMax {
			c.YMax = p.Y
		}
	}
	first, last := c.Points[0], c.Points[len(c.Points)-1]
	if dx := last.X - first.X; dx != 0 {
		c.AvgSlope = (last.Y - first.Y) / dx
	}
}

// ResultMetadata carries diagnostics about how an extraction ran.
type ResultMetadata struct {
	ImageWidth   int     `json:"image_width"`
	ImageHeight  int     `json:"image_height"`
	Method       string  `json:"method"`
	QualityScore float64 `json:"quality_score"`
}

// ExtractionResult is the outcome of one extraction run. A pipeline that
// ran but yielded nothing reports Success=false with an error message
// rather than failing with an error, so batch runs can continue.
type ExtractionResult struct {
	Curves         []Curve        `json:"curves"`
	TotalPoints    int            `json:"total_points"`
	ProcessingTime time.Duration  `json:"processing_time"`
	Success        bool           `json:"success"`
	Error          string         `json:"error,omitempty"`
	Metadata       ResultMetadata `json:"metadata"`
}

// JobStatus is the lifecycle state of a batch job. A job never re-enters
// Processing; retries create a fresh job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// ExtractionJob is one unit of batch work, correlated by ID rather than by
// completion order.
type ExtractionJob struct {
	ID        string            `json:"id"`
	ImagePath string            `json:"image_path"`
	ColorIDs  []string          `json:"color_ids,omitempty"`
	Config    AxisConfig        `json:"config"`
	Status    JobStatus         `json:"status"`
	Result    *ExtractionResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// NewJob creates a pending job for one image.
func NewJob(id, imagePath string, colorIDs []string, cfg AxisConfig) *ExtractionJob {
	return &ExtractionJob{
		ID:        id,
		ImagePath: imagePath,
		ColorIDs:  colorIDs,
		Config:    cfg,
		Status:    JobPending,
	}
}

// AxisAnalysis is one axis as inferred by a vision model.
type AxisAnalysis struct {
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Interval  float64   `json:"interval"`
	ScaleType ScaleType `json:"scale_type"`
}

// CurveDescriptor is one curve as described by a vision model.
type CurveDescriptor struct {
	Color       string  `json:"color"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// GraphFeatures flags structural elements the vision model saw.
type GraphFeatures struct {
	HasGrid   bool `json:"has_grid"`
	HasLabels bool `json:"has_labels"`
	HasLegend bool `json:"has_legend"`
}

// LLMAnalysis is the full advisory calibration produced by the enhancement
// layer. A failed analysis is reported as Confidence=0 with Error set, not
// as a Go error.
type LLMAnalysis struct {
	GraphType      string            `json:"graph_type"`
	XAxis          AxisAnalysis      `json:"x_axis"`
	YAxis          AxisAnalysis      `json:"y_axis"`
	Curves         []CurveDescriptor `json:"curves"`
	Features       GraphFeatures     `json:"features"`
	Confidence     float64           `json:"confidence"`
	ProcessingTime time.Duration     `json:"processing_time"`
	Error          string            `json:"error,omitempty"`
}

// GraphPreset is a reusable axis calibration plus color-to-label mapping,
// owned by local persistence. Saves are last-write-wins per ID.
type GraphPreset struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Config      AxisConfig        `json:"config"`
	ColorLabels map[string]string `json:"color_labels,omitempty"`
	SavedAt     time.Time         `json:"saved_at"`
}

// ValidationReport scores an extraction against its vision analysis.
type ValidationReport struct {
	Valid       bool     `json:"valid"`
	Score       float64  `json:"score"` // 0-100
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// BenchmarkReport compares a baseline extraction with the enhanced
// pipeline on the same inputs.
type BenchmarkReport struct {
	BaselineTime   time.Duration `json:"baseline_time"`
	EnhancedTime   time.Duration `json:"enhanced_time"`
	BaselinePoints int           `json:"baseline_points"`
	EnhancedPoints int           `json:"enhanced_points"`
	ImprovementPct float64       `json:"improvement_pct"`
	Detail         string        `json:"detail"`
}

// Clamp01 clamps a confidence-like value into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
