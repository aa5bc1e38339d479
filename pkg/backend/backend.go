// Package backend defines the interchangeable extraction strategies: the
// remote processing service, the legacy local pipeline, and the
// vision-model-assisted path.
package backend

import (
	"context"
	"image"
	"time"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Per-call timeouts scale with backend cost.
const (
	HealthTimeout  = 10 * time.Second
	DetectTimeout  = 15 * time.Second
	ExtractTimeout = 30 * time.Second
	LegacyTimeout  = 45 * time.Second
	VisionTimeout  = 60 * time.Second
)

// Backend is one extraction strategy. Implementations must respect context
// cancellation: on timeout a call fails rather than hanging, though an
// in-flight remote request is abandoned, not rolled back.
type Backend interface {
	Name() string
	HealthCheck(ctx context.Context) error
	DetectColors(ctx context.Context, img image.Image) ([]types.DetectedColor, error)
	ExtractCurves(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error)
}

// TimeoutFor returns the extraction timeout appropriate for a backend.
func TimeoutFor(b Backend) time.Duration {
	switch b.Name() {
	case "local":
		return LegacyTimeout
	case "vision":
		return VisionTimeout
	default:
		return ExtractTimeout
	}
}
