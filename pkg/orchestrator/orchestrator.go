// Package orchestrator exposes the public extraction API and selects among
// the interchangeable backend strategies.
package orchestrator

import (
	"context"
	"fmt"
	"image"

	"github.com/PM45W/ESpice-sub007/pkg/backend"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Orchestrator holds backends in priority order. The first backend is the
// preferred strategy; the others are alternative, explicitly-selected
// strategies. An unhealthy preferred backend is an explicit failure —
// correctness of published numeric data takes priority over availability,
// so there is no silent fallback to a lower-fidelity backend.
type Orchestrator struct {
	backends []backend.Backend
}

// New creates an Orchestrator. Backends are given in priority order and at
// least one is required.
func New(backends ...backend.Backend) (*Orchestrator, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("orchestrator needs at least one backend")
	}
	return &Orchestrator{backends: backends}, nil
}

// Preferred returns the highest-priority backend.
func (o *Orchestrator) Preferred() backend.Backend {
	return o.backends[0]
}

// Backend returns a backend by name for explicit selection.
func (o *Orchestrator) Backend(name string) (backend.Backend, bool) {
	for _, b := range o.backends {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// DetectColors reports the dominant curve-candidate colors using the
// preferred backend.
func (o *Orchestrator) DetectColors(ctx context.Context, img image.Image) ([]types.DetectedColor, error) {
	b := o.Preferred()
	if err := o.gate(ctx, b); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, backend.DetectTimeout)
	defer cancel()
	return b.DetectColors(callCtx, img)
}

// ExtractCurves runs an extraction on the preferred backend.
func (o *Orchestrator) ExtractCurves(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error) {
	return o.extractOn(ctx, o.Preferred(), img, colorIDs, cfg)
}

// ExtractCurvesLegacy runs the legacy local heuristic explicitly.
func (o *Orchestrator) ExtractCurvesLegacy(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error) {
	b, ok := o.Backend("local")
	if !ok {
		return nil, fmt.Errorf("%w: legacy backend not configured", types.ErrServiceUnavailable)
	}
	return o.extractOn(ctx, b, img, colorIDs, cfg)
}

// ExtractCurvesVision runs the vision-model-assisted strategy explicitly.
// A non-empty hint rides along on a per-call copy of the backend.
func (o *Orchestrator) ExtractCurvesVision(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig, hint string) (*types.ExtractionResult, error) {
	b, ok := o.Backend("vision")
	if !ok {
		return nil, fmt.Errorf("%w: vision backend not configured", types.ErrServiceUnavailable)
	}
	if v, ok := b.(*backend.Vision); ok && hint != "" {
		b = v.WithHint(hint)
	}
	return o.extractOn(ctx, b, img, colorIDs, cfg)
}

func (o *Orchestrator) extractOn(ctx context.Context, b backend.Backend, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error) {
	// Configuration problems are rejected before any pixel work.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := o.gate(ctx, b); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, backend.TimeoutFor(b))
	defer cancel()
	return b.ExtractCurves(callCtx, img, colorIDs, cfg)
}

// gate health-checks a backend under the short health timeout.
func (o *Orchestrator) gate(ctx context.Context, b backend.Backend) error {
	healthCtx, cancel := context.WithTimeout(ctx, backend.HealthTimeout)
	defer cancel()
	if err := b.HealthCheck(healthCtx); err != nil {
		return fmt.Errorf("%w: backend %q failed health check: %v", types.ErrServiceUnavailable, b.Name(), err)
	}
	return nil
}
