package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PM45W/ESpice-sub007/internal/imageio"
	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// Remote talks to the curve-processing service over HTTP. The service
// receives image bytes plus axis parameters and answers with an explicit
// success flag; non-2xx responses and success:false payloads are both hard
// failures — never silently retried with a local estimator.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemote creates a Remote backend for a service base URL.
func NewRemote(serverURL string) *Remote {
	return &Remote{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

func (r *Remote) Name() string { return "remote" }

type extractRequest struct {
	ImageBase64    string   `json:"image_base64"`
	XMin           float64  `json:"x_min"`
	XMax           float64  `json:"x_max"`
	YMin           float64  `json:"y_min"`
	YMax           float64  `json:"y_max"`
	XScaleType     string   `json:"x_scale_type"`
	YScaleType     string   `json:"y_scale_type"`
	XScale         float64  `json:"x_scale"`
	YScale         float64  `json:"y_scale"`
	SelectedColors []string `json:"selected_colors,omitempty"`
	MinSize        int      `json:"min_size"`
	Sensitivity    float64  `json:"sensitivity"`
}

type serviceResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HealthCheck probes the service's health endpoint.
func (r *Remote) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", r.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health endpoint returned %d", types.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

func (r *Remote) DetectColors(ctx context.Context, img image.Image) ([]types.DetectedColor, error) {
	imgB64, err := imageio.EncodePNGBase64(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}

	data, err := r.post(ctx, "/api/curves/detect-colors", map[string]string{"image_base64": imgB64})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Colors []types.DetectedColor `json:"colors"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse color payload: %v", err)
	}
	return payload.Colors, nil
}

func (r *Remote) ExtractCurves(ctx context.Context, img image.Image, colorIDs []string, cfg types.AxisConfig) (*types.ExtractionResult, error) {
	imgB64, err := imageio.EncodePNGBase64(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}

	reqBody := extractRequest{
		ImageBase64:    imgB64,
		XMin:           cfg.XMin,
		XMax:           cfg.XMax,
		YMin:           cfg.YMin,
		YMax:           cfg.YMax,
		XScaleType:     string(cfg.XScaleType),
		YScaleType:     string(cfg.YScaleType),
		XScale:         cfg.XScale,
		YScale:         cfg.YScale,
		SelectedColors: colorIDs,
		MinSize:        100,
		Sensitivity:    0.5,
	}

	data, err := r.post(ctx, "/api/curves/extract", reqBody)
	if err != nil {
		return nil, err
	}

	var result types.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse extraction payload: %v", err)
	}
	result.Metadata.Method = r.Name()
	bounds := img.Bounds()
	result.Metadata.ImageWidth = bounds.Dx()
	result.Metadata.ImageHeight = bounds.Dy()
	return &result, nil
}

// post sends a JSON request and unwraps the service envelope.
func (r *Remote) post(ctx context.Context, endpoint string, payload interface{}) (json.RawMessage, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope serviceResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("service reported failure: %s", envelope.Error)
	}
	return envelope.Data, nil
}
