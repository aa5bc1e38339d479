package backend

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

func tinyImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	return img
}

func TestRemoteHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := NewRemote(server.URL).HealthCheck(context.Background()); err != nil {
		t.Errorf("healthy service: %v", err)
	}
}

func TestRemoteHealthCheck_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewRemote(server.URL).HealthCheck(context.Background())
	if !errors.Is(err, types.ErrServiceUnavailable) {
		t.Errorf("got %v, want ErrServiceUnavailable", err)
	}
}

func TestRemoteHealthCheck_Unreachable(t *testing.T) {
	err := NewRemote("http://127.0.0.1:1").HealthCheck(context.Background())
	if !errors.Is(err, types.ErrServiceUnavailable) {
		t.Errorf("got %v, want ErrServiceUnavailable", err)
	}
}

func TestRemoteExtractCurves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/curves/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.ImageBase64 == "" {
			t.Error("missing image payload")
		}
		if req.XMax != 10 || req.YMax != 100 {
			t.Errorf("axis bounds not forwarded: xmax=%f ymax=%f", req.XMax, req.YMax)
		}
		if len(req.SelectedColors) != 1 || req.SelectedColors[0] != "red" {
			t.Errorf("selected colors not forwarded: %v", req.SelectedColors)
		}

		result := types.ExtractionResult{
			Curves: []types.Curve{{
				ID:     "curve_0",
				Color:  "red",
				Points: []types.CurvePoint{{X: 1, Y: 10}, {X: 2, Y: 20}},
			}},
			TotalPoints: 2,
			Success:     true,
		}
		data, _ := json.Marshal(result)
		json.NewEncoder(w).Encode(serviceResponse{Success: true, Data: data})
	}))
	defer server.Close()

	cfg := types.AxisConfig{
		XMin: 0, XMax: 10, YMin: 0, YMax: 100,
		XScaleType: types.ScaleLinear, YScaleType: types.ScaleLinear,
		XScale: 1, YScale: 1,
	}

	result, err := NewRemote(server.URL).ExtractCurves(context.Background(), tinyImage(), []string{"red"}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.TotalPoints != 2 {
		t.Errorf("success=%v points=%d, want success with 2 points", result.Success, result.TotalPoints)
	}
	if result.Metadata.Method != "remote" {
		t.Errorf("got method %q, want remote", result.Metadata.Method)
	}
	if result.Metadata.ImageWidth != 4 || result.Metadata.ImageHeight != 4 {
		t.Errorf("image dimensions not recorded: %dx%d", result.Metadata.ImageWidth, result.Metadata.ImageHeight)
	}
}

func TestRemoteExtractCurves_ServiceReportedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(serviceResponse{Success: false, Error: "segmentation failed"})
	}))
	defer server.Close()

	_, err := NewRemote(server.URL).ExtractCurves(context.Background(), tinyImage(), nil, validConfig())
	if err == nil {
		t.Fatal("expected error for success:false envelope")
	}
}

func TestRemoteExtractCurves_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewRemote(server.URL).ExtractCurves(context.Background(), tinyImage(), nil, validConfig())
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestRemoteDetectColors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/curves/detect-colors" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		data, _ := json.Marshal(map[string]interface{}{
			"colors": []types.DetectedColor{{ID: "red", Name: "red", R: 255, PixelCount: 1200, Confidence: 1}},
		})
		json.NewEncoder(w).Encode(serviceResponse{Success: true, Data: data})
	}))
	defer server.Close()

	detected, err := NewRemote(server.URL).DetectColors(context.Background(), tinyImage())
	if err != nil {
		t.Fatal(err)
	}
	if len(detected) != 1 || detected[0].Name != "red" {
		t.Errorf("got %+v, want one red color", detected)
	}
}

func validConfig() types.AxisConfig {
	return types.AxisConfig{
		XMin: 0, XMax: 1, YMin: 0, YMax: 1,
		XScaleType: types.ScaleLinear, YScaleType: types.ScaleLinear,
		XScale: 1, YScale: 1,
	}
}
