package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Backend    BackendConfig    `json:"backend"`
	Vision     VisionConfig     `json:"vision"`
	Extraction ExtractionConfig `json:"extraction"`
	Batch      BatchConfig      `json:"batch"`
}

// BackendConfig selects and locates the extraction backends
type BackendConfig struct {
	Preferred  string `json:"preferred"` // remote | local | vision
	ServiceURL string `json:"service_url"`
}

// VisionConfig locates the vision-model inference service
type VisionConfig struct {
	Provider string `json:"provider"` // ollama | llamacpp
	URL      string `json:"url"`
	Model    string `json:"model"`
}

// ExtractionConfig tunes the local pipeline
type ExtractionConfig struct {
	FitMode    string  `json:"fit_mode"` // linear | polynomial | spline | adaptive
	Denoise    bool    `json:"denoise"`
	BlurRadius float64 `json:"blur_radius"`
	PresetPath string  `json:"preset_path"`
}

// BatchConfig sizes the batch worker pool
type BatchConfig struct {
	Workers int `json:"workers"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Preferred: "local",
		},
		Vision: VisionConfig{
			Provider: "ollama",
			URL:      "http://localhost:11434",
			Model:    "llama3.2-vision",
		},
		Extraction: ExtractionConfig{
			FitMode:    "adaptive",
			Denoise:    false,
			BlurRadius: 1.5,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend.Preferred {
	case "remote", "local", "vision":
	default:
		return fmt.Errorf("backend.preferred must be remote, local, or vision")
	}

	if c.Backend.Preferred == "remote" && c.Backend.ServiceURL == "" {
		return fmt.Errorf("backend.service_url is required when the remote backend is preferred")
	}

	switch c.Vision.Provider {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("vision.provider must be ollama or llamacpp")
	}

	switch c.Extraction.FitMode {
	case "linear", "polynomial", "spline", "adaptive":
	default:
		return fmt.Errorf("extraction.fit_mode must be linear, polynomial, spline, or adaptive")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "curve-extract", "config.json")
}
