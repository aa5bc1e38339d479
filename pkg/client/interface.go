package client

import (
	"context"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// VisionClient is the contract for vision-capable inference backends.
// Implementations exist for Ollama and for llama.cpp's OpenAI-compatible
// server.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeGraph(ctx context.Context, model, prompt, imgB64 string) (*types.LLMAnalysis, error)
}
