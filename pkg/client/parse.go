package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// ParseGraphAnalysis extracts a graph analysis from free-form model output.
// It parses permissively and never fails: when no well-formed payload can
// be recovered it returns a zero-confidence analysis with Error set, since
// the analysis is advisory.
func ParseGraphAnalysis(raw string) *types.LLMAnalysis {
	raw = sanitizeModelJSON(raw)

	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return fallbackAnalysis("model returned non-JSON response")
	}

	var analysis types.LLMAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		// Conservative brace-slice retry before giving up.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return fallbackAnalysis("no valid JSON found in response")
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &analysis); err2 != nil {
			return fallbackAnalysis("failed to parse model response")
		}
	}

	analysis.Confidence = types.Clamp01(analysis.Confidence)
	for i := range analysis.Curves {
		analysis.Curves[i].Confidence = types.Clamp01(analysis.Curves[i].Confidence)
	}
	return &analysis
}

func fallbackAnalysis(reason string) *types.LLMAnalysis {
	return &types.LLMAnalysis{
		GraphType:  "unknown",
		Confidence: 0,
		Error:      reason,
	}
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from
// a model response and keeps only the outermost JSON object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	// Remove /* ... */ block comments
	reBlock := regexp.MustCompile(`(?s)/\*.*?\*/`)
	raw = reBlock.ReplaceAllString(raw, "")

	// Remove // line/inline comments
	reLine := regexp.MustCompile(`(?m)^\s*//.*$`)
	raw = reLine.ReplaceAllString(raw, "")
	reInline := regexp.MustCompile(`(?m)//.*$`)
	raw = reInline.ReplaceAllString(raw, "")

	// Remove trailing commas before } or ]
	reTrailing := regexp.MustCompile(`,(\s*[}\]])`)
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
