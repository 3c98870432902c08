// Package llm is the AI analysis gateway: it turns user input into a
// structured recipe analysis and rewrites analyses on instruction. Both
// operations return the full three-variation structure or an error;
// callers never receive a partial result.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/settings"
	"github.com/petervd13-web/Recipe33/internal/shared"
)

// Image is an opaque input blob plus its format hint, e.g. "jpeg".
type Image struct {
	Format string
	Data   []byte
}

// Analyzer produces a recipe analysis from images and free text.
type Analyzer interface {
	Analyze(ctx context.Context, prefs settings.Settings, images []Image, text string) (*recipe.Analysis, shared.CallMeta, error)
}

// Refiner rewrites an existing analysis per a free-text instruction,
// returning the complete replacement structure.
type Refiner interface {
	Refine(ctx context.Context, prefs settings.Settings, base *recipe.Analysis, instruction string) (*recipe.Analysis, shared.CallMeta, error)
}

// Gateway is the full AI surface the session consumes.
type Gateway interface {
	Analyzer
	Refiner
}

// Split routes the two operations to different providers, e.g. Gemini
// for the multimodal analyze path and a text-only provider for refine.
type Split struct {
	Analyzer
	Refiner
}

// decodeAnalysis parses a model response into a validated analysis.
// A response that does not carry the complete structure is an error;
// the caller's current state stays untouched.
func decodeAnalysis(raw string) (*recipe.Analysis, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var analysis recipe.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("model returned incomplete analysis: %w", err)
	}
	return &analysis, nil
}
