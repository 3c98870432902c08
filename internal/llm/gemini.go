package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/settings"
	"github.com/petervd13-web/Recipe33/internal/shared"
)

// Gemini serves both gateway operations on one vision-capable model.
// The model is pinned to JSON output; responses still go through
// ExtractJSON before decoding.
type Gemini struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGemini creates a Gemini API client.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)

	return &Gemini{client: client, model: model, modelName: modelName}, nil
}

// Analyze sends the prompt plus image blobs and decodes the returned
// three-variation analysis.
func (g *Gemini) Analyze(ctx context.Context, prefs settings.Settings, images []Image, text string) (*recipe.Analysis, shared.CallMeta, error) {
	start := time.Now()
	meta := shared.CallMeta{Operation: "analyze"}

	prompt, err := buildAnalyzePrompt(prefs, text, len(images))
	if err != nil {
		return nil, meta, err
	}

	parts := make([]genai.Part, 0, len(images)+1)
	parts = append(parts, genai.Text(prompt))
	for _, img := range images {
		parts = append(parts, genai.ImageData(img.Format, img.Data))
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to generate content: %w", err)
	}
	meta.Usage = g.usage(resp)
	meta.Latency = time.Since(start)

	content, err := responseText(resp)
	if err != nil {
		return nil, meta, err
	}

	analysis, err := decodeAnalysis(content)
	if err != nil {
		return nil, meta, err
	}
	return analysis, meta, nil
}

// Refine sends the current analysis plus the instruction and decodes
// the full replacement structure.
func (g *Gemini) Refine(ctx context.Context, prefs settings.Settings, base *recipe.Analysis, instruction string) (*recipe.Analysis, shared.CallMeta, error) {
	start := time.Now()
	meta := shared.CallMeta{Operation: "refine"}

	prompt, err := buildRefinePrompt(prefs, base, instruction)
	if err != nil {
		return nil, meta, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, meta, fmt.Errorf("failed to generate content: %w", err)
	}
	meta.Usage = g.usage(resp)
	meta.Latency = time.Since(start)

	content, err := responseText(resp)
	if err != nil {
		return nil, meta, err
	}

	analysis, err := decodeAnalysis(content)
	if err != nil {
		return nil, meta, err
	}
	return analysis, meta, nil
}

// Close closes the underlying Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) usage(resp *genai.GenerateContentResponse) shared.TokenUsage {
	usage := shared.TokenUsage{Model: g.modelName}
	if resp != nil && resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return usage
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("generated content is not text")
	}
	return b.String(), nil
}
