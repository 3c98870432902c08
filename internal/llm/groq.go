package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/settings"
	"github.com/petervd13-web/Recipe33/internal/shared"
)

const (
	groqAPIURL       = "https://api.groq.com/openai/v1/chat/completions"
	groqDefaultModel = "llama-3.3-70b-versatile"
)

// Groq is a text-only Refiner over the OpenAI-compatible
// chat-completions API. It cannot Analyze (no image input), so it is
// always composed with Gemini via Split.
type Groq struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGroq creates a Groq API client. An empty model selects the
// default.
func NewGroq(apiKey, model string) *Groq {
	if model == "" {
		model = groqDefaultModel
	}
	return &Groq{
		apiKey:  apiKey,
		model:   model,
		baseURL: groqAPIURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Refine sends the refine prompt as a single user message and decodes
// the full replacement analysis.
func (g *Groq) Refine(ctx context.Context, prefs settings.Settings, base *recipe.Analysis, instruction string) (*recipe.Analysis, shared.CallMeta, error) {
	start := time.Now()
	meta := shared.CallMeta{Operation: "refine", Usage: shared.TokenUsage{Model: g.model}}

	prompt, err := buildRefinePrompt(prefs, base, instruction)
	if err != nil {
		return nil, meta, err
	}

	reqBody := map[string]interface{}{
		"model": g.model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature":     0.1,
		"response_format": map[string]string{"type": "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, meta, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, meta, fmt.Errorf("groq api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var groqResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&groqResp); err != nil {
		return nil, meta, fmt.Errorf("failed to decode response: %w", err)
	}

	meta.Usage.PromptTokens = groqResp.Usage.PromptTokens
	meta.Usage.CompletionTokens = groqResp.Usage.CompletionTokens
	meta.Usage.TotalTokens = groqResp.Usage.TotalTokens
	meta.Latency = time.Since(start)

	if len(groqResp.Choices) == 0 {
		return nil, meta, fmt.Errorf("no content generated")
	}

	analysis, err := decodeAnalysis(groqResp.Choices[0].Message.Content)
	if err != nil {
		return nil, meta, err
	}
	return analysis, meta, nil
}
