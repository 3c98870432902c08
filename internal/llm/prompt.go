package llm

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/settings"
)

//go:embed analyze_prompt.md
var analyzePrompt string

//go:embed refine_prompt.md
var refinePrompt string

type analyzeData struct {
	Prefs      settings.Settings
	Equipment  string
	Text       string
	ImageCount int
}

func buildAnalyzePrompt(prefs settings.Settings, text string, imageCount int) (string, error) {
	tmpl, err := template.New("analyze").Parse(analyzePrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, analyzeData{
		Prefs:      prefs,
		Equipment:  equipmentLine(prefs),
		Text:       text,
		ImageCount: imageCount,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

type refineData struct {
	Prefs       settings.Settings
	Equipment   string
	Current     string
	Instruction string
}

func buildRefinePrompt(prefs settings.Settings, base *recipe.Analysis, instruction string) (string, error) {
	current, err := json.Marshal(base)
	if err != nil {
		return "", fmt.Errorf("failed to marshal current analysis: %w", err)
	}

	tmpl, err := template.New("refine").Parse(refinePrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, refineData{
		Prefs:       prefs,
		Equipment:   equipmentLine(prefs),
		Current:     string(current),
		Instruction: instruction,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func equipmentLine(prefs settings.Settings) string {
	enabled := prefs.EnabledEquipment()
	if len(enabled) == 0 {
		return "none specified"
	}
	return strings.Join(enabled, ", ")
}
