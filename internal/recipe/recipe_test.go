package recipe

import (
	"encoding/json"
	"strings"
	"testing"
)

const validAnalysisJSON = `{
	"title": "Tofu Bowl",
	"original_macros": {"calories": 450, "protein": 25, "fat": 12, "carbs": 40},
	"variations": {
		"proteins": {"ingredients": [{"amount": "300g", "name": "Tofu", "calories": 225, "protein": 30, "fat": 8, "carbs": 5}], "notes": "Extra tofu.", "steps": [{"text": "Press the tofu.", "timer": 600}]},
		"balanced": {"ingredients": [{"amount": "200g", "name": "Tofu", "calories": 150, "protein": 20, "fat": 5, "carbs": 3}, {"amount": "100g", "name": "Rice", "calories": 130, "protein": 3, "fat": 0, "carbs": 29}], "notes": "", "steps": [{"text": "Cook the rice.", "timer": 720}, {"text": "Serve."}]},
		"carbs": {"ingredients": [{"amount": "200g", "name": "Rice", "calories": 260, "protein": 6, "fat": 0, "carbs": 58}], "notes": "Double rice.", "steps": [{"text": "Cook the rice.", "timer": 720}]}
	}
}`

func TestVariationsJSON(t *testing.T) {
	t.Run("AllThreeKeys", func(t *testing.T) {
		var a Analysis
		if err := json.Unmarshal([]byte(validAnalysisJSON), &a); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if len(a.Variations.Balanced.Ingredients) != 2 {
			t.Errorf("Expected 2 balanced ingredients, got %d", len(a.Variations.Balanced.Ingredients))
		}
		if a.Variations.Proteins.Notes != "Extra tofu." {
			t.Errorf("Expected proteins notes 'Extra tofu.', got '%s'", a.Variations.Proteins.Notes)
		}
		if !a.Variations.Carbs.Steps[0].HasTimer() {
			t.Error("Expected carbs step 0 to carry a timer")
		}
		if a.Variations.Balanced.Steps[1].HasTimer() {
			t.Error("Expected balanced step 1 to carry no timer")
		}
	})

	t.Run("MissingKeyRejected", func(t *testing.T) {
		data := `{"proteins": {}, "balanced": {}}`
		var v Variations
		err := json.Unmarshal([]byte(data), &v)
		if err == nil {
			t.Fatal("Expected an error for a missing variation key, got nil")
		}
		if !strings.Contains(err.Error(), "carbs") {
			t.Errorf("Expected error to name the missing key, got: %v", err)
		}
	})

	t.Run("ExtraKeyRejected", func(t *testing.T) {
		data := `{"proteins": {}, "balanced": {}, "carbs": {}, "keto": {}}`
		var v Variations
		if err := json.Unmarshal([]byte(data), &v); err == nil {
			t.Fatal("Expected an error for an extra variation key, got nil")
		}
	})

	t.Run("MarshalEmitsThreeKeys", func(t *testing.T) {
		data, err := json.Marshal(Variations{})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if len(raw) != 3 {
			t.Errorf("Expected exactly 3 keys, got %d", len(raw))
		}
		for _, kind := range Kinds() {
			if _, ok := raw[string(kind)]; !ok {
				t.Errorf("Expected key '%s' present", kind)
			}
		}
	})
}

func TestVariationsGetSet(t *testing.T) {
	var v Variations
	v.Set(Carbs, Variation{Notes: "rice"})
	if v.Get(Carbs).Notes != "rice" {
		t.Errorf("Expected carbs notes 'rice', got '%s'", v.Get(Carbs).Notes)
	}
	// Unknown kinds read as Balanced and write nowhere.
	v.Set(VariationKind("keto"), Variation{Notes: "nope"})
	if v.Get(VariationKind("keto")).Notes != v.Balanced.Notes {
		t.Error("Expected unknown kind to fall back to Balanced")
	}
}

func TestAnalysisClone(t *testing.T) {
	var a Analysis
	if err := json.Unmarshal([]byte(validAnalysisJSON), &a); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	c := a.Clone()
	c.Variations.Balanced.Ingredients[0].Name = "Tempeh"
	c.Variations.Balanced.Steps[0].Text = "Changed"

	if a.Variations.Balanced.Ingredients[0].Name != "Tofu" {
		t.Errorf("Expected original ingredient untouched, got '%s'", a.Variations.Balanced.Ingredients[0].Name)
	}
	if a.Variations.Balanced.Steps[0].Text != "Cook the rice." {
		t.Errorf("Expected original step untouched, got '%s'", a.Variations.Balanced.Steps[0].Text)
	}

	var nilAnalysis *Analysis
	if nilAnalysis.Clone() != nil {
		t.Error("Expected nil analysis to clone to nil")
	}
}

func TestAnalysisValidate(t *testing.T) {
	a := &Analysis{Title: "Soup"}
	if err := a.Validate(); err != nil {
		t.Errorf("Expected valid analysis, got %v", err)
	}
	a.Title = ""
	if err := a.Validate(); err == nil {
		t.Error("Expected an error for an untitled analysis, got nil")
	}
}

func TestCookbookFind(t *testing.T) {
	cb := Cookbook{
		{ID: "r2", Title: "Newest"},
		{ID: "r1", Title: "Oldest"},
	}

	if i := cb.Index("r1"); i != 1 {
		t.Errorf("Expected index 1 for r1, got %d", i)
	}
	if i := cb.Index("missing"); i != -1 {
		t.Errorf("Expected -1 for a missing id, got %d", i)
	}

	rec, ok := cb.Find("r2")
	if !ok || rec.Title != "Newest" {
		t.Errorf("Expected to find r2 'Newest', got ok=%v title='%s'", ok, rec.Title)
	}
	if _, ok := cb.Find("missing"); ok {
		t.Error("Expected Find to miss for an unknown id")
	}
}

func TestVariationKind(t *testing.T) {
	for _, kind := range Kinds() {
		if !kind.Valid() {
			t.Errorf("Expected kind '%s' to be valid", kind)
		}
	}
	if VariationKind("keto").Valid() {
		t.Error("Expected 'keto' to be invalid")
	}
	if Proteins.Label() != "Proteins" {
		t.Errorf("Expected label 'Proteins', got '%s'", Proteins.Label())
	}
}
