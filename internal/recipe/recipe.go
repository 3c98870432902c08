package recipe

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// VariationKind identifies one of the three macro profiles of an analysis.
type VariationKind string

const (
	Proteins VariationKind = "proteins"
	Balanced VariationKind = "balanced"
	Carbs    VariationKind = "carbs"
)

// Kinds returns the three variation kinds in their canonical order.
func Kinds() [3]VariationKind {
	return [3]VariationKind{Proteins, Balanced, Carbs}
}

// Valid reports whether k names one of the three profiles.
func (k VariationKind) Valid() bool {
	return k == Proteins || k == Balanced || k == Carbs
}

// Label is the display name of the profile.
func (k VariationKind) Label() string {
	switch k {
	case Proteins:
		return "Proteins"
	case Balanced:
		return "Balanced"
	case Carbs:
		return "Carbs"
	}
	return string(k)
}

// CookingStep is one instruction line. Timer is a countdown duration in
// seconds; zero or negative means the step carries no timer.
type CookingStep struct {
	Text  string `json:"text"`
	Timer int    `json:"timer,omitempty"`
}

// HasTimer reports whether the step carries a countdown duration.
func (s CookingStep) HasTimer() bool {
	return s.Timer > 0
}

// Variation holds the ingredient list, notes and cooking steps for one
// macro profile.
type Variation struct {
	Ingredients []Ingredient  `json:"ingredients"`
	Notes       string        `json:"notes"`
	Steps       []CookingStep `json:"steps"`
}

// Clone returns a deep copy of the variation.
func (v Variation) Clone() Variation {
	v.Ingredients = slices.Clone(v.Ingredients)
	v.Steps = slices.Clone(v.Steps)
	return v
}

// Variations is the closed three-profile set. Once an analysis exists all
// three members are present; the wire format carries exactly these three keys.
type Variations struct {
	Proteins Variation `json:"proteins"`
	Balanced Variation `json:"balanced"`
	Carbs    Variation `json:"carbs"`
}

// Get returns the variation for kind. Unknown kinds fall back to Balanced.
func (v *Variations) Get(kind VariationKind) Variation {
	switch kind {
	case Proteins:
		return v.Proteins
	case Carbs:
		return v.Carbs
	default:
		return v.Balanced
	}
}

// Set replaces the variation for kind. Unknown kinds are ignored.
func (v *Variations) Set(kind VariationKind, variation Variation) {
	switch kind {
	case Proteins:
		v.Proteins = variation
	case Balanced:
		v.Balanced = variation
	case Carbs:
		v.Carbs = variation
	}
}

// UnmarshalJSON enforces the fixed schema: exactly the three profile keys,
// never fewer, never more.
func (v *Variations) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, kind := range Kinds() {
		part, ok := raw[string(kind)]
		if !ok {
			return fmt.Errorf("variation %q missing", kind)
		}
		var variation Variation
		if err := json.Unmarshal(part, &variation); err != nil {
			return fmt.Errorf("variation %q: %w", kind, err)
		}
		v.Set(kind, variation)
	}

	if len(raw) != len(Kinds()) {
		for key := range raw {
			if !VariationKind(key).Valid() {
				return fmt.Errorf("unexpected variation %q", key)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of all three variations.
func (v Variations) Clone() Variations {
	return Variations{
		Proteins: v.Proteins.Clone(),
		Balanced: v.Balanced.Clone(),
		Carbs:    v.Carbs.Clone(),
	}
}

// Analysis is the full result of one AI analysis call: a title, the original
// recipe's aggregate macros as reported by the AI (informational only, never
// recomputed locally), and the three macro-profile variations.
type Analysis struct {
	Title          string     `json:"title"`
	OriginalMacros Totals     `json:"original_macros"`
	Variations     Variations `json:"variations"`
}

// Clone returns a deep copy of the analysis. A nil receiver clones to nil.
func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	c := *a
	c.Variations = a.Variations.Clone()
	return &c
}

// Validate checks the fixed AI response schema beyond what decoding enforces.
func (a *Analysis) Validate() error {
	if a.Title == "" {
		return fmt.Errorf("analysis has no title")
	}
	return nil
}

// SavedRecipe is a cookbook entry: one analysis kept whole under a stable id.
// Editing one variation never discards the other two.
type SavedRecipe struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Analysis  Analysis  `json:"analysis"`
}

// Cookbook is the ordered saved-recipe collection, most recent first.
type Cookbook []SavedRecipe

// Index returns the position of the recipe with the given id, or -1.
func (c Cookbook) Index(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the recipe with the given id.
func (c Cookbook) Find(id string) (SavedRecipe, bool) {
	if i := c.Index(id); i >= 0 {
		return c[i], true
	}
	return SavedRecipe{}, false
}
