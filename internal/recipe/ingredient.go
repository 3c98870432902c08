package recipe

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Ingredient is one line of a variation's ingredient list. The amount and the
// four macro fields are kept as raw text: the edit buffer accepts whatever the
// user typed, and aggregation coerces anything non-numeric to zero.
type Ingredient struct {
	Amount   string `json:"amount"`
	Name     string `json:"name"`
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Fat      string `json:"fat"`
	Carbs    string `json:"carbs"`
}

// UnmarshalJSON accepts macro values as either JSON numbers (the AI contract)
// or JSON strings (locally edited data), normalizing both to text.
func (in *Ingredient) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   string          `json:"amount"`
		Name     string          `json:"name"`
		Calories json.RawMessage `json:"calories"`
		Protein  json.RawMessage `json:"protein"`
		Fat      json.RawMessage `json:"fat"`
		Carbs    json.RawMessage `json:"carbs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	in.Amount = raw.Amount
	in.Name = raw.Name
	in.Calories = rawText(raw.Calories)
	in.Protein = rawText(raw.Protein)
	in.Fat = rawText(raw.Fat)
	in.Carbs = rawText(raw.Carbs)
	return nil
}

// rawText renders a raw JSON scalar as plain text. Strings are unquoted,
// numbers kept as written, null and absent fields become empty.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

// Totals is the field-wise macro sum of an ingredient list.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// Add returns the element-wise sum of two totals.
func (t Totals) Add(other Totals) Totals {
	return Totals{
		Calories: t.Calories + other.Calories,
		Protein:  t.Protein + other.Protein,
		Fat:      t.Fat + other.Fat,
		Carbs:    t.Carbs + other.Carbs,
	}
}

// Sum aggregates the macros of an ingredient list. Non-numeric or missing
// values count as zero; an empty list yields all-zero totals.
func Sum(ingredients []Ingredient) Totals {
	var t Totals
	for _, in := range ingredients {
		t.Calories += macroValue(in.Calories)
		t.Protein += macroValue(in.Protein)
		t.Fat += macroValue(in.Fat)
		t.Carbs += macroValue(in.Carbs)
	}
	return t
}

func macroValue(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
