package settings

import (
	"sort"

	"github.com/petervd13-web/Recipe33/internal/recipe"
)

// ActivityLevel is the user's self-reported activity profile.
type ActivityLevel string

const (
	Sedentary ActivityLevel = "sedentary"
	Active    ActivityLevel = "active"
	Athlete   ActivityLevel = "athlete"
)

// Valid reports whether l is one of the known levels.
func (l ActivityLevel) Valid() bool {
	return l == Sedentary || l == Active || l == Athlete
}

// Equipment is the canonical set of kitchen capabilities a user can toggle.
var Equipment = []string{
	"oven",
	"stovetop",
	"microwave",
	"blender",
	"airfryer",
	"slow cooker",
	"pressure cooker",
	"grill",
}

// Settings is the single user profile record. It is mutated by the user at
// any time and persisted whole on every change.
type Settings struct {
	Name                string          `json:"name"`
	Weight              int             `json:"weight"`
	Activity            ActivityLevel   `json:"activity"`
	TargetCalories      int             `json:"target_calories"`
	TargetProtein       int             `json:"target_protein"`
	TargetCarbs         int             `json:"target_carbs"`
	Kitchen             map[string]bool `json:"kitchen"`
	ExcludedIngredients string          `json:"excluded_ingredients"`
}

// Default returns the profile used when none has been persisted yet.
func Default() Settings {
	return Settings{
		Name:           "Athlete",
		Weight:         72,
		Activity:       Active,
		TargetCalories: 700,
		TargetProtein:  40,
		TargetCarbs:    50,
		Kitchen:        map[string]bool{},
	}
}

// EnabledEquipment lists the enabled kitchen capabilities in sorted order.
func (s Settings) EnabledEquipment() []string {
	var enabled []string
	for name, on := range s.Kitchen {
		if on {
			enabled = append(enabled, name)
		}
	}
	sort.Strings(enabled)
	return enabled
}

// TargetStatus reports, per tracked macro, whether aggregated totals meet the
// user's targets. Calories is a ceiling; protein and carbs are floors.
type TargetStatus struct {
	CaloriesMet bool
	ProteinMet  bool
	CarbsMet    bool
}

// Assess compares macro totals against the per-person targets.
func (s Settings) Assess(t recipe.Totals) TargetStatus {
	return TargetStatus{
		CaloriesMet: t.Calories <= float64(s.TargetCalories),
		ProteinMet:  t.Protein >= float64(s.TargetProtein),
		CarbsMet:    t.Carbs >= float64(s.TargetCarbs),
	}
}
