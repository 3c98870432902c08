package shopping

import (
	"testing"

	"github.com/petervd13-web/Recipe33/internal/planner"
	"github.com/petervd13-web/Recipe33/internal/recipe"
)

func testCookbook() recipe.Cookbook {
	tofuScramble := recipe.SavedRecipe{
		ID:    "recipeA",
		Title: "Tofu Scramble",
		Analysis: recipe.Analysis{
			Title: "Tofu Scramble",
			Variations: recipe.Variations{
				Balanced: recipe.Variation{
					Ingredients: []recipe.Ingredient{
						{Amount: "200g", Name: "Tofu"},
						{Amount: "100g", Name: "Rice"},
					},
				},
				Carbs: recipe.Variation{
					Ingredients: []recipe.Ingredient{
						{Amount: "150g", Name: "Rice"},
						{Amount: "50g", Name: "Tofu"},
						{Amount: "1", Name: "banana"},
					},
				},
			},
		},
	}
	oats := recipe.SavedRecipe{
		ID:    "recipeB",
		Title: "Overnight Oats",
		Analysis: recipe.Analysis{
			Title: "Overnight Oats",
			Variations: recipe.Variations{
				Balanced: recipe.Variation{
					Ingredients: []recipe.Ingredient{
						{Amount: "80g", Name: "Oats"},
						{Amount: "200ml", Name: "Milk"},
					},
				},
			},
		},
	}
	return recipe.Cookbook{tofuScramble, oats}
}

func TestBuild(t *testing.T) {
	book := testCookbook()

	t.Run("CollectsPlannedVariations", func(t *testing.T) {
		plan := planner.WeekPlan{
			{Date: "2024-06-10", RecipeID: "recipeA", Variation: recipe.Balanced},
			{Date: "2024-06-11", RecipeID: "recipeB", Variation: recipe.Balanced},
		}
		items := Build(plan, book, "2024-06-10", "2024-06-16")

		if len(items) != 4 {
			t.Fatalf("Expected 4 items, got %d", len(items))
		}
		if items[0].ID != "2024-06-10-recipeA-0" {
			t.Errorf("Expected id 2024-06-10-recipeA-0, got %s", items[0].ID)
		}
		if items[0].Ingredient.Name != "Tofu" {
			t.Errorf("Expected Tofu first, got %s", items[0].Ingredient.Name)
		}
		if items[2].RecipeTitle != "Overnight Oats" {
			t.Errorf("Expected Overnight Oats, got %s", items[2].RecipeTitle)
		}
	})

	t.Run("UsesChosenVariation", func(t *testing.T) {
		plan := planner.WeekPlan{
			{Date: "2024-06-10", RecipeID: "recipeA", Variation: recipe.Carbs},
		}
		items := Build(plan, book, "2024-06-10", "2024-06-16")

		if len(items) != 3 {
			t.Fatalf("Expected 3 items from carbs variation, got %d", len(items))
		}
		if items[0].Ingredient.Name != "Rice" {
			t.Errorf("Expected Rice first in carbs variation, got %s", items[0].Ingredient.Name)
		}
	})

	t.Run("SkipsUnresolvableRecipe", func(t *testing.T) {
		plan := planner.WeekPlan{
			{Date: "2024-06-10", RecipeID: "gone", Variation: recipe.Balanced},
			{Date: "2024-06-11", RecipeID: "recipeB", Variation: recipe.Balanced},
		}
		items := Build(plan, book, "2024-06-10", "2024-06-16")

		if len(items) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(items))
		}
		for _, it := range items {
			if it.RecipeID == "gone" {
				t.Errorf("Item %s references a recipe not in the cookbook", it.ID)
			}
		}
	})

	t.Run("ExcludesDatesOutsideInterval", func(t *testing.T) {
		plan := planner.WeekPlan{
			{Date: "2024-06-09", RecipeID: "recipeA", Variation: recipe.Balanced},
			{Date: "2024-06-10", RecipeID: "recipeB", Variation: recipe.Balanced},
			{Date: "2024-06-17", RecipeID: "recipeA", Variation: recipe.Balanced},
		}
		items := Build(plan, book, "2024-06-10", "2024-06-16")

		for _, it := range items {
			if it.Date < "2024-06-10" || it.Date > "2024-06-16" {
				t.Errorf("Item %s is outside the interval", it.ID)
			}
		}
		if len(items) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(items))
		}
	})

	t.Run("EmptyPlan", func(t *testing.T) {
		items := Build(nil, book, "2024-06-10", "2024-06-16")
		if len(items) != 0 {
			t.Errorf("Expected no items, got %d", len(items))
		}
	})

	t.Run("KeepsDuplicateNamesSeparate", func(t *testing.T) {
		plan := planner.WeekPlan{
			{Date: "2024-06-10", RecipeID: "recipeA", Variation: recipe.Balanced},
			{Date: "2024-06-11", RecipeID: "recipeA", Variation: recipe.Carbs},
		}
		items := Build(plan, book, "2024-06-10", "2024-06-16")

		tofuLines := 0
		for _, it := range items {
			if it.Ingredient.Name == "Tofu" {
				tofuLines++
			}
		}
		if tofuLines != 2 {
			t.Errorf("Expected 2 separate Tofu lines, got %d", tofuLines)
		}
	})
}

func TestAlphabetical(t *testing.T) {
	book := testCookbook()
	plan := planner.WeekPlan{
		{Date: "2024-06-10", RecipeID: "recipeA", Variation: recipe.Carbs},
		{Date: "2024-06-11", RecipeID: "recipeB", Variation: recipe.Balanced},
	}
	byDate := Build(plan, book, "2024-06-10", "2024-06-16")
	alpha := Alphabetical(byDate)

	t.Run("SameEntriesDifferentOrder", func(t *testing.T) {
		if len(alpha) != len(byDate) {
			t.Fatalf("Expected %d items, got %d", len(byDate), len(alpha))
		}
		seen := make(map[string]int)
		for _, it := range byDate {
			seen[it.ID]++
		}
		for _, it := range alpha {
			seen[it.ID]--
		}
		for id, n := range seen {
			if n != 0 {
				t.Errorf("Item %s count differs between orderings", id)
			}
		}
	})

	t.Run("CaseInsensitiveOrder", func(t *testing.T) {
		// carbs variation of recipeA has lowercase "banana"; it must
		// sort before "Milk" despite the case difference.
		want := []string{"banana", "Milk", "Oats", "Rice", "Tofu"}
		if len(alpha) != len(want) {
			t.Fatalf("Expected %d items, got %d", len(want), len(alpha))
		}
		for i, name := range want {
			if alpha[i].Ingredient.Name != name {
				t.Errorf("Position %d: expected %s, got %s", i, name, alpha[i].Ingredient.Name)
			}
		}
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		if byDate[0].Ingredient.Name != "Rice" {
			t.Errorf("By-date ordering was mutated: got %s first", byDate[0].Ingredient.Name)
		}
	})
}

func TestChecked(t *testing.T) {
	t.Run("ToggleFlipsMembership", func(t *testing.T) {
		c := NewChecked(nil)
		c.Toggle("2024-06-10-recipeA-0")
		if !c.Has("2024-06-10-recipeA-0") {
			t.Error("Expected id to be checked after toggle")
		}
		c.Toggle("2024-06-10-recipeA-0")
		if c.Has("2024-06-10-recipeA-0") {
			t.Error("Expected id to be unchecked after second toggle")
		}
	})

	t.Run("RoundTripThroughIDs", func(t *testing.T) {
		c := NewChecked([]string{"b", "a"})
		ids := c.IDs()
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Errorf("Expected sorted [a b], got %v", ids)
		}
	})

	t.Run("CheckStateFollowsDerivedID", func(t *testing.T) {
		// Deleting the ingredient at index 0 shifts index 1 into the
		// "-0" id, which inherits the check. Accepted behavior.
		book := testCookbook()
		plan := planner.WeekPlan{
			{Date: "2024-06-10", RecipeID: "recipeA", Variation: recipe.Balanced},
		}
		c := NewChecked(nil)

		items := Build(plan, book, "2024-06-10", "2024-06-16")
		c.Toggle(items[0].ID) // checks Tofu at "...-0"

		// Same inputs: the same id is still reported checked.
		again := Build(plan, book, "2024-06-10", "2024-06-16")
		if !c.Has(again[0].ID) {
			t.Fatal("Expected identical rebuild to report the id as checked")
		}

		// Drop the first ingredient; Rice now sits at index 0.
		balanced := book[0].Analysis.Variations.Balanced
		balanced.Ingredients = balanced.Ingredients[1:]
		book[0].Analysis.Variations.Balanced = balanced

		shifted := Build(plan, book, "2024-06-10", "2024-06-16")
		if shifted[0].Ingredient.Name != "Rice" {
			t.Fatalf("Expected Rice at index 0 after deletion, got %s", shifted[0].Ingredient.Name)
		}
		if !c.Has(shifted[0].ID) {
			t.Error("Expected Rice to inherit the check via the shifted id")
		}
	})
}
