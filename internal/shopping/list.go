package shopping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petervd13-web/Recipe33/internal/planner"
	"github.com/petervd13-web/Recipe33/internal/recipe"
)

// SortMode selects how a shopping list is presented.
type SortMode string

const (
	// SortByDate groups items by day, days ascending, ingredients in
	// their recipe's original order.
	SortByDate SortMode = "by_date"
	// SortAlphabetical flattens the list and orders it by ingredient
	// name, case-insensitive.
	SortAlphabetical SortMode = "alphabetical"
)

// Item is one line of a shopping list: an ingredient traced back to the
// day and recipe it came from.
type Item struct {
	// ID is derived from position: "<date>-<recipeID>-<index>". It is
	// stable across rebuilds with identical inputs, but deleting an
	// ingredient row shifts the ids of the rows behind it, and any
	// checked state moves with the id. That inheritance is accepted
	// behavior, not a bug.
	ID          string
	Date        planner.Date
	RecipeID    string
	RecipeTitle string
	Index       int
	Ingredient  recipe.Ingredient
}

// Build assembles the line items for every planned day in the closed
// interval [from, to]. Each contributing day adds the ingredient list
// of its chosen variation. Plan entries whose recipe id no longer
// resolves in the cookbook are skipped. Duplicate ingredient names
// across recipes stay separate lines.
func Build(plan planner.WeekPlan, book recipe.Cookbook, from, to planner.Date) []Item {
	var items []Item
	for _, dp := range plan.InRange(from, to) {
		saved, ok := book.Find(dp.RecipeID)
		if !ok {
			continue
		}
		variation := saved.Analysis.Variations.Get(dp.Variation)
		for i, ing := range variation.Ingredients {
			items = append(items, Item{
				ID:          ItemID(dp.Date, dp.RecipeID, i),
				Date:        dp.Date,
				RecipeID:    dp.RecipeID,
				RecipeTitle: saved.Title,
				Index:       i,
				Ingredient:  ing,
			})
		}
	}
	return items
}

// ItemID derives the stable id for the ingredient at index within the
// recipe planned on date.
func ItemID(date planner.Date, recipeID string, index int) string {
	return fmt.Sprintf("%s-%s-%d", date, recipeID, index)
}

// Alphabetical returns a copy of items ordered by ingredient name,
// case-insensitive. Equal names keep their by-date relative order.
func Alphabetical(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Ingredient.Name) < strings.ToLower(out[j].Ingredient.Name)
	})
	return out
}

// Checked is the set of checked-off item ids.
type Checked map[string]struct{}

// NewChecked builds the set from a persisted id list.
func NewChecked(ids []string) Checked {
	c := make(Checked, len(ids))
	for _, id := range ids {
		c[id] = struct{}{}
	}
	return c
}

// Has reports whether id is checked.
func (c Checked) Has(id string) bool {
	_, ok := c[id]
	return ok
}

// Toggle flips the checked state of id.
func (c Checked) Toggle(id string) {
	if _, ok := c[id]; ok {
		delete(c, id)
		return
	}
	c[id] = struct{}{}
}

// IDs returns the checked ids sorted, for persistence.
func (c Checked) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
